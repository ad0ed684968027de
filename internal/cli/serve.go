package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okeefe/circleback/internal/advisor"
	"github.com/okeefe/circleback/internal/config"
	"github.com/okeefe/circleback/internal/engine"
	"github.com/okeefe/circleback/internal/server"
	"github.com/okeefe/circleback/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server and the follow-up engine",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// Create advisory client and engine
	var eng *engine.Engine
	client, err := advisor.NewClient(cfg.Advisor)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: advisor not configured (%v), follow-up engine disabled\n", err)
	} else {
		eng = engine.New(db, client, cfg.Engine)
		eng.Start()
		defer eng.Stop()
		fmt.Fprintf(os.Stderr, "  advisor: %s\n", cfg.Advisor.Provider)

		go logEvents(eng.Events())
	}

	srv := server.New(db, eng, VersionString())
	addr := cfg.ListenAddr()

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		fmt.Fprintf(os.Stderr, "circleback serving on %s\n", addr)
		fmt.Fprintf(os.Stderr, "  db: %s\n", db.Path)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-done
	fmt.Fprintln(os.Stderr, "\nshutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return httpServer.Shutdown(ctx)
}

// logEvents drains the engine's event stream. The host side of the
// fire-and-forget contract: nothing here feeds back into the engine.
func logEvents(events <-chan engine.Event) {
	for ev := range events {
		switch ev.Kind {
		case engine.EventSweepCompleted:
			if ev.Stats != nil {
				log.Printf("event: sweep completed (analyzed %d, reminders %d, skipped %d, errors %d)",
					ev.Stats.Analyzed, ev.Stats.RemindersSet, ev.Stats.Skipped, ev.Stats.Errors)
			}
		case engine.EventPointsAwarded:
			log.Printf("event: %d points awarded for %s", ev.Points, ev.ContactID)
		}
	}
}

// loadConfig reads the config file and applies env overrides.
func loadConfig() (config.Config, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	// Check for ANTHROPIC_API_KEY env override
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Advisor.Provider = "anthropic"
		cfg.Advisor.AnthropicKey = key
	}
	return cfg, nil
}

func openDB(cfg config.Config) (*store.DB, error) {
	dbPath := cfg.Database.Path
	if dbPath == "" {
		var err error
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve db path: %w", err)
		}
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}
