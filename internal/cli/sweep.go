package cli

import (
	"fmt"

	"github.com/okeefe/circleback/internal/advisor"
	"github.com/okeefe/circleback/internal/engine"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one follow-up sweep over all contacts and print statistics",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := advisor.NewClient(cfg.Advisor)
	if err != nil {
		return fmt.Errorf("advisor not configured: %w", err)
	}

	// One-shot manual sweep; the engine is never scheduled.
	engCfg := cfg.Engine
	engCfg.Enabled = true
	eng := engine.New(db, client, engCfg)

	stats := eng.Sweep(true)
	if stats == nil {
		return fmt.Errorf("sweep did not run")
	}

	fmt.Printf("analyzed:      %d\n", stats.Analyzed)
	fmt.Printf("reminders set: %d\n", stats.RemindersSet)
	fmt.Printf("skipped:       %d\n", stats.Skipped)
	fmt.Printf("errors:        %d\n", stats.Errors)
	return nil
}
