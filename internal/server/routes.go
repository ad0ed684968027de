package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okeefe/circleback/internal/engine"
	"github.com/okeefe/circleback/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.db.ListContacts()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := time.Now()
	type contactJSON struct {
		store.Contact
		ReminderState engine.ReminderState `json:"reminder_state"`
	}
	out := make([]contactJSON, len(contacts))
	for i := range contacts {
		out[i] = contactJSON{contacts[i], engine.StateOf(&contacts[i], now)}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(out),
		"contacts": out,
	})
}

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var c store.Contact
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if c.Name == "" {
		writeError(w, http.StatusBadRequest, "name required")
		return
	}

	if err := s.db.CreateContact(&c); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetContact(w http.ResponseWriter, r *http.Request) {
	c, err := s.db.GetContact(chi.URLParam(r, "contactID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "contact not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name              *string          `json:"name"`
		RelationshipType  *string          `json:"relationship_type"`
		ContactGoal       *string          `json:"contact_goal"`
		OrbitLevel        *int             `json:"orbit_level"`
		HealthScore       *int             `json:"health_score"`
		Tags              *[]string        `json:"tags"`
		ReminderFrequency *string          `json:"reminder_frequency"`
		ReminderDate      *string          `json:"reminder_date"`
		NextMilestone     *store.Milestone `json:"next_milestone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	c, err := s.db.UpdateContact(chi.URLParam(r, "contactID"), store.ContactUpdate{
		Name:              req.Name,
		RelationshipType:  req.RelationshipType,
		ContactGoal:       req.ContactGoal,
		OrbitLevel:        req.OrbitLevel,
		HealthScore:       req.HealthScore,
		Tags:              req.Tags,
		ReminderFrequency: req.ReminderFrequency,
		ReminderDate:      req.ReminderDate,
		NextMilestone:     req.NextMilestone,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteContact(chi.URLParam(r, "contactID")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleLogInteraction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Kind      string `json:"kind"`
		Note      string `json:"note"`
		Sentiment int    `json:"sentiment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	in, err := s.db.LogInteraction(chi.URLParam(r, "contactID"), req.Kind, req.Note, req.Sentiment)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) handleGetInteractions(w http.ResponseWriter, r *http.Request) {
	interactions, err := s.db.GetInteractions(chi.URLParam(r, "contactID"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(interactions),
		"interactions": interactions,
	})
}

// requireEngine returns the engine or writes a 503.
func (s *Server) requireEngine(w http.ResponseWriter) *engine.Engine {
	if s.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "engine not configured")
		return nil
	}
	return s.engine
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	var req struct {
		Date string `json:"date"`
	}
	// Body is optional; an empty or absent body accepts the suggested date.
	json.NewDecoder(r.Body).Decode(&req)

	c, err := eng.Accept(chi.URLParam(r, "contactID"), req.Date)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	var req struct {
		Days int `json:"days"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	c, err := eng.Snooze(chi.URLParam(r, "contactID"), req.Days)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	c, err := eng.Dismiss(chi.URLParam(r, "contactID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	c, err := eng.Complete(chi.URLParam(r, "contactID"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleEngineStatus(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}
	writeJSON(w, http.StatusOK, eng.Status())
}

func (s *Server) handleForceCheck(w http.ResponseWriter, r *http.Request) {
	eng := s.requireEngine(w)
	if eng == nil {
		return
	}

	// Async force check: a sweep already in flight makes this a no-op.
	go eng.Sweep(true)

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "checking"})
}

func (s *Server) handleSweepRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	runs, err := s.db.GetRecentSweepRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(runs),
		"runs":  runs,
	})
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.db.GetPolicy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

func (s *Server) handleSavePolicy(w http.ResponseWriter, r *http.Request) {
	var p store.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if p.MinConfidence < 0 || p.MinConfidence > 100 {
		writeError(w, http.StatusBadRequest, "min_confidence_threshold must be 0-100")
		return
	}

	if err := s.db.SavePolicy(p); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.db.ListRules()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(rules),
		"rules": rules,
	})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var rule store.TriggerRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if rule.Name == "" || rule.Condition == "" {
		writeError(w, http.StatusBadRequest, "name and condition required")
		return
	}

	if err := s.db.CreateRule(&rule); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteRule(chi.URLParam(r, "ruleID")); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
