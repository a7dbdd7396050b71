package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/tickpilot/internal/feature"
	"github.com/nerrad567/tickpilot/internal/settings"
)

// handleListFeatures returns the status of every feature, ordered by key.
func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	var list []feature.Status
	if err := s.call(r, func() error {
		list = s.features.List()
		return nil
	}); err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"features": list,
		"count":    len(list),
	})
}

func (s *Server) handleGetFeature(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var st feature.Status
	if err := s.call(r, func() error {
		var err error
		st, err = s.features.Status(key)
		return err
	}); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// handleEnableFeature enables a feature and persists the choice.
func (s *Server) handleEnableFeature(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, true)
}

// handleDisableFeature disables a feature and persists the choice.
func (s *Server) handleDisableFeature(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, false)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request, enable bool) {
	key := chi.URLParam(r, "key")
	ctx := r.Context()

	var st feature.Status
	err := s.call(r, func() error {
		var err error
		if enable {
			err = s.features.Enable(ctx, key)
		} else {
			err = s.features.Disable(ctx, key)
		}
		if err != nil {
			return err
		}
		st, err = s.features.Status(key)
		return err
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	s.logger.Info("feature toggled via API",
		"feature", key,
		"enabled", enable,
		"by", claimsFrom(ctx).Subject,
	)
	writeJSON(w, http.StatusOK, st)
}

// handleGetSettings describes a feature's editable settings.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var views []settings.View
	if err := s.call(r, func() error {
		var err error
		views, err = s.features.Settings(key)
		return err
	}); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      key,
		"settings": views,
	})
}

// handleUpdateSettings applies a partial settings update. The body maps
// field names to new values:
//
//	{"cooldown_ms": 750, "select_entries": false}
//
// Unknown names and invalid values are rejected with 400. Values listed
// before a rejected one still apply.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var values map[string]any
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(values) == 0 {
		writeBadRequest(w, "no settings given")
		return
	}

	var views []settings.View
	if err := s.call(r, func() error {
		var err error
		views, err = s.features.UpdateSettings(key, values)
		return err
	}); err != nil {
		writeEngineError(w, err)
		return
	}

	s.logger.Info("feature settings updated via API",
		"feature", key,
		"fields", len(values),
		"by", claimsFrom(r.Context()).Subject,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"key":      key,
		"settings": views,
	})
}

// handleListThrottles returns every throttle key with its remaining
// cooldown. The throttle registry is safe for concurrent reads.
func (s *Server) handleListThrottles(w http.ResponseWriter, _ *http.Request) {
	entries := s.throttles.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"throttles":        entries,
		"count":            len(entries),
		"generic_cooldown": s.throttles.GenericCooldown().String(),
	})
}
