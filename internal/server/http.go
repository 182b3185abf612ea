package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zeusync/lunarnav/internal/core/events/bus"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
	"github.com/zeusync/lunarnav/internal/settings"
)

// EventSettingsChanged is published after an effective PUT or DELETE of
// /settings. Every session relays it to its client.
const EventSettingsChanged = "settings.changed"

// SettingsEvent is the payload of EventSettingsChanged.
type SettingsEvent struct {
	ETag    string
	Cleared bool
}

const maxSettingsBody = 64 * 1024

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.getSettings(w, r)
	case http.MethodPut:
		s.putSettings(w, r)
	case http.MethodDelete:
		s.deleteSettings(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, PUT, DELETE")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

func (s *Server) getSettings(w http.ResponseWriter, r *http.Request) {
	current, etag, err := s.currentSettings(r)
	if errors.Is(err, settings.ErrNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		s.internalError(w, "Failed to load settings", err)
		return
	}
	w.Header().Set("ETag", etag)
	if matchesETag(r.Header.Get("If-None-Match"), etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s *Server) putSettings(w http.ResponseWriter, r *http.Request) {
	next := settings.Default()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSettingsBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", settings.ErrInvalidSettings, err))
		return
	}

	// If-Match is checked by the store under its write lock, so two
	// writers holding the same ETag cannot both succeed.
	var cond settings.Precondition
	if ifMatch := r.Header.Get("If-Match"); ifMatch != "" {
		cond = func(sum uint64, found bool) bool {
			return found && matchesETag(ifMatch, settings.ETag(sum))
		}
	}

	changed, err := s.store.SaveIf(r.Context(), next, cond)
	if errors.Is(err, settings.ErrPreconditionFailed) {
		writeError(w, http.StatusPreconditionFailed, ErrPreconditionFailed)
		return
	}
	if errors.Is(err, settings.ErrInvalidSettings) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		s.internalError(w, "Failed to save settings", err)
		return
	}

	sum, err := settings.Checksum(next)
	if err != nil {
		s.internalError(w, "Failed to hash settings", err)
		return
	}
	etag := settings.ETag(sum)
	if changed {
		s.logger.Info("Settings saved", log.String("etag", etag))
		s.publishSettings(SettingsEvent{ETag: etag})
	}
	w.Header().Set("ETag", etag)
	writeJSON(w, http.StatusOK, next)
}

func (s *Server) deleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		s.internalError(w, "Failed to clear settings", err)
		return
	}
	s.logger.Info("Settings cleared")
	s.publishSettings(SettingsEvent{Cleared: true})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) currentSettings(r *http.Request) (settings.SceneSettings, string, error) {
	current, err := s.store.Load(r.Context())
	if err != nil {
		return settings.SceneSettings{}, "", err
	}
	sum, err := settings.Checksum(current)
	if err != nil {
		return settings.SceneSettings{}, "", err
	}
	return current, settings.ETag(sum), nil
}

func (s *Server) publishSettings(ev SettingsEvent) {
	if err := s.bus.Publish(bus.NewEvent(EventSettingsChanged, "settings", ev, nil)); err != nil {
		s.logger.Warn("Failed to notify sessions of settings change", log.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		Stats
	}{Status: "ok", Stats: s.GetStats()})
}

func (s *Server) internalError(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, log.Error(err))
	writeError(w, http.StatusInternalServerError, errors.New(strings.ToLower(msg)))
}

// matchesETag reports whether an If-Match / If-None-Match header names
// etag. An empty etag never matches, not even "*".
func matchesETag(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorMessage{Type: MessageError, Message: err.Error()})
}
