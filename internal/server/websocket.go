package server

import (
	"net/http"

	"github.com/zeusync/lunarnav/internal/core/nav"
	"github.com/zeusync/lunarnav/internal/core/observability/log"
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.closed.Load() {
		http.Error(w, ErrServerClosed.Error(), http.StatusServiceUnavailable)
		return
	}

	mode, err := nav.ParseMode(r.URL.Query().Get("mode"))
	if err == nil && !s.modeAllowed(mode) {
		err = ErrModeNotAllowed
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if s.sessionCount.Add(1) > int64(s.config.MaxSessions) {
		s.sessionCount.Add(-1)
		s.logger.Warn("Maximum sessions reached, rejecting connection",
			log.String("remote_addr", r.RemoteAddr))
		http.Error(w, ErrMaxSessionsReached.Error(), http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.sessionCount.Add(-1)
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	session, err := newSession(s, conn, mode)
	if err != nil {
		s.sessionCount.Add(-1)
		s.logger.Error("Failed to start session", log.Error(err))
		_ = conn.Close()
		return
	}
	s.sessions.Store(session.id, session)

	s.logger.Info("Session connected",
		log.String("session_id", session.id),
		log.String("mode", mode.String()),
		log.String("remote_addr", conn.RemoteAddr().String()),
		log.Int64("total_sessions", s.sessionCount.Load()))

	session.run()

	s.sessions.Delete(session.id)
	s.sessionCount.Add(-1)
	s.logger.Info("Session disconnected",
		log.String("session_id", session.id),
		log.Int64("total_sessions", s.sessionCount.Load()))
}
