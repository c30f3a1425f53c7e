package api

import (
	"encoding/json/v2"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleEvents streams the caller's shelf snapshots as server-sent events.
// Every store change that touches the caller's shelves produces a fresh
// full snapshot; the first event arrives immediately on connect.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		// EventSource cannot set headers, so the token may arrive as a
		// query parameter instead.
		token := r.URL.Query().Get("token")
		if token != "" {
			if claims, verr := s.services.Auth.VerifyToken(token); verr == nil {
				userID, err = claims.UserID, nil
			}
		}
	}
	if err != nil {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		s.logger.Error("failed to flush headers", slog.String("error", err.Error()))
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sub, err := s.hub.Subscribe(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to subscribe to shelf changes", slog.String("error", err.Error()))
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer s.hub.Unsubscribe(sub.ID)

	connLogger := s.logger.With(
		slog.String("subscription_id", sub.ID),
		slog.String("user_id", userID),
	)

	ctx := r.Context()

	heartbeatTicker := time.NewTicker(30 * time.Second)
	defer heartbeatTicker.Stop()

	for {
		select {
		case shelves, ok := <-sub.Snapshots:
			if !ok {
				connLogger.Info("subscription closed by hub")
				return
			}
			if err := s.sendEvent(w, rc, "shelves", shelves); err != nil {
				// Client disconnect is normal, not an error condition.
				connLogger.Info("client disconnected during send")
				return
			}

		case <-heartbeatTicker.C:
			if err := s.sendEvent(w, rc, "heartbeat", map[string]string{
				"time": time.Now().UTC().Format(time.RFC3339),
			}); err != nil {
				connLogger.Info("client disconnected during heartbeat")
				return
			}

		case <-sub.Done:
			connLogger.Info("subscription closed by hub")
			return

		case <-ctx.Done():
			connLogger.Info("client context canceled")
			return
		}
	}
}

// sendEvent writes one SSE frame and flushes it.
func (s *Server) sendEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\n", eventType); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", jsonData); err != nil {
		return err
	}

	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset the write deadline after each successful write so idle
	// connections still die eventually.
	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		s.logger.Debug("failed to set write deadline", slog.String("error", err.Error()))
	}

	return nil
}
