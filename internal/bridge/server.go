package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Server exposes the bridge on a loopback HTTP endpoint so other local
// processes (or a browser userscript) can drive it with command envelopes.
type Server struct {
	bridge *Bridge
	addr   string
}

func NewServer(b *Bridge, addr string) *Server {
	return &Server{bridge: b, addr: addr}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /command", s.handleCommand)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	server := &http.Server{Addr: s.addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", s.addr).Msg("Bridge listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleCommand decodes one envelope and dispatches it. Command outcomes
// always return 200 with the result inside the envelope; only a request
// that is not an envelope at all gets an HTTP error status.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	writeJSON(w, http.StatusOK, s.bridge.Dispatch(r.Context(), req))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Call posts one command envelope to a running bridge daemon. Transport
// failures become envelope failures so the caller sees one shape.
func Call(ctx context.Context, baseURL, action string, data any) Response {
	payload, err := json.Marshal(data)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("encode payload: %v", err)}
	}
	body, err := json.Marshal(Request{Action: action, Data: payload})
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("encode request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/command", bytes.NewReader(body))
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Response{Success: false, Error: fmt.Sprintf("bridge unreachable: %v", err)}
	}
	defer resp.Body.Close()

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{Success: false, Error: fmt.Sprintf("decode bridge response: %v", err)}
	}
	return out
}
