// Package web provides an HTTP status server for the ledblink daemon.
package web

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/sweeney/ledblink/internal/status"
)

// LEDs accepts configure requests from the status page.
type LEDs interface {
	Configure(ch int, onMs, offMs uint32) error
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	leds       LEDs
	log        zerolog.Logger
}

// New creates a Server that reads state from the given tracker. If leds is
// nil, POST /led is not served.
func New(addr string, tracker *status.Tracker, leds LEDs, log zerolog.Logger) *Server {
	s := &Server{tracker: tracker, leds: leds, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)
	if leds != nil {
		mux.HandleFunc("/led", s.handleLED)
	}

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderHTML(w, snap); err != nil {
		s.log.Warn().Err(err).Msg("render status page")
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}

type ledResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// handleLED configures a channel: POST /led with channel, on and off as
// query or form values.
func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ch, err := strconv.Atoi(r.FormValue("channel"))
	if err != nil {
		writeLED(w, http.StatusBadRequest, ledResponse{Error: "invalid channel"})
		return
	}
	on, err := strconv.ParseUint(r.FormValue("on"), 10, 32)
	if err != nil {
		writeLED(w, http.StatusBadRequest, ledResponse{Error: "invalid on"})
		return
	}
	off, err := strconv.ParseUint(r.FormValue("off"), 10, 32)
	if err != nil {
		writeLED(w, http.StatusBadRequest, ledResponse{Error: "invalid off"})
		return
	}

	if err := s.leds.Configure(ch, uint32(on), uint32(off)); err != nil {
		writeLED(w, http.StatusUnprocessableEntity, ledResponse{Error: err.Error()})
		return
	}
	writeLED(w, http.StatusOK, ledResponse{OK: true})
}

func writeLED(w http.ResponseWriter, code int, resp ledResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}
