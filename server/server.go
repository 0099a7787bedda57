// Package server presents calculator forms over HTTP. Each open page gets its
// own host.Session driven over a WebSocket.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strings"
	"time"

	"modcalc/consts"
	"modcalc/fec"
	"modcalc/host"
	"modcalc/modulation"
)

//go:embed templates/form.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/form.html"))

// Options configures a Server.
type Options struct {
	DefaultVariant string
	OuterCode      *fec.OuterCode // nil disables the information rate output
	Metrics        bool           // serve /metrics
}

type Server struct {
	opts    Options
	metrics *Metrics
	mux     *http.ServeMux
}

func New(opts Options) *Server {
	if opts.DefaultVariant == "" {
		opts.DefaultVariant = consts.DefaultVariant
	}
	s := &Server{
		opts:    opts,
		metrics: NewMetrics(),
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("/", s.handleForm)
	s.mux.HandleFunc("/ws", s.handleWebSocket)
	s.mux.HandleFunc("/api/datarate", s.handleDataRate)
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Metrics {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("Form server listening on http://%s/", addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) newSession(variant string) *host.Session {
	opts := []host.Option{host.WithObserver(s.metrics)}
	if s.opts.OuterCode != nil {
		opts = append(opts, host.WithOuterCode(s.opts.OuterCode))
	}
	return host.NewSession(variant, opts...)
}

type formPage struct {
	Variants []string
	State    host.Snapshot
	Shown    string // variant and field keys the rendered inputs belong to
	FEC      string
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	state := s.newSession(s.opts.DefaultVariant).Snapshot()
	keys := make([]string, len(state.Fields))
	for i, f := range state.Fields {
		keys[i] = f.Key
	}
	page := formPage{
		Variants: modulation.Names(),
		State:    state,
		Shown:    state.Variant + ":" + strings.Join(keys, ","),
	}
	if s.opts.OuterCode != nil {
		page.FEC = s.opts.OuterCode.String()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, page); err != nil {
		log.Printf("Failed to render form: %v", err)
	}
}

// handleDataRate computes one result without keeping a session.
// Query: variant, rate, deviation.
func (s *Server) handleDataRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	name := q.Get("variant")
	if name == "" {
		name = s.opts.DefaultVariant
	}
	if _, err := modulation.Lookup(name); err != nil {
		writeJSON(w, http.StatusBadRequest, serverMessage{Type: "error", Error: err.Error()})
		return
	}

	sess := s.newSession(name)
	// Keys the variant does not declare are ignored, like a field the form does not show.
	for _, key := range []string{modulation.FieldRate, modulation.FieldDeviation} {
		if !q.Has(key) || !sess.Variant().Declares(key) {
			continue
		}
		if err := sess.Set(key, q.Get(key)); err != nil {
			writeJSON(w, http.StatusBadRequest, serverMessage{Type: "error", Error: err.Error()})
			return
		}
	}

	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, serverMessage{Type: "state", Snapshot: &snap})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
