package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"eclipse-sequencer/internal/logging"
	"eclipse-sequencer/internal/usecase"
)

// Server is a primary adapter that exposes the run status over HTTP.
// It depends on the use case (primary port).
type Server struct {
	usecase usecase.SequencerUseCase
	router  chi.Router
	server  *http.Server
}

// NewServer creates the HTTP server bound to addr.
func NewServer(uc usecase.SequencerUseCase, addr string) *Server {
	srv := &Server{usecase: uc}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware)
	r.Get("/", srv.handleRoot)
	r.Get("/api/status", srv.handleStatus)
	r.Handle("/metrics", metricsHandler(uc))
	srv.router = r

	srv.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks and serves HTTP traffic.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(statusPage))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.usecase.GetSnapshot())
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warnf("encode JSON: %v", err)
	}
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.Debugf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

const statusPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Eclipse Sequencer</title>
    <style>
        body { font-family: sans-serif; max-width: 640px; margin: 50px auto; padding: 20px; background: #111; color: #eee; }
        h1 { color: #f5c542; }
        .info { background: #222; padding: 15px; border-radius: 5px; margin: 20px 0; }
        td { padding: 4px 12px 4px 0; }
        .err { color: #ff6b6b; }
    </style>
</head>
<body>
    <h1>Eclipse Sequencer</h1>
    <div class="info" id="status">Loading...</div>
    <p class="err" id="error"></p>
    <script>
        function hms(s) {
            const pad = n => String(n).padStart(2, '0');
            return pad(Math.floor(s / 3600)) + ':' + pad(Math.floor(s % 3600 / 60)) + ':' + pad(s % 60);
        }

        async function loadStatus() {
            const res = await fetch('/api/status');
            const p = await res.json();
            let html = '<table>';
            html += '<tr><td>Running</td><td>' + p.running + (p.testMode ? ' (test mode)' : '') + '</td></tr>';
            html += '<tr><td>Step</td><td>' + p.done + ' / ' + p.total + '</td></tr>';
            if (p.kind) {
                html += '<tr><td>Action</td><td>' + p.kind + ' line ' + p.line + ' (' + p.state + ')</td></tr>';
                html += '<tr><td>Trigger</td><td>' + hms(p.nextTrigger) + ' in ' + p.remaining + 's</td></tr>';
            }
            html += '<tr><td>Captures</td><td>' + p.stats.capturesFired + ' fired, ' +
                p.stats.capturesSimulated + ' simulated, ' + p.stats.capturesFailed + ' failed</td></tr>';
            html += '</table>';
            document.getElementById('status').innerHTML = html;
            document.getElementById('error').textContent = p.lastError || '';
        }

        loadStatus();
        setInterval(loadStatus, 1000);
    </script>
</body>
</html>`
