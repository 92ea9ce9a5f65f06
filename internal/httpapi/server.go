package httpapi

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/mturbe/pubsubprobe/internal/httpapi/middleware"
	"github.com/mturbe/pubsubprobe/internal/probe"
	"github.com/mturbe/pubsubprobe/internal/pubsub"
	"github.com/mturbe/pubsubprobe/internal/repo"
)

// HealthChecker runs one probe; satisfied by *probe.Prober.
type HealthChecker interface {
	Check(ctx context.Context) probe.Outcome
}

type Server struct {
	Logger    *zap.Logger
	Health    HealthChecker
	Publisher pubsub.Publisher
	Topic     string
	Results   repo.ResultStore
	Keys      middleware.Keys
	RPM       int
	Burst     int
}

func NewServer(l *zap.Logger, h HealthChecker, pub pubsub.Publisher, topic string, rs repo.ResultStore) *Server {
	return &Server{Logger: l, Health: h, Publisher: pub, Topic: topic, Results: rs}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", s.handleHealthz)
	r.Get("/", s.handleIndex)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(s.RPM, s.Burst))
		r.Use(middleware.RequireAny(s.Keys))
		r.Post("/publish", s.handlePublish)
		r.Get("/api/results", s.handleRecentResults)
	})

	return r
}

// handleHealthz surfaces the probe outcome. Down maps to 503 so load
// balancers treat it as an outage signal; unknown is inconclusive and stays
// 200. Note: with an operator-configured health subscription every request
// here consumes one real message from it.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	out := s.Health.Check(r.Context())

	code := http.StatusOK
	if out.Status == probe.StatusDown {
		code = http.StatusServiceUnavailable
	}

	resp := map[string]string{"status": string(out.Status)}
	if d := out.Detail(); d != "" {
		resp["detail"] = d
	}

	s.Logger.Info("healthz",
		zap.String("status", string(out.Status)),
		zap.String("detail", out.Detail()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

var indexTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Pub/Sub publisher</title></head>
<body>
  <h1>Publish a message</h1>
  <form action="/publish" method="post">
    <label>Message: <input type="text" name="message" /></label>
    <label>Key (optional): <input type="text" name="key" /></label>
    <label>Value (optional): <input type="text" name="value" /></label>
    <button type="submit">Publish to {{.Topic}}</button>
  </form>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTmpl.Execute(w, struct{ Topic string }{Topic: s.Topic})
}

type publishPayload struct {
	Message string            `json:"message"`
	Attrs   map[string]string `json:"attrs,omitempty"`
}

// handlePublish accepts either the HTML form or a JSON body and publishes a
// single message to the configured topic.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var p publishPayload
	ct := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(ct, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			http.Error(w, "bad payload", http.StatusBadRequest)
			return
		}
	default:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		p.Message = r.PostFormValue("message")
		if k := r.PostFormValue("key"); k != "" {
			p.Attrs = map[string]string{k: r.PostFormValue("value")}
		}
	}
	if p.Message == "" {
		http.Error(w, "message required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := s.Publisher.Publish(ctx, s.Topic, []byte(p.Message), p.Attrs)
	if err != nil {
		s.Logger.Warn("publish_error", zap.String("topic", s.Topic), zap.Error(err))
		http.Error(w, "could not publish", http.StatusBadGateway)
		return
	}

	s.Logger.Info("published",
		zap.String("topic", s.Topic),
		zap.String("message_id", id),
		zap.Int("bytes", len(p.Message)),
	)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "topic": s.Topic})
}

func (s *Server) handleRecentResults(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	recs, err := s.Results.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(recs)
}
