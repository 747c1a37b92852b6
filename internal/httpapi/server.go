// Package httpapi serves health, metrics and read-only run data over HTTP.
package httpapi

import (
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"VnPanel/internal/collector"
	"VnPanel/internal/metrics"
	"VnPanel/internal/model"
	"VnPanel/internal/recorder"
	"VnPanel/internal/strategy"
)

// Trigger starts a run in the background and reports whether it did.
type Trigger func() bool

// Server holds the handlers' dependencies. Metrics and Trigger may be nil.
type Server struct {
	Recorder recorder.Recorder
	Metrics  *metrics.Metrics
	Trigger  Trigger
}

type runResponse struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Tickers    int       `json:"tickers"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
}

type factorResponse struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Score      float64 `json:"score"`
	Weight     float64 `json:"weight"`
	Commentary string  `json:"commentary"`
}

type assessmentResponse struct {
	Score   float64          `json:"score"`
	Outlook model.Outlook    `json:"outlook"`
	Factors []factorResponse `json:"factors"`
}

type latestResponse struct {
	Ticker     string              `json:"ticker"`
	Date       string              `json:"date"`
	RunID      string              `json:"run_id"`
	Values     map[string]float64  `json:"values"`
	Assessment *assessmentResponse `json:"assessment,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	if s.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/runs/latest", s.lastRun)
		r.Post("/runs", s.startRun)
		r.Get("/tickers/{ticker}/latest", s.latest)
	})
	return r
}

func (s *Server) lastRun(w http.ResponseWriter, r *http.Request) {
	rec, err := s.Recorder.LastRun()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, runResponse{
		RunID:      rec.RunID,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
		Tickers:    rec.Tickers,
		Succeeded:  rec.Succeeded,
		Failed:     rec.Failed,
	})
}

func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	if s.Trigger == nil {
		render.Status(r, http.StatusNotImplemented)
		render.JSON(w, r, errorResponse{Error: "runs are not enabled"})
		return
	}
	if !s.Trigger() {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{Error: "a run is already in progress"})
		return
	}
	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{"status": "started"})
}

func (s *Server) latest(w http.ResponseWriter, r *http.Request) {
	ticker := collector.NormalizeTicker(chi.URLParam(r, "ticker"))
	snap, err := s.Recorder.LatestSnapshot(ticker)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	resp := latestResponse{
		Ticker: snap.Ticker,
		Date:   snap.Date.Format("2006-01-02"),
		RunID:  snap.RunID,
		Values: finite(snap.Values),
	}
	if a := strategy.Evaluate(snap); a != nil {
		ar := &assessmentResponse{Score: a.TotalScore, Outlook: a.Outlook}
		for _, f := range a.Factors {
			ar.Factors = append(ar.Factors, factorResponse{
				Name: f.Name, Value: f.Value, Score: f.RawScore, Weight: f.Weight, Commentary: f.Commentary,
			})
		}
		resp.Assessment = ar
	}
	render.JSON(w, r, resp)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, recorder.ErrNotFound) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{Error: err.Error()})
		return
	}
	log.Printf("[ERROR] %s %s: %v", r.Method, r.URL.Path, err)
	render.Status(r, http.StatusInternalServerError)
	render.JSON(w, r, errorResponse{Error: "internal error"})
}

// finite drops NaN and infinities, which JSON cannot carry.
func finite(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	for k, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}
