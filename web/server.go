// ABOUTME: Web UI server with embedded templates
// ABOUTME: Serves a read-only pipeline board, an ASCII dashboard and a JSON board endpoint
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/harperreed/pipeboard/board"
	"github.com/harperreed/pipeboard/models"
	"github.com/harperreed/pipeboard/viz"
)

//go:embed templates/*
var templatesFS embed.FS

type Server struct {
	store     board.Catalog
	templates *template.Template
}

type cardView struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Value       string   `json:"value,omitempty"`
	Probability int      `json:"win_probability"`
	Prospect    string   `json:"prospect,omitempty"`
	CloseDate   string   `json:"expected_close_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type columnView struct {
	StageID string     `json:"stage_id"`
	Name    string     `json:"name"`
	Color   string     `json:"color,omitempty"`
	IsWon   bool       `json:"is_won,omitempty"`
	IsLost  bool       `json:"is_lost,omitempty"`
	Count   int        `json:"count"`
	Total   string     `json:"total_value"`
	Mean    float64    `json:"mean_win_probability"`
	Deals   []cardView `json:"deals"`
}

type boardView struct {
	PipelineID string       `json:"pipeline_id"`
	Pipeline   string       `json:"pipeline"`
	Columns    []columnView `json:"columns"`
	Orphans    int          `json:"orphans"`
}

func NewServer(store board.Catalog) (*Server, error) {
	// Helper functions for templates
	funcMap := template.FuncMap{
		"percent": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{store: store, templates: tmpl}, nil
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleBoard)
	mux.HandleFunc("GET /dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/board", s.handleBoardJSON)
	mux.HandleFunc("GET /api/pipelines", s.handlePipelinesJSON)
	return mux
}

// Start serves on port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Infof("Starting web server at http://localhost%s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

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

func (s *Server) loadBoard(r *http.Request) (models.Pipeline, *board.Board, error) {
	ctx := r.Context()
	p, err := board.FindPipeline(ctx, s.store, r.URL.Query().Get("pipeline"))
	if err != nil {
		return models.Pipeline{}, nil, err
	}
	stages, deals, err := board.Fetch(ctx, s.store, p.ID)
	if err != nil {
		return models.Pipeline{}, nil, err
	}
	return p, board.Build(stages, deals), nil
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	p, b, err := s.loadBoard(r)
	if err != nil {
		httpError(w, err)
		return
	}
	pipelines, err := s.store.ListPipelines(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}

	data := map[string]interface{}{
		"Title":           p.Name,
		"Board":           newBoardView(p, b),
		"Pipelines":       pipelines,
		"ContentTemplate": "board-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	p, b, err := s.loadBoard(r)
	if err != nil {
		httpError(w, err)
		return
	}

	data := map[string]interface{}{
		"Title":           p.Name + " dashboard",
		"Dashboard":       viz.RenderDashboard(viz.GenerateDashboardStats(p.Name, b)),
		"ContentTemplate": "dashboard-content",
	}
	s.renderTemplate(w, "layout.html", data)
}

func (s *Server) handleBoardJSON(w http.ResponseWriter, r *http.Request) {
	p, b, err := s.loadBoard(r)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, newBoardView(p, b))
}

func (s *Server) handlePipelinesJSON(w http.ResponseWriter, r *http.Request) {
	pipelines, err := s.store.ListPipelines(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, pipelines)
}

func (s *Server) renderTemplate(w http.ResponseWriter, name string, data interface{}) {
	// The data map includes ContentTemplate to specify which content block to render
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		log.WithError(err).WithField("template", name).Error("template render failed")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to write json response")
	}
}

func httpError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, models.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		log.WithError(err).Error("request failed")
	}
	http.Error(w, err.Error(), status)
}

func newBoardView(p models.Pipeline, b *board.Board) boardView {
	v := boardView{
		PipelineID: p.ID.String(),
		Pipeline:   p.Name,
		Columns:    make([]columnView, 0, len(b.Columns)),
		Orphans:    len(b.Orphans),
	}
	for _, col := range b.Columns {
		c := columnView{
			StageID: col.Stage.ID.String(),
			Name:    col.Stage.Name,
			Color:   col.Stage.Color,
			IsWon:   col.Stage.IsWon,
			IsLost:  col.Stage.IsLost,
			Count:   col.Aggregate.Count,
			Total:   models.FormatMoney(col.Aggregate.TotalValue),
			Mean:    col.Aggregate.MeanWinProbability,
			Deals:   make([]cardView, 0, len(col.Deals)),
		}
		for _, d := range col.Deals {
			card := cardView{
				ID:          d.ID.String(),
				Title:       d.Title,
				Probability: d.WinProbability,
				Tags:        d.Tags,
			}
			if d.Value != nil {
				card.Value = models.FormatMoney(*d.Value)
			}
			if d.Prospect != nil {
				card.Prospect = d.Prospect.Name
			}
			if d.ExpectedCloseDate != nil {
				card.CloseDate = d.ExpectedCloseDate.Format("2006-01-02")
			}
			c.Deals = append(c.Deals, card)
		}
		v.Columns = append(v.Columns, c)
	}
	return v
}
