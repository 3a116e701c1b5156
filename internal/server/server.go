// Package server assembles the plat-heat HTTP server.
package server

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"go.uber.org/zap"

	"github.com/joeblew999/plat-heat/internal/api"
	"github.com/joeblew999/plat-heat/internal/api/editor"
	"github.com/joeblew999/plat-heat/internal/config"
	"github.com/joeblew999/plat-heat/internal/db"
	"github.com/joeblew999/plat-heat/internal/service"
	"github.com/joeblew999/plat-heat/internal/templates"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // optional; web/templates/fragments overrides built-in fragments
	NoDB    bool   // skip DuckDB and compute breaks in process
	App     *config.Config
}

// Server is the plat-heat HTTP server.
type Server struct {
	config   Config
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sql.DB
	bus      *service.EventBus
	services *api.Services
	renderer *templates.Renderer
}

// New creates a new server.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		app, err := config.Load("")
		if err != nil {
			return nil, err
		}
		cfg.App = app
	}

	mux := http.NewServeMux()

	humaConfig := huma.DefaultConfig("plat-heat API", api.Version)
	humaConfig.Info.Description = "Heatmap style sets for GeoJSON map layers."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	humaConfig.Transformers = append(humaConfig.Transformers, api.LinkTransformer())

	humaAPI := humago.New(mux, humaConfig)

	var conn *sql.DB
	if !cfg.NoDB {
		c, err := db.Get(db.Config{DataDir: cfg.DataDir, DBName: "heat"})
		if err != nil {
			zap.L().Warn("duckdb unavailable, breaks computed in process", zap.Error(err))
		} else {
			conn = c
		}
	}

	fragmentsDir := ""
	if cfg.WebDir != "" {
		fragmentsDir = filepath.Join(cfg.WebDir, "templates", "fragments")
	}
	renderer, err := templates.New(fragmentsDir)
	if err != nil {
		return nil, err
	}

	bus := service.NewEventBus()
	sources := service.NewSourceService(cfg.DataDir)
	s := &Server{
		config:  cfg,
		mux:     mux,
		humaAPI: humaAPI,
		db:      conn,
		bus:     bus,
		services: &api.Services{
			Layer:     service.NewLayerService(cfg.DataDir, bus),
			Source:    sources,
			Threshold: service.NewThresholdService(sources, conn),
			Config:    cfg.App,
			DataDir:   cfg.DataDir,
			DB:        conn != nil,
		},
		renderer: renderer,
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return db.Close()
}

func (s *Server) routes() {
	// REST API routes (OpenAPI-documented JSON endpoints)
	api.RegisterRoutes(s.humaAPI, s.services)

	// Editor SSE routes
	layers := editor.NewLayerHandler(s.services.Layer, s.renderer)
	layers.RegisterRoutes(s.humaAPI)
	editor.NewHeatmapHandler(s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewSourceHandler(s.services.Source, s.renderer).RegisterRoutes(s.humaAPI)
	editor.NewEventHandler(s.bus, layers).RegisterRoutes(s.humaAPI)

	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
		s.mux.HandleFunc("/editor", s.handleEditor)
	}
	s.mux.HandleFunc("/", s.handleRoot)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"service": "plat-heat",
		"status":  "running",
	})
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.config.WebDir, "templates", "editor.html"))
}
