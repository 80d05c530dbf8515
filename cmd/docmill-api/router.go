// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/docmill/cmd/docmill-api/handlers"
	"github.com/spherical-ai/docmill/internal/config"
	"github.com/spherical-ai/docmill/internal/export"
	"github.com/spherical-ai/docmill/internal/llm"
	"github.com/spherical-ai/docmill/internal/observability"
	"github.com/spherical-ai/docmill/internal/pdf"
	"github.com/spherical-ai/docmill/internal/pipeline"
)

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"docmill"}`))
	})

	opener := pdf.NewOpener(logger)
	client := llm.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.RequestTimeout, logger)
	processor := pipeline.NewProcessor(opener, client, logger)
	exporter := export.NewExporter(cfg.Storage.OutputDir, logger)
	modelStore := handlers.NewModelStore(cfg.Ollama.Model)

	processingHandler := handlers.NewProcessingHandler(logger, processor, modelStore, cfg)
	filesHandler := handlers.NewFilesHandler(logger, exporter, cfg.Storage.OutputDir)
	modelsHandler := handlers.NewModelsHandler(logger, client, modelStore)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", processingHandler.Upload)
		r.Post("/batch", processingHandler.Batch)

		r.Get("/files", filesHandler.List)
		r.Get("/files/{document}/{filename}", filesHandler.Download)
		r.Post("/export", filesHandler.Export)
		r.Get("/export/{filename}", filesHandler.DownloadExport)

		r.Get("/models", modelsHandler.List)
		r.Post("/model", modelsHandler.Set)
	})

	return r
}
