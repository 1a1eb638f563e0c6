package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// Serves canned telemetry in the shape the remote collector expects, so kb-engine can be
// exercised locally with MIRADOR_KB_TELEMETRY_BASE_URL=http://localhost:8080.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("component", "mock-telemetry"))

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api/v1/telemetry", func(r chi.Router) {
		r.Post("/logs", func(w http.ResponseWriter, _ *http.Request) {
			now := time.Now().UTC()
			logs := make([]models.LogLine, 0, 14)
			for i := 0; i < 12; i++ {
				logs = append(logs, models.LogLine{
					Timestamp: now.Add(-time.Duration(12-i) * 10 * time.Second),
					Service:   "checkout",
					Message:   "ERROR connection refused dialing payments:8443",
				})
			}
			logs = append(logs,
				models.LogLine{Timestamp: now.Add(-30 * time.Second), Service: "payments", Message: "WARN retry budget exhausted"},
				models.LogLine{Timestamp: now.Add(-20 * time.Second), Service: "inventory", Message: "INFO request served"},
			)
			writeJSON(w, map[string]any{"logs": logs})
		})
		r.Post("/commits", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"commits": []models.Commit{{
				SHA:     "4f2a9c1e7b3d5f60a8c2e4b6d8f0a1c3e5b7d9f1",
				Author:  "dev@example.com",
				Date:    time.Now().UTC().Add(-3 * time.Minute),
				Message: "switch payments client to new TLS endpoint",
			}}})
		})
		r.Post("/metrics", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, map[string]any{"metrics": []models.ContainerMetric{
				{ContainerName: "checkout", CPUPercent: 42.5, MemoryPercent: 61.2, MemoryUsage: "612MiB / 1GiB"},
				{ContainerName: "payments", CPUPercent: 91.3, MemoryPercent: 88.4, MemoryUsage: "905MiB / 1GiB"},
			}})
		})
	})

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening", slog.String("address", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode response", slog.Any("error", err))
	}
}
