package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mapping-tomorrow/riskmap-cli/internal/analysis"
	"github.com/mapping-tomorrow/riskmap-cli/internal/export"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis collections over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := newEnv(cfg)
		if err != nil {
			return err
		}
		defer e.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e),
		}

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("serving analysis API", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

// runner abstracts pipeline construction so handlers can be tested without
// live upstream clients.
type runner interface {
	run(ctx context.Context, place string) (*analysis.Result, error)
}

func (e *env) run(ctx context.Context, place string) (*analysis.Result, error) {
	return e.pipeline(place).Run(ctx)
}

// newRouter builds the HTTP API over the environment.
func newRouter(r runner) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	mux.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.Get("/api/summary", handleSummary(r))
	mux.Get("/api/points", handleCollection(r, func(res *analysis.Result) ([]byte, error) {
		return export.PointsGeoJSON(res.Points)
	}))
	mux.Get("/api/zones", handleCollection(r, func(res *analysis.Result) ([]byte, error) {
		return export.ZonesGeoJSON(res.Zones)
	}))
	mux.Get("/api/exposures", handleCollection(r, func(res *analysis.Result) ([]byte, error) {
		return export.ExposuresGeoJSON(res.Exposures)
	}))

	return mux
}

// requestPlace returns the place for this request, honoring ?place=.
func requestPlace(req *http.Request) string {
	if p := req.URL.Query().Get("place"); p != "" {
		return p
	}
	return cfg.Place
}

func handleSummary(r runner) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		result, err := r.run(req.Context(), requestPlace(req))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":         result.RunID,
			"place":          result.Place,
			"generated_at":   result.GeneratedAt,
			"points":         len(result.Points),
			"zones":          len(result.Zones),
			"exposures":      len(result.Exposures),
			"exposed_points": result.ExposedPoints(),
			"exposure_share": result.ExposureShare(),
			"warnings":       result.Warnings,
		})
	}
}

func handleCollection(r runner, encode func(*analysis.Result) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		result, err := r.run(req.Context(), requestPlace(req))
		if err != nil {
			writeError(w, err)
			return
		}
		raw, err := encode(result)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(raw)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
