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
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/citylab/crimetab/internal/aggregate"
	"github.com/citylab/crimetab/internal/table"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve summaries, chart series, and district lookups over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// The API serves a frozen snapshot: load once, aggregate per
		// request against the immutable table.
		tbl, run, err := loadLatestSnapshot(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("serving snapshot",
			zap.String("run_id", run.ID),
			zap.Int("rows", tbl.Len()),
		)

		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET"},
		}))
		r.Use(rateLimit(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst))

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "run_id": run.ID})
		})
		r.Get("/api/summary", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, aggregate.BuildReport(tbl))
		})
		r.Get("/api/charts/hour", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, aggregate.HourSeries(tbl))
		})
		r.Get("/api/charts/day", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, aggregate.DayOfWeekSeries(tbl))
		})
		r.Get("/api/charts/shootings-by-month", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, aggregate.ShootingsByMonthSeries(tbl))
		})
		r.Get("/api/district", districtHandler(tbl))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func districtHandler(tbl *table.Table) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		district := r.URL.Query().Get("district")
		if district == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "district is required"})
			return
		}
		codes, err := parseCodes(r.URL.Query().Get("codes"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad codes parameter"})
			return
		}
		writeJSON(w, http.StatusOK, aggregate.DistrictYearCounts(tbl, district, codes, true))
	}
}

// rateLimit applies a global token-bucket limit across all clients.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
