package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/crm-funnel-cli/internal/metrics"
	"github.com/sells-group/crm-funnel-cli/internal/model"
	"github.com/sells-group/crm-funnel-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the latest snapshot as a read-only JSON API",
	Long: `Starts an HTTP server exposing the latest stored snapshot for dashboard
consumers: lead dataset, conversion summary, funnel stages, per-owner
breakdown and daily timeline. Every endpoint reads the newest snapshot on
each request, so a concurrent sync --save shows up without a restart.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tax, err := cfg.ResolveTaxonomy()
	if err != nil {
		return err
	}

	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: newServeMux(st, tax),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("serve: starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		zap.L().Info("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newServeMux builds the API routes. Split out so handler tests can hit the
// mux with httptest without binding a port.
func newServeMux(st store.Store, tax model.Taxonomy) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /api/leads", withSnapshot(st, func(w http.ResponseWriter, snap *model.Snapshot) {
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id": snap.RunID,
			"leads":  snap.Leads,
		})
	}))

	mux.HandleFunc("GET /api/metrics", withSnapshot(st, func(w http.ResponseWriter, snap *model.Snapshot) {
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":  snap.RunID,
			"summary": metrics.Aggregate(snap.Leads, tax),
			"contact": metrics.Contact(snap.Leads),
		})
	}))

	mux.HandleFunc("GET /api/funnel", withSnapshot(st, func(w http.ResponseWriter, snap *model.Snapshot) {
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":   snap.RunID,
			"funnel":   metrics.FunnelCounts(snap.Leads, tax),
			"statuses": metrics.StatusDistribution(snap.Leads),
		})
	}))

	mux.HandleFunc("GET /api/owners", withSnapshot(st, func(w http.ResponseWriter, snap *model.Snapshot) {
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id": snap.RunID,
			"owners": metrics.OwnerBreakdown(snap.Leads, tax),
		})
	}))

	mux.HandleFunc("GET /api/timeline", withSnapshot(st, func(w http.ResponseWriter, snap *model.Snapshot) {
		writeJSON(w, http.StatusOK, map[string]any{
			"run_id":   snap.RunID,
			"timeline": metrics.Timeline(snap.Leads),
		})
	}))

	return mux
}

// withSnapshot loads the latest snapshot and hands it to the wrapped handler.
func withSnapshot(st store.Store, h func(http.ResponseWriter, *model.Snapshot)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := st.LatestSnapshot(r.Context())
		if err != nil {
			zap.L().Error("serve: load snapshot", zap.Error(err))
			http.Error(w, `{"error":"snapshot load failed"}`, http.StatusInternalServerError)
			return
		}
		if snap == nil {
			http.Error(w, `{"error":"no stored snapshot"}`, http.StatusNotFound)
			return
		}
		h(w, snap)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error("serve: encode response", zap.Error(err))
	}
}
