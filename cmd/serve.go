package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/casawatch/triage-cli/internal/model"
	"github.com/casawatch/triage-cli/internal/progress"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the status HTTP server",
	Long:  "Serves read-only evaluation state: health, progress summary, and stored results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

type progressSummary struct {
	RunID     string `json:"run_id,omitempty"`
	Evaluated int    `json:"evaluated"`
	Results   int    `json:"results"`
	Sent      int    `json:"sent"`
	Skipped   int    `json:"skipped"`
	LastRun   string `json:"last_run,omitempty"`
}

func newRouter(st progress.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/progress", func(w http.ResponseWriter, r *http.Request) {
		rec, err := st.LoadProgress(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		summary := progressSummary{
			RunID:     rec.RunID,
			Evaluated: len(rec.EvaluatedIDs),
			Results:   len(rec.Results),
		}
		for _, res := range rec.Results {
			switch res.Decision {
			case model.DecisionSend:
				summary.Sent++
			case model.DecisionSkip:
				summary.Skipped++
			}
		}
		if !rec.LastRun.IsZero() {
			summary.LastRun = rec.LastRun.Format("2006-01-02T15:04:05Z07:00")
		}
		writeJSON(w, http.StatusOK, summary)
	})

	r.Get("/results", func(w http.ResponseWriter, r *http.Request) {
		rec, err := st.LoadProgress(r.Context())
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		decision := model.Decision(r.URL.Query().Get("decision"))
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			limit, err = strconv.Atoi(raw)
			if err != nil || limit < 0 {
				writeJSONError(w, http.StatusBadRequest, eris.New("invalid limit"))
				return
			}
		}

		results := filterResults(rec.Results, decision, limit)
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   len(results),
			"results": results,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
