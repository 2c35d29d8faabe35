package main

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daniel-st3/sql-chicago-data-analysis/internal/dashboard"
	"github.com/daniel-st3/sql-chicago-data-analysis/internal/report"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard and report battery over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		svc, err := newDashboardService(st)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(svc, report.NewRunner(st), cfg.Server.CORSOrigins),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// buildRouter wires the health check and the read-only analysis API.
func buildRouter(svc *dashboard.Service, runner *report.Runner, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/communities", func(w http.ResponseWriter, req *http.Request) {
			aggs, err := svc.CommunityAggregates(req.Context())
			if err != nil {
				fail(w, http.StatusInternalServerError, err)
				return
			}
			respond(w, http.StatusOK, aggs)
		})

		r.Get("/crimes", func(w http.ResponseWriter, req *http.Request) {
			crimes, err := svc.EnrichedCrimes(req.Context())
			if err != nil {
				fail(w, http.StatusInternalServerError, err)
				return
			}
			respond(w, http.StatusOK, crimes)
		})

		r.Get("/options", func(w http.ResponseWriter, req *http.Request) {
			opts, err := svc.Options(req.Context())
			if err != nil {
				fail(w, http.StatusInternalServerError, err)
				return
			}
			respond(w, http.StatusOK, opts)
		})

		r.Get("/overview", func(w http.ResponseWriter, req *http.Request) {
			f, err := parseFilter(req)
			if err != nil {
				fail(w, http.StatusBadRequest, err)
				return
			}
			ov, err := svc.Overview(req.Context(), f)
			if err != nil {
				fail(w, http.StatusInternalServerError, err)
				return
			}
			respond(w, http.StatusOK, ov)
		})

		r.Get("/report", func(w http.ResponseWriter, req *http.Request) {
			ids, err := parseIDs(req.URL.Query().Get("only"))
			if err != nil {
				fail(w, http.StatusBadRequest, err)
				return
			}
			if _, err := runner.Select(ids...); err != nil {
				fail(w, http.StatusBadRequest, err)
				return
			}
			results, err := runner.Run(req.Context(), ids...)
			if err != nil {
				fail(w, http.StatusInternalServerError, err)
				return
			}
			respond(w, http.StatusOK, toReportOutput(results))
		})
	})

	return r
}

// parseFilter reads repeated community and crime_type parameters plus the
// optional threshold and top_n.
func parseFilter(req *http.Request) (dashboard.Filter, error) {
	q := req.URL.Query()
	f := dashboard.Filter{
		Communities: q["community"],
		CrimeTypes:  q["crime_type"],
	}
	if raw := q.Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return f, eris.Errorf("invalid threshold %q", raw)
		}
		f.Threshold = &v
	}
	if raw := q.Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return f, eris.Errorf("invalid top_n %q", raw)
		}
		f.TopN = n
	}
	return f, nil
}

func parseIDs(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, eris.Errorf("invalid query id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("serve: encode response", zap.Error(err))
	}
}

func fail(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		zap.L().Error("serve: request failed", zap.Error(err))
	}
	respond(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
