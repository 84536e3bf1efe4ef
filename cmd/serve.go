package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vakit-cli/internal/cache"
	"github.com/sells-group/vakit-cli/internal/model"
	"github.com/sells-group/vakit-cli/internal/pipeline"
	"github.com/sells-group/vakit-cli/internal/registry"
	"github.com/sells-group/vakit-cli/internal/segment"
	"github.com/sells-group/vakit-cli/pkg/moon"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve reconciled prayer times over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		api := &apiServer{
			cache:       env.Cache,
			reconciler:  env.Aggregator,
			descriptors: env.Descriptors,
			providers:   env.Providers.List(),
			params:      calcParams,
			tz:          cfg.Location(),
			moon:        env.Moon,
			metrics:     env.Metrics.Handler(),
			corsOrigins: cfg.Server.CORSOrigins,
			now:         time.Now,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           api.routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiServer holds the dependencies of the HTTP handlers.
type apiServer struct {
	cache       *cache.Cache
	reconciler  pipeline.Reconciler
	descriptors []registry.Descriptor
	providers   []string
	params      func(model.Location) model.CalcParams
	tz          *time.Location
	moon        moon.Client
	metrics     http.Handler
	corsOrigins []string
	now         func() time.Time
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/timings", s.handleTimings)
		r.Get("/segment", s.handleSegment)
		r.Get("/moon", s.handleMoon)
		r.Get("/providers", s.handleProviders)
	})
	return r
}

func (s *apiServer) session() *pipeline.Session {
	return pipeline.NewSession(s.cache, s.reconciler, nil, nil, pipeline.Options{
		Descriptors: s.descriptors,
		Params:      s.params,
		Timezone:    s.tz,
	}).WithNow(s.now)
}

func (s *apiServer) handleTimings(w http.ResponseWriter, r *http.Request) {
	loc, err := locationFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out, err := s.session().AnchorsForToday(r.Context(), loc)
	if err != nil {
		writeOutcomeError(w, out, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *apiServer) handleSegment(w http.ResponseWriter, r *http.Request) {
	loc, err := locationFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	sess := s.session()
	out, err := sess.AnchorsForToday(r.Context(), loc)
	if err != nil {
		writeOutcomeError(w, out, err)
		return
	}
	sess.Arm(out.Set)

	now := s.now()
	res := sess.EvaluateSegment(now)
	resp := struct {
		Date            string              `json:"date"`
		Provider        string              `json:"provider"`
		Status          pipeline.Status     `json:"status"`
		IsSpecialPeriod bool                `json:"is_special_period"`
		Segment         segment.Result      `json:"segment"`
		Countdown       []segment.Countdown `json:"countdown,omitempty"`
	}{
		Date:            out.Set.Date,
		Provider:        out.Set.ProviderID,
		Status:          out.Status,
		IsSpecialPeriod: out.Set.IsSpecialPeriod,
		Segment:         res,
	}
	if out.Set.IsSpecialPeriod {
		resp.Countdown = segment.New(out.Set, now, s.tz).Countdowns(now, model.Imsak, model.Maghrib)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *apiServer) handleMoon(w http.ResponseWriter, r *http.Request) {
	lat, lon, err := coordsFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rep, err := lookupMoon(r.Context(), s.moon, lat, lon)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *apiServer) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"registered":  s.providers,
		"descriptors": registry.Sort(s.descriptors),
	})
}

func coordsFromQuery(r *http.Request) (float64, float64, error) {
	q := r.URL.Query()
	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return 0, 0, eris.New("lat must be a number between -90 and 90")
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		return 0, 0, eris.New("lon must be a number between -180 and 180")
	}
	return lat, lon, nil
}

func locationFromQuery(r *http.Request) (model.Location, error) {
	lat, lon, err := coordsFromQuery(r)
	if err != nil {
		return model.Location{}, err
	}
	q := r.URL.Query()
	return model.Location{
		Latitude:    lat,
		Longitude:   lon,
		City:        strings.TrimSpace(q.Get("city")),
		CountryCode: strings.ToUpper(strings.TrimSpace(q.Get("country"))),
	}, nil
}

func writeOutcomeError(w http.ResponseWriter, out *pipeline.Outcome, err error) {
	status := http.StatusInternalServerError
	var nvd *model.NoValidDataError
	if errors.As(err, &nvd) {
		status = http.StatusBadGateway
	}
	body := map[string]any{"error": err.Error()}
	if out != nil && out.Report != nil {
		body["report"] = out.Report
	}
	writeJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
