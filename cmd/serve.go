package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapline/visitplanner/internal/dedup"
	"github.com/tapline/visitplanner/internal/model"
	"github.com/tapline/visitplanner/internal/postcode"
	"github.com/tapline/visitplanner/internal/schedule"
	"github.com/tapline/visitplanner/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

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

// planRequest mirrors the plan command's flags for API callers.
type planRequest struct {
	StartDate         string `json:"start_date"`
	BusinessDays      int    `json:"business_days"`
	VisitsPerDay      int    `json:"visits_per_day"`
	HomePostcode      string `json:"home_postcode"`
	SearchRadiusMiles int    `json:"search_radius_miles"`
	LegacyDistance    bool   `json:"legacy_distance"`
	ListType          string `json:"list_type"`
}

func newRouter(st store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/pubs", func(w http.ResponseWriter, req *http.Request) {
		limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
		pubs, err := st.ListPubs(req.Context(), store.PubFilter{
			ListType: model.ListType(req.URL.Query().Get("list_type")),
			Limit:    limit,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		if pubs == nil {
			pubs = []model.Pub{}
		}
		writeJSON(w, http.StatusOK, pubs)
	})

	r.Post("/dedup/suggest", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Incoming []model.Pub `json:"incoming"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request"))
			return
		}
		existing, err := st.ListPubs(req.Context(), store.PubFilter{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, dedup.SuggestWith(dedupConfig(), existing, body.Incoming))
	})

	r.Post("/plan", func(w http.ResponseWriter, req *http.Request) {
		var body planRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request"))
			return
		}

		opts := schedule.Options{
			BusinessDays:      body.BusinessDays,
			VisitsPerDay:      body.VisitsPerDay,
			HomePostcode:      body.HomePostcode,
			SearchRadiusMiles: body.SearchRadiusMiles,
			StartDate:         time.Now(),
		}
		if body.StartDate != "" {
			start, err := time.Parse("2006-01-02", body.StartDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, eris.Wrapf(err, "parse start_date %q", body.StartDate))
				return
			}
			opts.StartDate = start
		}
		if opts.BusinessDays <= 0 {
			opts.BusinessDays = 5
		}
		if opts.VisitsPerDay <= 0 {
			opts.VisitsPerDay = 6
		}
		if body.LegacyDistance {
			opts.Distance = postcode.PrefixProvider{}
		}

		pubs, err := st.ListPubs(req.Context(), store.PubFilter{ListType: model.ListType(body.ListType)})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		days, summary := schedule.Plan(pubs, opts)
		if days == nil {
			days = []model.ScheduleDay{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"days":    days,
			"summary": summary,
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Error("request failed", zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
