package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"operators-vault-go/internal/audio"
	"operators-vault-go/internal/catalog"
	"operators-vault-go/internal/insight"
	"operators-vault-go/internal/jobs"
	"operators-vault-go/internal/llm"
	"operators-vault-go/internal/logger"
	"operators-vault-go/internal/pipeline"
	"operators-vault-go/internal/search"
	"operators-vault-go/internal/store/postgres"
	"operators-vault-go/internal/transcribe"
	"operators-vault-go/internal/types"
)

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "operators-vault-go").Info("starting service")

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := postgres.Connect(ctx, dsn)
	if err != nil {
		log.WithError(err).Fatal("postgres connect failed")
	}
	videos := postgres.NewVideoRepo(db)
	transcripts := postgres.NewTranscriptRepo(db)
	insights := postgres.NewInsightRepo(db)

	// Optional collaborators: endpoints that need one report the missing
	// configuration instead of the whole service refusing to start.
	idx, err := search.New()
	if err != nil {
		log.WithError(err).Warn("search index not configured")
		idx = nil
	}
	discovery, err := catalog.NewYouTube()
	if err != nil {
		log.WithError(err).Warn("video discovery not configured")
		discovery = nil
	}

	var proc *pipeline.Processor
	var procErr error
	dg, dgErr := transcribe.New()
	anthropic, llmErr := llm.New()
	switch {
	case dgErr != nil:
		procErr = dgErr
	case llmErr != nil:
		procErr = llmErr
	default:
		extractor := insight.NewEnricher(anthropic)
		var index pipeline.InsightIndex
		if idx != nil {
			index = idx
		}
		var disc pipeline.Discovery
		if discovery != nil {
			disc = discovery
		}
		proc = pipeline.New(audio.NewDownloader(), dg, extractor, videos, transcripts, insights, index, disc)
	}
	if procErr != nil {
		log.WithError(procErr).Warn("pipeline not configured")
	}

	registry := jobs.NewRegistry()

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		checks := map[string]string{
			"database":    "ok",
			"deepgram":    okOrMissing(os.Getenv("DEEPGRAM_API_KEY") != ""),
			"anthropic":   okOrMissing(os.Getenv("ANTHROPIC_API_KEY") != ""),
			"youtube":     okOrMissing(os.Getenv("YOUTUBE_API_KEY") != ""),
			"meilisearch": okOrMissing(os.Getenv("MEILISEARCH_HOST") != "" && os.Getenv("MEILISEARCH_API_KEY") != ""),
		}
		if err := db.PingContext(r.Context()); err != nil {
			checks["database"] = "error: " + err.Error()
		}
		status := "ok"
		for _, v := range checks {
			if v != "ok" {
				status = "degraded"
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": status, "checks": checks})
	})

	// process one video synchronously
	mux.HandleFunc("/process", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "process")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if proc == nil {
			http.Error(w, "pipeline not configured: "+procErr.Error(), http.StatusServiceUnavailable)
			return
		}
		var req struct {
			VideoID string `json:"video_id"`
			Podcast string `json:"podcast"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.VideoID == "" {
			http.Error(w, "missing video_id", http.StatusBadRequest)
			return
		}
		if req.Podcast == "" {
			req.Podcast = types.Podcast9Operators
		}
		reqLog = reqLog.WithField("video_id", req.VideoID).WithField("podcast", req.Podcast)
		reqLog.Info("process request received")

		start := time.Now()
		err := proc.Process(r.Context(), req.VideoID, req.Podcast)
		reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).Info("processor finished")
		if err != nil {
			reqLog.WithError(err).Warn("processing failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "video_id": req.VideoID, "podcast": req.Podcast})
	})

	// bulk seed link ingestion
	mux.HandleFunc("/seed-links", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "seed-links")
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var rows []types.SeedLink
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		n, err := videos.UpsertSeedLinks(r.Context(), rows)
		if err != nil {
			reqLog.WithError(err).Error("seed link upsert failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
			return
		}
		reqLog.WithField("upserted", n).Info("seed links upserted")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "upserted": n})
	})

	// async batch jobs
	mux.HandleFunc("/sync", func(w http.ResponseWriter, r *http.Request) {
		submitJob(w, r, registry, jobs.KindSync, proc, procErr, func() (any, error) {
			return proc.Sync(context.Background(), 50)
		})
	})
	mux.HandleFunc("/process-new", func(w http.ResponseWriter, r *http.Request) {
		submitJob(w, r, registry, jobs.KindProcessNew, proc, procErr, func() (any, error) {
			return proc.ProcessNew(context.Background())
		})
	})
	mux.HandleFunc("/backfill", func(w http.ResponseWriter, r *http.Request) {
		submitJob(w, r, registry, jobs.KindBackfill, proc, procErr, func() (any, error) {
			return proc.Backfill(context.Background())
		})
	})

	mux.HandleFunc("/jobs", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		if id == "" {
			http.Error(w, "missing id", http.StatusBadRequest)
			return
		}
		view, ok := registry.Get(id)
		if !ok {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, view)
	})

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		reqLog := logger.New().WithRequest(r).WithField("handler", "search")
		if idx == nil {
			http.Error(w, "MEILISEARCH_HOST or MEILISEARCH_API_KEY not set", http.StatusServiceUnavailable)
			return
		}
		q := r.URL.Query()
		limit, _ := strconv.ParseInt(q.Get("limit"), 10, 64)
		res, err := idx.Query(q.Get("q"), q.Get("podcast"), q.Get("category"), q.Get("video_id"), limit)
		if err != nil {
			reqLog.WithError(err).Error("search failed")
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"query": q.Get("q"),
			"total": res.EstimatedTotalHits,
			"hits":  res.Hits,
		})
	})

	addr := fmt.Sprintf(":%s", envOr("PORT", "8080"))
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// Synchronous /process runs download + transcription + LLM calls;
		// handlers bound their own timeouts instead of the server.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

func submitJob(w http.ResponseWriter, r *http.Request, registry *jobs.Registry, kind string,
	proc *pipeline.Processor, procErr error, fn func() (any, error)) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if proc == nil {
		http.Error(w, "pipeline not configured: "+procErr.Error(), http.StatusServiceUnavailable)
		return
	}
	id := registry.Submit(kind, fn)
	logger.New().WithRequest(r).WithField("job_id", id).WithField("type", kind).Info("job submitted")
	writeJSON(w, http.StatusAccepted, map[string]any{"job_id": id, "status": jobs.StatusRunning})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func okOrMissing(ok bool) string {
	if ok {
		return "ok"
	}
	return "missing configuration"
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
