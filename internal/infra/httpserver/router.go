package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appai "github.com/bryanwahyu/chat-insight/internal/application/ai"
	appanalysis "github.com/bryanwahyu/chat-insight/internal/application/analysis"
	appschedule "github.com/bryanwahyu/chat-insight/internal/application/schedule"
	domainai "github.com/bryanwahyu/chat-insight/internal/domain/ai"
	domain "github.com/bryanwahyu/chat-insight/internal/domain/analysis"
	domainschedule "github.com/bryanwahyu/chat-insight/internal/domain/schedule"
	infraai "github.com/bryanwahyu/chat-insight/internal/infra/ai"
	"github.com/bryanwahyu/chat-insight/internal/infra/settings"
	"github.com/bryanwahyu/chat-insight/internal/middleware"
)

type Router struct {
	analysisSvc *appanalysis.Service
	batch       *appanalysis.Coordinator
	scheduler   *appschedule.Scheduler
	invoker     *appai.Service
	store       *settings.Store
	gateway     domain.ChatGateway
}

func NewRouter(
	analysisSvc *appanalysis.Service,
	batch *appanalysis.Coordinator,
	scheduler *appschedule.Scheduler,
	invoker *appai.Service,
	store *settings.Store,
	gateway domain.ChatGateway,
	checkers map[string]middleware.HealthChecker,
) http.Handler {
	r := &Router{
		analysisSvc: analysisSvc,
		batch:       batch,
		scheduler:   scheduler,
		invoker:     invoker,
		store:       store,
		gateway:     gateway,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Post("/ai-analysis", r.wrap(r.handleAnalyze))

		rt.Post("/batch-analysis", r.wrap(r.handleBatchStart))
		rt.Post("/batch-analysis/cancel", r.wrap(r.handleBatchCancel))
		rt.Get("/batch-analysis/status", r.wrap(r.handleBatchStatus))

		rt.Get("/analysis-history", r.wrap(r.handleHistoryList))
		rt.Get("/analysis-history/{id}", r.wrap(r.handleHistoryGet))
		rt.Delete("/analysis-history/{id}", r.wrap(r.handleHistoryDelete))

		rt.Get("/scheduled-analysis", r.wrap(r.handleScheduleGet))
		rt.Put("/scheduled-analysis", r.wrap(r.handleSchedulePut))
		rt.Get("/scheduled-analysis-status", r.wrap(r.handleScheduleStatus))
		rt.Post("/trigger-scheduled-analysis", r.wrap(r.handleScheduleTrigger))
		rt.Post("/validate-cron", r.wrap(r.handleValidateCron))

		rt.Post("/test-model", r.wrap(r.handleTestModel))
		rt.Get("/status", r.wrap(r.handleStatus))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrValidation):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domain.ErrBatchRunning):
				http.Error(w, err.Error(), http.StatusConflict)
			case errors.Is(err, domain.ErrBatchEmpty):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, domainai.ErrRateLimited):
				http.Error(w, err.Error(), http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /api/ai-analysis
// Runs the full pipeline for one inline profile. Pipeline failures come
// back as {success:false, error, suggestions}, never as a 5xx.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		ConversationID string `json:"conversationId"`
		DisplayName    string `json:"displayName"`
		AnalysisType   string `json:"analysisType"`
		CustomPrompt   string `json:"customPrompt"`
		TimeRange      string `json:"timeRange"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if body.ConversationID == "" {
		return fmt.Errorf("%w: conversationId is required", domain.ErrValidation)
	}

	res, err := r.analysisSvc.RunUntilDone(domain.Request{
		ConversationID: body.ConversationID,
		DisplayName:    body.DisplayName,
		TimeRange:      body.TimeRange,
		AnalysisType:   body.AnalysisType,
		CustomPrompt:   body.CustomPrompt,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			middleware.IncrementAnalysesSkipped()
			return writeJSON(w, map[string]any{
				"success": false,
				"reason":  "no data",
				"error":   "no chat data found; check the time range and conversation id",
			})
		}
		middleware.IncrementAnalysesFailed()
		return writeJSON(w, map[string]any{
			"success":     false,
			"error":       err.Error(),
			"suggestions": appai.Suggestion(err),
		})
	}

	middleware.IncrementAnalyses()
	return writeJSON(w, map[string]any{
		"success":   true,
		"historyId": res.HistoryID,
		"title":     res.Title,
		"metadata":  res,
	})
}

// POST /api/batch-analysis
func (r *Router) handleBatchStart(w http.ResponseWriter, req *http.Request) error {
	profiles := r.store.Profiles()
	jobID, err := r.batch.Start(profiles, false)
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{
		"status": "queued",
		"jobId":  jobID,
		"total":  len(profiles),
	})
}

// POST /api/batch-analysis/cancel
func (r *Router) handleBatchCancel(w http.ResponseWriter, req *http.Request) error {
	cancelled := r.batch.Cancel()
	return writeJSON(w, map[string]any{"cancelled": cancelled})
}

// GET /api/batch-analysis/status
func (r *Router) handleBatchStatus(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, r.batch.Status())
}

// GET /api/analysis-history
func (r *Router) handleHistoryList(w http.ResponseWriter, req *http.Request) error {
	list, err := r.analysisSvc.List(req.Context())
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.HistoryRecord{}
	}
	return writeJSON(w, map[string]any{"success": true, "history": list})
}

// GET /api/analysis-history/{id}
func (r *Router) handleHistoryGet(w http.ResponseWriter, req *http.Request) error {
	rec, err := r.analysisSvc.Get(req.Context(), domain.HistoryID(chi.URLParam(req, "id")))
	if err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"success": true, "data": rec})
}

// DELETE /api/analysis-history/{id}
func (r *Router) handleHistoryDelete(w http.ResponseWriter, req *http.Request) error {
	if err := r.analysisSvc.Delete(req.Context(), domain.HistoryID(chi.URLParam(req, "id"))); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"success": true, "message": "analysis record deleted"})
}

// GET /api/scheduled-analysis
func (r *Router) handleScheduleGet(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, r.store.Schedule())
}

// PUT /api/scheduled-analysis
// Replaces the schedule document wholesale; the scheduler reconfigures via
// the settings subscription.
func (r *Router) handleSchedulePut(w http.ResponseWriter, req *http.Request) error {
	var cfg domainschedule.Config
	if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := r.store.SetSchedule(cfg); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"success": true, "schedule": cfg})
}

// GET /api/scheduled-analysis-status
func (r *Router) handleScheduleStatus(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, map[string]any{
		"schedule": r.scheduler.Status(),
		"batch":    r.batch.Status(),
	})
}

// POST /api/trigger-scheduled-analysis
func (r *Router) handleScheduleTrigger(w http.ResponseWriter, req *http.Request) error {
	if err := r.scheduler.TriggerNow(); err != nil {
		return err
	}
	return writeJSON(w, map[string]any{"success": true, "message": "scheduled analysis started"})
}

// POST /api/validate-cron
func (r *Router) handleValidateCron(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Expression string `json:"expression"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := domainschedule.ValidateCron(body.Expression); err != nil {
		return writeJSON(w, map[string]any{"valid": false, "error": err.Error()})
	}
	return writeJSON(w, map[string]any{"valid": true})
}

// POST /api/test-model
// Probes a candidate provider/model/credential with a single short call.
func (r *Router) handleTestModel(w http.ResponseWriter, req *http.Request) error {
	var cfg domainai.Config
	if err := json.NewDecoder(req.Body).Decode(&cfg); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	provider, err := infraai.New(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	reply, err := r.invoker.Probe(req.Context(), provider)
	if err != nil {
		return writeJSON(w, map[string]any{
			"success":     false,
			"error":       err.Error(),
			"suggestions": appai.Suggestion(err),
		})
	}
	return writeJSON(w, map[string]any{
		"success":  true,
		"provider": provider.Name(),
		"response": reply,
	})
}

// GET /api/status
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	if err := r.gateway.Ping(req.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		return json.NewEncoder(w).Encode(map[string]any{
			"status":  "disconnected",
			"message": "chatlog service not reachable; make sure it is running on port 5030",
		})
	}
	return writeJSON(w, map[string]any{
		"status":   "connected",
		"message":  "chatlog service is reachable",
		"provider": r.invoker.ProviderName(),
	})
}
