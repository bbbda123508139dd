package progress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/marathon/internal/errs"
	"github.com/2beens/marathon/internal/marathon"
	"github.com/2beens/marathon/internal/telemetry/metrics"
	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=progress_test

type service interface {
	MarkComplete(ctx context.Context, userID string, marathonID int64, dayNumber int, exerciseID string) (*ExerciseProgress, error)
	Summary(ctx context.Context, userID string, marathonID int64) (*Summary, error)
}

type Handler struct {
	service        service
	metricsManager *metrics.Manager
}

func NewHandler(service service, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service:        service,
		metricsManager: metricsManager,
	}
}

type MarkCompleteRequest struct {
	UserID     string `json:"userId"`
	MarathonID int64  `json:"marathonId"`
	DayNumber  int    `json:"dayNumber"`
	ExerciseID string `json:"exerciseId"`
}

func (h *Handler) HandleMarkComplete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.markcomplete")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var req MarkCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("mark complete, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := h.service.MarkComplete(ctx, req.UserID, req.MarathonID, req.DayNumber, req.ExerciseID)
	if err != nil {
		writeError(w, "mark complete", err)
		return
	}
	if h.metricsManager != nil {
		h.metricsManager.CounterProgressMarked.Inc()
	}

	pkg.WriteJSON(w, p, http.StatusCreated)
}

func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.progress.summary")
	defer span.End()

	vars := mux.Vars(r)
	userID := vars["userId"]
	marathonID, err := strconv.ParseInt(vars["marathonId"], 10, 64)
	if err != nil || userID == "" {
		http.Error(w, "invalid user or marathon id", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Summary(ctx, userID, marathonID)
	if err != nil {
		writeError(w, "progress summary", err)
		return
	}

	pkg.WriteJSON(w, summary, http.StatusOK)
}

func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, marathon.ErrMarathonNotFound):
		http.Error(w, "marathon not found", http.StatusNotFound)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}
