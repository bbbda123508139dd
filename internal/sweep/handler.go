package sweep

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=sweep_test

type sweepRunner interface {
	RunSweep(ctx context.Context, asOf time.Time) (*Report, error)
}

type Handler struct {
	runner   sweepRunner
	location *time.Location
	now      func() time.Time
}

func NewHandler(runner sweepRunner, location *time.Location) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		runner:   runner,
		location: location,
		now:      time.Now,
	}
}

func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Today is the current calendar date in the given location.
func Today(location *time.Location, now time.Time) time.Time {
	return pkg.DateOf(now.In(location))
}

// HandleSweep runs a sweep for the asOf query date, today if not given.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.sweep")
	defer span.End()

	asOf := Today(h.location, h.now())
	if asOfParam := r.URL.Query().Get("asOf"); asOfParam != "" {
		parsed, err := pkg.ParseDate(asOfParam)
		if err != nil {
			http.Error(w, "invalid asOf date, expected YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		asOf = parsed
	}

	report, err := h.runner.RunSweep(ctx, asOf)
	if err != nil {
		if errors.Is(err, ErrSweepRunning) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		log.Errorf("manual sweep as of %s: %s", pkg.FormatDate(asOf), err)
		http.Error(w, "sweep failed", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, report, http.StatusOK)
}
