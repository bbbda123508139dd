package templates

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/marathon/internal/errs"
	"github.com/2beens/marathon/internal/telemetry/tracing"
	"github.com/2beens/marathon/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=templates_test

type templatesService interface {
	Register(ctx context.Context, t Template) (*Template, error)
	Get(ctx context.Context, templateType Type) (*Template, error)
	List(ctx context.Context) ([]Template, error)
	Preview(ctx context.Context, templateType Type, bindings map[string]string) (*Rendered, error)
}

type Handler struct {
	service templatesService
}

func NewHandler(service templatesService) *Handler {
	return &Handler{
		service: service,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.list")
	defer span.End()

	list, err := h.service.List(ctx)
	if err != nil {
		log.Errorf("list templates: %s", err)
		http.Error(w, "list templates failed", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSON(w, list, http.StatusOK)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.get")
	defer span.End()

	t, err := h.service.Get(ctx, Type(mux.Vars(r)["type"]))
	if err != nil {
		writeError(w, "get template", err)
		return
	}
	pkg.WriteJSON(w, t, http.StatusOK)
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.register")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var t Template
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		log.Errorf("register template, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	stored, err := h.service.Register(ctx, t)
	if err != nil {
		writeError(w, "register template", err)
		return
	}
	pkg.WriteJSON(w, stored, http.StatusOK)
}

type PreviewRequest struct {
	Bindings map[string]string `json:"bindings"`
}

func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.preview")
	defer span.End()

	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("preview template, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rendered, err := h.service.Preview(ctx, Type(mux.Vars(r)["type"]), req.Bindings)
	if err != nil {
		writeError(w, "preview template", err)
		return
	}
	pkg.WriteJSON(w, rendered, http.StatusOK)
}

func writeError(w http.ResponseWriter, op string, err error) {
	var (
		notFoundErr  *TemplateNotFoundError
		duplicateErr *DuplicateSlugError
	)
	switch {
	case errors.As(err, &notFoundErr):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &duplicateErr):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrTemplate):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s: %s", op, err)
		http.Error(w, op+" failed", http.StatusInternalServerError)
	}
}
