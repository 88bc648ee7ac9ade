package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sheikh-saqib/jobs-ledger/internal/ledger"
	"github.com/sheikh-saqib/jobs-ledger/internal/response"
	"github.com/sheikh-saqib/jobs-ledger/internal/xerrors"
	"go.uber.org/zap"
)

type Handler struct {
	ledger *ledger.Ledger
	logger *zap.Logger
}

func NewHandler(l *ledger.Ledger, logger *zap.Logger) *Handler {
	return &Handler{ledger: l, logger: logger}
}

// Router returns the chi router serving the ledger API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.StripSlashes)

	// set before Route so the /v1 subrouter inherits them
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/jobs", h.CreateJob)
		r.Get("/jobs", h.ListJobs)
		r.Get("/jobs/{id}/transactions", h.TransactionsByJob)

		r.Post("/transactions", h.CreateTransaction)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}", h.GetTransaction)
		r.Post("/transactions/{id}/revise", h.Revise)
		r.Get("/transactions/{id}/revisions", h.CorrectionsOf)

		r.Get("/revisions", h.ListRevisions)

		r.Post("/seal-transactions", h.Seal)
		r.Get("/manifests", h.ListManifests)
		r.Get("/manifests/{id}/verify", h.VerifyManifest)
	})

	return r
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	var in ledger.JobInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.Name == "" {
		h.fail(w, r, fmt.Errorf("%w: name is required", xerrors.ErrInvalidRequest))
		return
	}

	job, err := h.ledger.CreateJob(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, job)
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.ledger.ListJobs(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, jobs)
}

func (h *Handler) TransactionsByJob(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txns, err := h.ledger.TransactionsByJob(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in ledger.TransactionInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	txn, err := h.ledger.CreateTransaction(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, txn)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.ledger.ListTransactions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	txn, err := h.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, txn)
}

func (h *Handler) Revise(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in ledger.ReviseInput
	if err := decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	rev, err := h.ledger.Revise(r.Context(), id, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, rev)
}

func (h *Handler) CorrectionsOf(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	revs, err := h.ledger.CorrectionsOf(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, revs)
}

func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := h.ledger.ListRevisions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, revs)
}

func (h *Handler) Seal(w http.ResponseWriter, r *http.Request) {
	manifest, err := h.ledger.Seal(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, manifest)
}

func (h *Handler) ListManifests(w http.ResponseWriter, r *http.Request) {
	manifests, err := h.ledger.ListManifests(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, manifests)
}

func (h *Handler) VerifyManifest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	v, err := h.ledger.VerifyManifest(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
}

// fail maps ledger errors onto HTTP statuses. Unexpected errors are logged
// and reported without detail.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, xerrors.ErrNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case xerrors.IsClientError(err):
		response.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", xerrors.ErrInvalidRequest, err)
	}
	return nil
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}
