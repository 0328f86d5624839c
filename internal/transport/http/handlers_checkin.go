package httptransport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	checkinmodels "supervision/internal/checkin/models"
	checkinservice "supervision/internal/checkin/service"
	"supervision/internal/transport/http/shared"
	"supervision/internal/verification"
	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
)

// CheckinService is the lifecycle surface the handler needs.
type CheckinService interface {
	Submit(ctx context.Context, input checkinservice.SubmitInput) (*checkinmodels.Checkin, error)
	StartReview(ctx context.Context, checkinID id.CheckinID) (*checkinmodels.Checkin, error)
	Review(ctx context.Context, input checkinservice.ReviewInput) (*checkinmodels.Checkin, error)
	GetCheckin(ctx context.Context, checkinID id.CheckinID) (*checkinmodels.Checkin, error)
	ListByOffender(ctx context.Context, offenderID id.OffenderID, limit, offset int) ([]*checkinmodels.Checkin, error)
}

// CheckinHandler exposes the check-in lifecycle.
type CheckinHandler struct {
	service CheckinService
}

func NewCheckinHandler(service CheckinService) *CheckinHandler {
	return &CheckinHandler{service: service}
}

// Register mounts the check-in routes.
func (h *CheckinHandler) Register(r chi.Router) {
	r.Post("/checkins/{checkinID}/submit", h.handleSubmit)
	r.Post("/checkins/{checkinID}/review/start", h.handleStartReview)
	r.Post("/checkins/{checkinID}/review", h.handleReview)
	r.Get("/checkins/{checkinID}", h.handleGet)
	r.Get("/offenders/{offenderID}/checkins", h.handleListByOffender)
}

type submitRequest struct {
	SnapshotKeys []string        `json:"snapshot_keys"`
	Survey       json.RawMessage `json:"survey"`
}

func (h *CheckinHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	checkinID, err := id.ParseCheckinID(chi.URLParam(r, "checkinID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	checkin, err := h.service.Submit(r.Context(), checkinservice.SubmitInput{
		CheckinID:    checkinID,
		SnapshotKeys: req.SnapshotKeys,
		Survey:       req.Survey,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, checkin)
}

func (h *CheckinHandler) handleStartReview(w http.ResponseWriter, r *http.Request) {
	checkinID, err := id.ParseCheckinID(chi.URLParam(r, "checkinID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	checkin, err := h.service.StartReview(r.Context(), checkinID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, checkin)
}

type reviewRequest struct {
	ManualIDCheck string `json:"manual_id_check"`
}

func (h *CheckinHandler) handleReview(w http.ResponseWriter, r *http.Request) {
	checkinID, err := id.ParseCheckinID(chi.URLParam(r, "checkinID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	manual, err := verification.ParseOutcome(req.ManualIDCheck)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	checkin, err := h.service.Review(r.Context(), checkinservice.ReviewInput{
		CheckinID:     checkinID,
		ManualIDCheck: manual,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, checkin)
}

func (h *CheckinHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	checkinID, err := id.ParseCheckinID(chi.URLParam(r, "checkinID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	checkin, err := h.service.GetCheckin(r.Context(), checkinID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, checkin)
}

func (h *CheckinHandler) handleListByOffender(w http.ResponseWriter, r *http.Request) {
	offenderID, err := id.ParseOffenderID(chi.URLParam(r, "offenderID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	limit, offset := pagination(r)
	checkins, err := h.service.ListByOffender(r.Context(), offenderID, limit, offset)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if checkins == nil {
		checkins = []*checkinmodels.Checkin{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"checkins": checkins})
}
