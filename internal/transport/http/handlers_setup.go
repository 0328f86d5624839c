package httptransport

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	offendermodels "supervision/internal/offender/models"
	offenderservice "supervision/internal/offender/service"
	"supervision/internal/transport/http/shared"
	id "supervision/pkg/domain"
	dErrors "supervision/pkg/domain-errors"
)

// SetupService is the offender workflow surface the handler needs.
type SetupService interface {
	StartSetup(ctx context.Context, input offenderservice.StartSetupInput) (*offenderservice.StartSetupResult, error)
	MarkSetupStarted(ctx context.Context, setupID id.SetupID) error
	CompleteSetup(ctx context.Context, setupID id.SetupID) (*offendermodels.Offender, error)
	TerminateSetup(ctx context.Context, setupID id.SetupID) (*offendermodels.Offender, error)
	GetOffender(ctx context.Context, offenderID id.OffenderID) (*offendermodels.Offender, error)
	ListOffenders(ctx context.Context, limit, offset int) ([]*offendermodels.Offender, error)
	OffenderPhotoURL(ctx context.Context, offenderID id.OffenderID) (string, error)
}

// SetupHandler exposes the setup workflow and offender reads.
type SetupHandler struct {
	service SetupService
}

func NewSetupHandler(service SetupService) *SetupHandler {
	return &SetupHandler{service: service}
}

// Register mounts the setup and offender routes.
func (h *SetupHandler) Register(r chi.Router) {
	r.Post("/setups", h.handleStart)
	r.Post("/setups/{setupID}/opened", h.handleOpened)
	r.Post("/setups/{setupID}/complete", h.handleComplete)
	r.Post("/setups/{setupID}/terminate", h.handleTerminate)

	r.Get("/offenders", h.handleList)
	r.Get("/offenders/{offenderID}", h.handleGet)
	r.Get("/offenders/{offenderID}/photo-url", h.handlePhotoURL)
}

type startSetupRequest struct {
	CRN          string    `json:"crn"`
	FirstCheckin time.Time `json:"first_checkin"`
	Interval     string    `json:"checkin_interval"`
}

type startSetupResponse struct {
	SetupID  id.SetupID               `json:"setup_id"`
	Offender *offendermodels.Offender `json:"offender"`
}

func (h *SetupHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startSetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	result, err := h.service.StartSetup(r.Context(), offenderservice.StartSetupInput{
		CRN:          req.CRN,
		FirstCheckin: req.FirstCheckin,
		Interval:     req.Interval,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, startSetupResponse{
		SetupID:  result.Setup.ID,
		Offender: result.Offender,
	})
}

func (h *SetupHandler) handleOpened(w http.ResponseWriter, r *http.Request) {
	setupID, err := id.ParseSetupID(chi.URLParam(r, "setupID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.service.MarkSetupStarted(r.Context(), setupID); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SetupHandler) handleComplete(w http.ResponseWriter, r *http.Request) {
	setupID, err := id.ParseSetupID(chi.URLParam(r, "setupID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	offender, err := h.service.CompleteSetup(r.Context(), setupID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, offender)
}

func (h *SetupHandler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	setupID, err := id.ParseSetupID(chi.URLParam(r, "setupID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	offender, err := h.service.TerminateSetup(r.Context(), setupID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, offender)
}

func (h *SetupHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	offenderID, err := id.ParseOffenderID(chi.URLParam(r, "offenderID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	offender, err := h.service.GetOffender(r.Context(), offenderID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, offender)
}

func (h *SetupHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	offenders, err := h.service.ListOffenders(r.Context(), limit, offset)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if offenders == nil {
		offenders = []*offendermodels.Offender{}
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"offenders": offenders})
}

func (h *SetupHandler) handlePhotoURL(w http.ResponseWriter, r *http.Request) {
	offenderID, err := id.ParseOffenderID(chi.URLParam(r, "offenderID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	url, err := h.service.OffenderPhotoURL(r.Context(), offenderID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if url == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no reference photo"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
