package handler

import (
	"encoding/json"
	"net/http"

	"atlas-sync-engine/internal/domain"
	"atlas-sync-engine/internal/service"
	"atlas-sync-engine/pkg/response"

	"github.com/go-playground/validator/v10"
)

type DeviceHandler struct {
	service  *service.DeviceService
	validate *validator.Validate
}

func NewDeviceHandler(deviceService *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		service:  deviceService,
		validate: validator.New(),
	}
}

func (h *DeviceHandler) Pair(w http.ResponseWriter, r *http.Request) {
	var req domain.PairDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	device, err := h.service.Pair(&req)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, device)
}

func (h *DeviceHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyPairingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.service.Verify(&req); err != nil {
		response.Error(w, http.StatusUnauthorized, "pairing code rejected")
		return
	}

	response.Success(w, map[string]bool{"verified": true})
}
