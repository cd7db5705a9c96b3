package handler

import (
	"errors"
	"net/http"

	"atlas-sync-engine/internal/service"
	"atlas-sync-engine/pkg/response"
)

type SyncHandler struct {
	orchestrator *service.Orchestrator
}

func NewSyncHandler(orchestrator *service.Orchestrator) *SyncHandler {
	return &SyncHandler{orchestrator: orchestrator}
}

func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orchestrator.Run(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrSyncInProgress) {
			response.Conflict(w, err.Error())
			return
		}
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, summary)
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]bool{"running": h.orchestrator.Running()})
}

func (h *SyncHandler) Last(w http.ResponseWriter, r *http.Request) {
	summary := h.orchestrator.LastRun()
	if summary == nil {
		response.NotFound(w, "no sync run has completed yet")
		return
	}

	response.Success(w, summary)
}
