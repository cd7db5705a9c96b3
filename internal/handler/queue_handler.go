package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"atlas-sync-engine/internal/domain"
	"atlas-sync-engine/internal/repository"
	"atlas-sync-engine/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

type QueueHandler struct {
	queue    repository.QueueRepository
	validate *validator.Validate
}

func NewQueueHandler(queue repository.QueueRepository) *QueueHandler {
	return &QueueHandler{
		queue:    queue,
		validate: validator.New(),
	}
}

func (h *QueueHandler) Enqueue(w http.ResponseWriter, r *http.Request) {
	var req domain.EnqueueMutationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	mutation, err := h.queue.Add(req.Category, req.RecordID, req.Op, req.Payload)
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Created(w, mutation)
}

func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	mutations, err := h.queue.ListAll()
	if err != nil {
		response.InternalError(w, err.Error())
		return
	}

	response.Success(w, mutations)
}

func (h *QueueHandler) Remove(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid mutation id")
		return
	}

	if err := h.queue.Remove(id); err != nil {
		response.NotFound(w, err.Error())
		return
	}

	response.Success(w, map[string]int64{"removed": id})
}
