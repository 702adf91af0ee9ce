package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/application/room"
	"github.com/shefaa-icu/internal/domain"
)

// RoomHandler handles ICU room endpoints.
type RoomHandler struct {
	svc room.Service
}

func NewRoomHandler(svc room.Service) *RoomHandler { return &RoomHandler{svc: svc} }

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.List(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", rooms)
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	rm, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", rm)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateRoomRequest
	if !decode(w, r, &req) {
		return
	}
	rm, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "room created", rm)
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRoomRequest
	if !decode(w, r, &req) {
		return
	}
	rm, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "room updated", rm)
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "room deleted", nil)
}

func (h *RoomHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req domain.AssignPatientRequest
	if !decode(w, r, &req) {
		return
	}
	rm, err := h.svc.AssignPatient(r.Context(), chi.URLParam(r, "id"), req.PatientID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "patient assigned", rm)
}

func (h *RoomHandler) Release(w http.ResponseWriter, r *http.Request) {
	rm, err := h.svc.Release(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "room released", rm)
}
