package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/application/staff"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

// StaffHandler handles staff directory endpoints.
type StaffHandler struct {
	svc staff.Service
}

func NewStaffHandler(svc staff.Service) *StaffHandler { return &StaffHandler{svc: svc} }

func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.List(r.Context(), q.Get("role"), q.Get("include_inactive") == "true")
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", list)
}

func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", st)
}

func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateStaffRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "staff created", st)
}

func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateStaffRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "staff updated", st)
}

func (h *StaffHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Deactivate(r.Context(), chi.URLParam(r, "id"), middleware.StaffID(r)); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "staff deactivated", nil)
}

func (h *StaffHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Reactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "staff reactivated", nil)
}
