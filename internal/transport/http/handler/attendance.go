package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/application/attendance"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

// AttendanceHandler handles check-in, check-out and attendance listings.
type AttendanceHandler struct {
	svc attendance.Service
}

func NewAttendanceHandler(svc attendance.Service) *AttendanceHandler {
	return &AttendanceHandler{svc: svc}
}

func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	log, err := h.svc.CheckIn(r.Context(), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "checked in", log)
}

func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	log, err := h.svc.CheckOut(r.Context(), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "checked out", log)
}

func (h *AttendanceHandler) ListByDate(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.ListByDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", logs)
}

func (h *AttendanceHandler) ListByStaff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := h.svc.ListByStaff(r.Context(), chi.URLParam(r, "id"), q.Get("from"), q.Get("to"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", logs)
}
