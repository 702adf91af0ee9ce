package handler

import (
	"net/http"

	"github.com/shefaa-icu/internal/application/dashboard"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

type DashboardHandler struct {
	svc dashboard.Service
}

func NewDashboardHandler(svc dashboard.Service) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.Summary(r.Context(), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", sum)
}
