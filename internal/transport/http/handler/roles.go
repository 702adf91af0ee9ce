package handler

import (
	"net/http"

	"github.com/shefaa-icu/internal/application/role"
)

// RoleHandler lists the fixed staff roles.
type RoleHandler struct {
	svc role.Service
}

func NewRoleHandler(svc role.Service) *RoleHandler { return &RoleHandler{svc: svc} }

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", h.svc.List(r.Context()))
}
