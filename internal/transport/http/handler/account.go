package handler

import (
	"net/http"

	"github.com/shefaa-icu/internal/application/account"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

// AccountHandler serves sign-in, OTP registration and password reset.
type AccountHandler struct {
	svc account.Service
}

func NewAccountHandler(svc account.Service) *AccountHandler { return &AccountHandler{svc: svc} }

func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "signed in", res)
}

func (h *AccountHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req domain.GoogleLoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.GoogleLogin(r.Context(), req.IDToken)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "signed in", res)
}

func (h *AccountHandler) SendRegisterOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SendRegisterOtp(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification code sent", nil)
}

func (h *AccountHandler) VerifyRegisterOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.VerifyRegisterOtp(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "email verified", nil)
}

func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := h.svc.Register(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "account created", st)
}

func (h *AccountHandler) SendResetOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.EmailRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.SendResetOtp(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "verification code sent", nil)
}

func (h *AccountHandler) VerifyResetOtp(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.VerifyResetOtp(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "email verified", nil)
}

func (h *AccountHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ResetPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "password updated", nil)
}

func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Me(r.Context(), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", st)
}

func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.ChangePasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.svc.ChangePassword(r.Context(), middleware.StaffID(r), req); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "password updated", nil)
}
