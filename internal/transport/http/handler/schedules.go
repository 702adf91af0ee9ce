package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/application/report"
	"github.com/shefaa-icu/internal/application/schedule"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

// ScheduleHandler serves the weekly roster, conflict checks and report export.
type ScheduleHandler struct {
	svc     schedule.Service
	reports report.Service
}

func NewScheduleHandler(svc schedule.Service, reports report.Service) *ScheduleHandler {
	return &ScheduleHandler{svc: svc, reports: reports}
}

// dateParam returns the date query parameter, defaulting to today.
func dateParam(r *http.Request) string {
	if d := r.URL.Query().Get("date"); d != "" {
		return d
	}
	return time.Now().Format(domain.DateLayout)
}

func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	week, err := h.svc.Week(r.Context(), dateParam(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", week)
}

func (h *ScheduleHandler) Day(w http.ResponseWriter, r *http.Request) {
	day, err := h.svc.Day(r.Context(), dateParam(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", day)
}

func (h *ScheduleHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	var req domain.ConflictCheckRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.CheckConflicts(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", res)
}

func (h *ScheduleHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.SaveSchedule(r.Context(), req, middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeScheduleResult(w, res, http.StatusCreated, "schedule saved")
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateEntryRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateEntry(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeScheduleResult(w, res, http.StatusOK, "schedule updated")
}

// writeScheduleResult reports a pending confirmation as a successful
// non-mutating response so the client can ask the user and resend with confirm.
func writeScheduleResult(w http.ResponseWriter, res *domain.ScheduleResult, status int, msg string) {
	if res.RequiresConfirmation {
		writeData(w, http.StatusOK, "confirmation required", res)
		return
	}
	writeData(w, status, msg, res)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "schedule entry deleted", nil)
}

// Export streams the weekly report as a standalone HTML page or a PDF file.
func (h *ScheduleHandler) Export(w http.ResponseWriter, r *http.Request) {
	date := dateParam(r)
	format := r.URL.Query().Get("format")
	var (
		body        []byte
		err         error
		contentType string
	)
	switch format {
	case "", domain.ReportHTML:
		format = domain.ReportHTML
		contentType = "text/html; charset=utf-8"
		body, err = h.reports.WeeklyHTML(r.Context(), date)
	case domain.ReportPDF:
		contentType = "application/pdf"
		body, err = h.reports.WeeklyPDF(r.Context(), date)
	default:
		writeError(w, http.StatusBadRequest, "format must be one of [html pdf]")
		return
	}
	if err != nil {
		httpError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="schedule-`+date+`.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *ScheduleHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req domain.ExportRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format(domain.DateLayout)
	}
	res, err := h.reports.Archive(r.Context(), req.Date, req.Format)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "report archived", res)
}
