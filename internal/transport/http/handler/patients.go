package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shefaa-icu/internal/application/clinical"
	"github.com/shefaa-icu/internal/application/patient"
	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/transport/http/middleware"
)

// PatientHandler handles admissions and the clinical record of a patient.
type PatientHandler struct {
	svc      patient.Service
	clinical clinical.Service
}

func NewPatientHandler(svc patient.Service, clinicalSvc clinical.Service) *PatientHandler {
	return &PatientHandler{svc: svc, clinical: clinicalSvc}
}

func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.svc.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", patients)
}

func (h *PatientHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", p)
}

func (h *PatientHandler) Admit(w http.ResponseWriter, r *http.Request) {
	var req domain.AdmitPatientRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Admit(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "patient admitted", p)
}

func (h *PatientHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdatePatientRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "patient updated", p)
}

func (h *PatientHandler) Discharge(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Discharge(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "patient discharged", p)
}

func (h *PatientHandler) ListVitals(w http.ResponseWriter, r *http.Request) {
	vitals, err := h.clinical.ListVitals(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", vitals)
}

func (h *PatientHandler) RecordVitals(w http.ResponseWriter, r *http.Request) {
	var req domain.RecordVitalsRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := h.clinical.RecordVitals(r.Context(), chi.URLParam(r, "id"), req, middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	msg := "vitals recorded"
	if v.Abnormal {
		msg = "vitals recorded; abnormal readings flagged"
	}
	writeData(w, http.StatusCreated, msg, v)
}

func (h *PatientHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	meds, err := h.clinical.ListMedications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", meds)
}

func (h *PatientHandler) Prescribe(w http.ResponseWriter, r *http.Request) {
	var req domain.PrescribeRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.clinical.Prescribe(r.Context(), chi.URLParam(r, "id"), req, middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "medication prescribed", m)
}

func (h *PatientHandler) Administer(w http.ResponseWriter, r *http.Request) {
	m, err := h.clinical.Administer(r.Context(), chi.URLParam(r, "id"), middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "medication administered", m)
}

func (h *PatientHandler) StopMedication(w http.ResponseWriter, r *http.Request) {
	m, err := h.clinical.Stop(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "medication stopped", m)
}

func (h *PatientHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.clinical.ListNotes(r.Context(), chi.URLParam(r, "id"), queryInt(r, "limit"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", notes)
}

func (h *PatientHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req domain.AddNoteRequest
	if !decode(w, r, &req) {
		return
	}
	n, err := h.clinical.AddNote(r.Context(), chi.URLParam(r, "id"), req, middleware.StaffID(r))
	if err != nil {
		httpError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "note added", n)
}
