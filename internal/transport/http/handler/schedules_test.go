package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shefaa-icu/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockScheduleSvc struct{ mock.Mock }

func (m *mockScheduleSvc) CheckConflicts(ctx context.Context, q domain.ConflictCheckRequest) (*domain.ConflictResult, error) {
	args := m.Called(ctx, q)
	if r, _ := args.Get(0).(*domain.ConflictResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleSvc) SaveSchedule(ctx context.Context, req domain.SaveScheduleRequest, actorID string) (*domain.ScheduleResult, error) {
	args := m.Called(ctx, req, actorID)
	if r, _ := args.Get(0).(*domain.ScheduleResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleSvc) UpdateEntry(ctx context.Context, entryID string, req domain.UpdateEntryRequest) (*domain.ScheduleResult, error) {
	args := m.Called(ctx, entryID, req)
	if r, _ := args.Get(0).(*domain.ScheduleResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleSvc) DeleteEntry(ctx context.Context, entryID string) error {
	return m.Called(ctx, entryID).Error(0)
}

func (m *mockScheduleSvc) Week(ctx context.Context, anyDate string) (*domain.WeekView, error) {
	args := m.Called(ctx, anyDate)
	if r, _ := args.Get(0).(*domain.WeekView); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockScheduleSvc) Day(ctx context.Context, date string) (*domain.DayView, error) {
	args := m.Called(ctx, date)
	if r, _ := args.Get(0).(*domain.DayView); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type stubReports struct {
	html    string
	pdfErr  error
	archive *domain.ReportArchive
	format  string
}

func (s *stubReports) WeeklyHTML(context.Context, string) ([]byte, error) {
	return []byte(s.html), nil
}

func (s *stubReports) WeeklyPDF(context.Context, string) ([]byte, error) {
	if s.pdfErr != nil {
		return nil, s.pdfErr
	}
	return []byte("%PDF"), nil
}

func (s *stubReports) Archive(_ context.Context, _, format string) (*domain.ReportArchive, error) {
	s.format = format
	return s.archive, nil
}

func TestCheckConflicts_ReturnsNames(t *testing.T) {
	svc := &mockScheduleSvc{}
	req := domain.ConflictCheckRequest{Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"}}
	svc.On("CheckConflicts", mock.Anything, req).Return(&domain.ConflictResult{
		Date: "2024-01-10", ShiftType: domain.ShiftMorning,
		Conflicts: []domain.StaffConflict{{StaffID: "S1", StaffName: "Dr. Amal", ShiftType: domain.ShiftMorning, EntryID: "E1"}},
	}, nil)
	h := NewScheduleHandler(svc, &stubReports{})

	rr := httptest.NewRecorder()
	h.CheckConflicts(rr, jsonReq(t, http.MethodPost, "/v1/schedules/check-conflicts", req))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Dr. Amal")
	svc.AssertExpectations(t)
}

func TestCheckConflicts_ValidationFailure(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleSvc{}, &stubReports{})
	req := domain.ConflictCheckRequest{Date: "10/01/2024", ShiftType: "Noon", StaffIDs: []string{"S1"}}

	rr := httptest.NewRecorder()
	h.CheckConflicts(rr, jsonReq(t, http.MethodPost, "/v1/schedules/check-conflicts", req))

	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestSave_RequiresConfirmation(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockScheduleSvc{}
	req := domain.SaveScheduleRequest{Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"}}
	svc.On("SaveSchedule", mock.Anything, req, "admin1").Return(&domain.ScheduleResult{RequiresConfirmation: true}, nil)
	h := NewScheduleHandler(svc, &stubReports{})

	rr := httptest.NewRecorder()
	serveAuthed(p, h.Save, rr, bearerReq(t, p, http.MethodPost, "/v1/schedules", "admin1", domain.RoleAdmin, req))

	assert.Equal(t, http.StatusOK, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.True(t, env.Success)
	assert.Equal(t, "confirmation required", env.Message)
	svc.AssertExpectations(t)
}

func TestSave_Created(t *testing.T) {
	p := newTestJWTProvider(t)
	svc := &mockScheduleSvc{}
	req := domain.SaveScheduleRequest{Date: "2024-01-10", ShiftType: domain.ShiftMorning, StaffIDs: []string{"S1"}, Confirm: true}
	svc.On("SaveSchedule", mock.Anything, req, "admin1").Return(&domain.ScheduleResult{
		Entries: []domain.ScheduleEntry{{EntryID: "E1", StaffID: "S1"}},
	}, nil)
	h := NewScheduleHandler(svc, &stubReports{})

	rr := httptest.NewRecorder()
	serveAuthed(p, h.Save, rr, bearerReq(t, p, http.MethodPost, "/v1/schedules", "admin1", domain.RoleAdmin, req))

	assert.Equal(t, http.StatusCreated, rr.Code)
	svc.AssertExpectations(t)
}

func TestUpdate_Conflict(t *testing.T) {
	svc := &mockScheduleSvc{}
	req := domain.UpdateEntryRequest{Date: "2024-01-10", ShiftType: domain.ShiftNight, StaffID: "S1"}
	svc.On("UpdateEntry", mock.Anything, "E1", req).Return(nil, fmt.Errorf("Dr. Amal is already scheduled: %w", domain.ErrConflict))
	h := NewScheduleHandler(svc, &stubReports{})

	rr := httptest.NewRecorder()
	h.Update(rr, withChiID(jsonReq(t, http.MethodPut, "/v1/schedules/E1", req), "E1"))

	assert.Equal(t, http.StatusConflict, rr.Code)
	svc.AssertExpectations(t)
}

func TestWeek_DefaultsToToday(t *testing.T) {
	svc := &mockScheduleSvc{}
	svc.On("Week", mock.Anything, mock.AnythingOfType("string")).Return(&domain.WeekView{WeekStart: "2024-01-08"}, nil)
	h := NewScheduleHandler(svc, &stubReports{})

	rr := httptest.NewRecorder()
	h.Week(rr, httptest.NewRequest(http.MethodGet, "/v1/schedules", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	date, ok := svc.Calls[0].Arguments.Get(1).(string)
	require.True(t, ok)
	assert.Len(t, date, 10)
}

func TestExport_HTML(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleSvc{}, &stubReports{html: "<html>week</html>"})

	rr := httptest.NewRecorder()
	h.Export(rr, httptest.NewRequest(http.MethodGet, "/v1/schedules/export?date=2024-01-10", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "schedule-2024-01-10.html")
	assert.Equal(t, "<html>week</html>", rr.Body.String())
}

func TestExport_PDFUnavailable(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleSvc{}, &stubReports{pdfErr: fmt.Errorf("pdf export is not configured: %w", domain.ErrUnavailable)})

	rr := httptest.NewRecorder()
	h.Export(rr, httptest.NewRequest(http.MethodGet, "/v1/schedules/export?format=pdf", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestExport_UnknownFormat(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleSvc{}, &stubReports{})

	rr := httptest.NewRecorder()
	h.Export(rr, httptest.NewRequest(http.MethodGet, "/v1/schedules/export?format=docx", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestArchive_ReturnsURL(t *testing.T) {
	reports := &stubReports{archive: &domain.ReportArchive{Key: "reports/schedules/2024-01-08/x.pdf", URL: "https://example/x.pdf"}}
	h := NewScheduleHandler(&mockScheduleSvc{}, reports)

	rr := httptest.NewRecorder()
	h.Archive(rr, jsonReq(t, http.MethodPost, "/v1/schedules/export/archive", domain.ExportRequest{Date: "2024-01-10", Format: "pdf"}))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "pdf", reports.format)
	assert.Contains(t, rr.Body.String(), "https://example/x.pdf")
}
