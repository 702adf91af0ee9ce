package report

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shefaa-icu/internal/domain"
)

//go:embed weekly.html.tmpl
var weeklySource string

var weeklyTemplate = template.Must(template.New("weekly").Parse(weeklySource))

type Service interface {
	WeeklyHTML(ctx context.Context, date string) ([]byte, error)
	WeeklyPDF(ctx context.Context, date string) ([]byte, error)
	Archive(ctx context.Context, date, format string) (*domain.ReportArchive, error)
}

type weekReader interface {
	Week(ctx context.Context, anyDate string) (*domain.WeekView, error)
}

type pdfRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	schedules weekReader
	renderer  pdfRenderer
	store     objectStore
	urlTTL    time.Duration
	now       func() time.Time
}

type ServiceDeps struct {
	Schedules weekReader
	Renderer  pdfRenderer // nil disables PDF export
	Store     objectStore // nil disables archiving
	URLTTL    time.Duration
	Now       func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		schedules: deps.Schedules,
		renderer:  deps.Renderer,
		store:     deps.Store,
		urlTTL:    deps.URLTTL,
		now:       deps.Now,
	}
	if s.urlTTL <= 0 {
		s.urlTTL = 15 * time.Minute
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type weeklyData struct {
	Week        *domain.WeekView
	Shifts      []string
	Total       int
	GeneratedAt string
}

// WeeklyHTML renders a self-contained, non-interactive document of the week
// containing date.
func (s *service) WeeklyHTML(ctx context.Context, date string) ([]byte, error) {
	week, err := s.schedules.Week(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.render(week)
}

func (s *service) render(week *domain.WeekView) ([]byte, error) {
	data := weeklyData{
		Week:        week,
		Shifts:      domain.ShiftTypes,
		GeneratedAt: s.now().UTC().Format("2006-01-02 15:04 MST"),
	}
	for _, d := range week.Days {
		for _, sh := range d.Shifts {
			data.Total += len(sh.Entries)
		}
	}
	var buf bytes.Buffer
	if err := weeklyTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render weekly report: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *service) WeeklyPDF(ctx context.Context, date string) ([]byte, error) {
	week, err := s.schedules.Week(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.renderPDF(ctx, week)
}

func (s *service) renderPDF(ctx context.Context, week *domain.WeekView) ([]byte, error) {
	if s.renderer == nil {
		return nil, fmt.Errorf("pdf export is not configured: %w", domain.ErrUnavailable)
	}
	html, err := s.render(week)
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(ctx, string(html))
}

// Archive uploads the rendered report under reports/schedules/<week-start>/
// and returns a presigned download URL.
func (s *service) Archive(ctx context.Context, date, format string) (*domain.ReportArchive, error) {
	if s.store == nil {
		return nil, fmt.Errorf("report archive is not configured: %w", domain.ErrUnavailable)
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = domain.ReportPDF
	}
	if format != domain.ReportHTML && format != domain.ReportPDF {
		return nil, fmt.Errorf("format must be one of [html pdf]: %w", domain.ErrBadRequest)
	}

	week, err := s.schedules.Week(ctx, date)
	if err != nil {
		return nil, err
	}
	var body []byte
	if format == domain.ReportHTML {
		body, err = s.render(week)
	} else {
		body, err = s.renderPDF(ctx, week)
	}
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("reports/schedules/%s/%s.%s", week.WeekStart, uuid.NewString(), format)
	if _, err := s.store.Upload(ctx, key, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("upload report: %w", err)
	}
	url, err := s.store.PresignedURL(ctx, key, s.urlTTL)
	if err != nil {
		return nil, fmt.Errorf("presign report: %w", err)
	}
	return &domain.ReportArchive{Key: key, URL: url, ExpiresAt: s.now().UTC().Add(s.urlTTL)}, nil
}
