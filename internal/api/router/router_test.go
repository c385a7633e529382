package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/onmydesk/internal/api/handler"
	"github.com/cuongbtq/onmydesk/internal/auth"
	"github.com/cuongbtq/onmydesk/internal/domain"
	"github.com/cuongbtq/onmydesk/internal/report"
	"github.com/cuongbtq/onmydesk/internal/scheduler"
)

type fakeReports struct {
	records  map[string]*domain.Report
	order    []string
	enqueued []string
}

func newFakeReports() *fakeReports {
	return &fakeReports{records: make(map[string]*domain.Report)}
}

func (f *fakeReports) add(rec *domain.Report) *domain.Report {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.InsertDate = time.Date(2024, 1, 1, 0, 0, len(f.order), 0, time.UTC)
	f.records[rec.ID] = rec
	f.order = append(f.order, rec.ID)
	return rec
}

func (f *fakeReports) Create(ctx context.Context, name string, params map[string]any, owner string) (*domain.Report, error) {
	if name != "sales.Daily" {
		return nil, report.ErrUnknownReport
	}
	rec := domain.NewReport(name)
	if err := rec.SetParams(params); err != nil {
		return nil, err
	}
	rec.CreatedBy.String, rec.CreatedBy.Valid = owner, owner != ""
	return f.add(rec), nil
}

func (f *fakeReports) Get(ctx context.Context, id string) (*domain.Report, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, domain.ErrReportNotFound
	}
	return rec, nil
}

func (f *fakeReports) List(ctx context.Context, filter domain.ReportFilter) ([]domain.Report, error) {
	var out []domain.Report
	for i := len(f.order) - 1; i >= 0; i-- {
		rec := f.records[f.order[i]]
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		if filter.Cursor != nil && !rec.InsertDate.Before(filter.Cursor.InsertDate) {
			continue
		}
		out = append(out, *rec)
		if len(out) == filter.PageSize+1 {
			break
		}
	}
	return out, nil
}

func (f *fakeReports) Delete(ctx context.Context, id string) error {
	rec, ok := f.records[id]
	if !ok {
		return domain.ErrReportNotFound
	}
	if !rec.IsTerminal() {
		return domain.ErrReportNotTerminal
	}
	delete(f.records, id)
	return nil
}

func (f *fakeReports) Enqueue(ctx context.Context, id string) error {
	f.enqueued = append(f.enqueued, id)
	return nil
}

func (f *fakeReports) Label(rec *domain.Report) string {
	return rec.Label("Daily sales")
}

type fakeSchedulers struct {
	created []*domain.Scheduler
	runDate time.Time
}

func (f *fakeSchedulers) Create(ctx context.Context, name, periodicity string, params map[string]any, owner string) (*domain.Scheduler, error) {
	if err := domain.ValidatePeriodicity(periodicity); err != nil {
		return nil, err
	}
	sch := &domain.Scheduler{ID: uuid.New().String(), Report: name, Periodicity: periodicity}
	sch.CreatedBy.String, sch.CreatedBy.Valid = owner, true
	f.created = append(f.created, sch)
	return sch, nil
}

func (f *fakeSchedulers) Get(ctx context.Context, id string) (*domain.Scheduler, error) {
	for _, sch := range f.created {
		if sch.ID == id {
			return sch, nil
		}
	}
	return nil, domain.ErrSchedulerNotFound
}

func (f *fakeSchedulers) List(ctx context.Context, filter domain.SchedulerFilter) ([]domain.Scheduler, error) {
	out := make([]domain.Scheduler, 0, len(f.created))
	for _, sch := range f.created {
		out = append(out, *sch)
	}
	return out, nil
}

func (f *fakeSchedulers) Delete(ctx context.Context, id string) error {
	return domain.ErrSchedulerNotFound
}

func (f *fakeSchedulers) Label(sch *domain.Scheduler) string {
	return sch.Label(sch.Report)
}

func (f *fakeSchedulers) RunDue(ctx context.Context, date time.Time) (*scheduler.RunSummary, error) {
	f.runDate = date
	return &scheduler.RunSummary{
		Date: date,
		Results: []scheduler.RunResult{
			{SchedulerID: "s1", Report: "sales.Daily", ReportID: "r1"},
			{SchedulerID: "s2", Report: "sales.Daily", Error: "query failed"},
		},
	}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(ctx context.Context, location string) (string, error) {
	if location == "s3://reports/broken.csv" {
		return "", errors.New("presign failed")
	}
	return "https://minio.local/presigned?loc=" + location, nil
}

type testServer struct {
	engine     *gin.Engine
	reports    *fakeReports
	schedulers *fakeSchedulers
	token      string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := report.NewRegistry()
	registry.MustRegister(report.Definition{
		Name:   "sales.Daily",
		Title:  "Daily sales",
		Fields: []report.Field{{Name: "day", Type: report.FieldDate, Required: true}},
		Factory: func(env *report.Env, params report.Params) (*report.Report, error) {
			return nil, errors.New("not built in tests")
		},
	})

	issuer := auth.NewIssuer("secret", "onmydesk", time.Hour)
	token, err := issuer.Generate("alice")
	require.NoError(t, err)

	srv := &testServer{
		reports:    newFakeReports(),
		schedulers: &fakeSchedulers{},
		token:      token,
	}
	srv.engine = SetupRouter(&handler.Dependencies{
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Reports:    srv.reports,
		Schedulers: srv.schedulers,
		Registry:   registry,
		Resolver:   fakeResolver{},
		Auth:       issuer,
	})
	return srv
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	srv.token = ""

	w := srv.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t)

	srv.token = ""
	w := srv.do(http.MethodGet, "/api/v1/reports", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	srv.token = "garbage"
	w = srv.do(http.MethodGet, "/api/v1/reports", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListReportTypes(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodGet, "/api/v1/report-types", nil)
	require.Equal(t, http.StatusOK, w.Code)

	types := decode(t, w)["report_types"].([]any)
	require.Len(t, types, 1)
	first := types[0].(map[string]any)
	assert.Equal(t, "sales.Daily", first["name"])
	assert.Equal(t, "Daily sales", first["title"])
	assert.Len(t, first["fields"], 1)
}

func TestCreateReport(t *testing.T) {
	tests := []struct {
		name         string
		body         any
		wantStatus   int
		wantEnqueued int
	}{
		{name: "created", body: map[string]any{"report": "sales.Daily", "params": map[string]any{"day": "2024-01-01"}}, wantStatus: http.StatusCreated},
		{name: "created and enqueued", body: map[string]any{"report": "sales.Daily", "process": true}, wantStatus: http.StatusCreated, wantEnqueued: 1},
		{name: "missing report", body: map[string]any{"params": map[string]any{}}, wantStatus: http.StatusBadRequest},
		{name: "unknown report", body: map[string]any{"report": "sales.Nope"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			w := srv.do(http.MethodPost, "/api/v1/reports", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Len(t, srv.reports.enqueued, tt.wantEnqueued)

			if tt.wantStatus == http.StatusCreated {
				body := decode(t, w)
				assert.Equal(t, "pending", body["status"])
				assert.Equal(t, "alice", body["created_by"])
				assert.Contains(t, body["label"], "Daily sales #")
				assert.Nil(t, body["process_time"])
			}
		})
	}
}

func TestGetReport(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusPending})

	w := srv.do(http.MethodGet, "/api/v1/reports/"+rec.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, rec.ID, decode(t, w)["id"])

	w = srv.do(http.MethodGet, "/api/v1/reports/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/reports/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListReports_Pagination(t *testing.T) {
	srv := newTestServer(t)
	for i := 0; i < 3; i++ {
		srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusProcessed})
	}

	w := srv.do(http.MethodGet, "/api/v1/reports?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode(t, w)
	assert.Len(t, page["reports"], 2)
	cursor, ok := page["next_cursor"].(string)
	require.True(t, ok)

	w = srv.do(http.MethodGet, "/api/v1/reports?page_size=2&cursor="+cursor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decode(t, w)
	assert.Len(t, page["reports"], 1)
	assert.NotContains(t, page, "next_cursor")

	w = srv.do(http.MethodGet, "/api/v1/reports?status=finished", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/reports?cursor=%25%25", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteReport(t *testing.T) {
	srv := newTestServer(t)
	pending := srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusPending})
	done := srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusError})

	w := srv.do(http.MethodDelete, "/api/v1/reports/"+pending.ID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = srv.do(http.MethodDelete, "/api/v1/reports/"+done.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestProcessReport(t *testing.T) {
	srv := newTestServer(t)
	failed := srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusError})
	processed := srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusProcessed})

	w := srv.do(http.MethodPost, "/api/v1/reports/"+failed.ID+"/process", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{failed.ID}, srv.reports.enqueued)

	w = srv.do(http.MethodPost, "/api/v1/reports/"+processed.ID+"/process", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDownloadReport(t *testing.T) {
	srv := newTestServer(t)

	path := filepath.Join(t.TempDir(), "report-1.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b\n1,2\n"), 0o644))

	rec := &domain.Report{Report: "sales.Daily", Status: domain.StatusProcessed}
	rec.SetResults([]string{path, "s3://reports/daily/report-1.xlsx", "s3://reports/broken.csv", "/missing/file.csv"})
	srv.reports.add(rec)

	pending := srv.reports.add(&domain.Report{Report: "sales.Daily", Status: domain.StatusPending})

	t.Run("local file", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/reports/"+rec.ID+"/download", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "a,b\n1,2\n", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "report-1.csv")
	})

	t.Run("object storage redirect", func(t *testing.T) {
		w := srv.do(http.MethodGet, "/api/v1/reports/"+rec.ID+"/download?index=1", nil)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "https://minio.local/presigned?loc=s3://reports/daily/report-1.xlsx", w.Header().Get("Location"))
	})

	tests := []struct {
		name   string
		id     string
		query  string
		status int
	}{
		{name: "resolve failure", id: rec.ID, query: "?index=2", status: http.StatusInternalServerError},
		{name: "missing local file", id: rec.ID, query: "?index=3", status: http.StatusNotFound},
		{name: "index out of range", id: rec.ID, query: "?index=4", status: http.StatusNotFound},
		{name: "negative index", id: rec.ID, query: "?index=-1", status: http.StatusBadRequest},
		{name: "not processed", id: pending.ID, query: "", status: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := srv.do(http.MethodGet, "/api/v1/reports/"+tt.id+"/download"+tt.query, nil)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestSchedulers(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/schedulers", map[string]any{
		"report":      "sales.Daily",
		"periodicity": "weekdays",
		"params":      map[string]any{"day": "D-1"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "alice", created["created_by"])

	w = srv.do(http.MethodPost, "/api/v1/schedulers", map[string]any{
		"report":      "sales.Daily",
		"periodicity": "hourly",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/schedulers/"+created["id"].(string), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = srv.do(http.MethodGet, "/api/v1/schedulers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["schedulers"], 1)

	w = srv.do(http.MethodDelete, "/api/v1/schedulers/"+uuid.New().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunSchedulers(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(http.MethodPost, "/api/v1/schedulers/run?date=2024-02-29", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "2024-02-29", body["date"])
	assert.Equal(t, float64(2), body["due"])
	assert.Equal(t, float64(1), body["failed"])
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), srv.schedulers.runDate)

	w = srv.do(http.MethodPost, "/api/v1/schedulers/run?date=29/02/2024", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
