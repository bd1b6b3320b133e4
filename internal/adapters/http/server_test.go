package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"footprint/internal/domain"
	"footprint/internal/identity"
	"footprint/internal/ports"
)

const invID = "0b8f2c1e-4d5a-4f6b-9c7d-1e2f3a4b5c6d"

type fakeInvestigations struct {
	enqueued []identity.Input
	status   domain.Investigation
	snap     *domain.Snapshot
}

func (f *fakeInvestigations) Enqueue(_ context.Context, in identity.Input) (string, error) {
	if in.Email == "" && in.Phone == "" {
		return "", &identity.ValidationError{Fields: []identity.FieldError{{Field: "identifier", Reason: "at least one of email or phone is required"}}}
	}
	f.enqueued = append(f.enqueued, in)
	return invID, nil
}

func (f *fakeInvestigations) Status(_ context.Context, id string) (domain.Investigation, error) {
	if id != invID {
		return domain.Investigation{}, domain.ErrNotFound
	}
	return f.status, nil
}

func (f *fakeInvestigations) Snapshot(_ context.Context, id string) (*domain.Snapshot, error) {
	if id != invID || f.snap == nil {
		return nil, domain.ErrNotFound
	}
	return f.snap, nil
}

type fakeProfiles struct{ snap *domain.Snapshot }

func (f fakeProfiles) GetLatest(_ context.Context, in identity.Input) (*domain.Snapshot, error) {
	if in.Email == "" && in.Phone == "" {
		return nil, &identity.ValidationError{Fields: []identity.FieldError{{Field: "identifier", Reason: "required"}}}
	}
	if f.snap == nil || in.Email != f.snap.TargetInfo.Email {
		return nil, domain.ErrNotFound
	}
	return f.snap, nil
}

type fakeJobs struct{ started, completed []string }

func (f *fakeJobs) ClaimNext(context.Context) (ports.InvestigationJob, bool, error) {
	return ports.InvestigationJob{}, false, nil
}
func (f *fakeJobs) UpdateProgress(context.Context, string, float64) error { return nil }
func (f *fakeJobs) MarkCompleted(_ context.Context, jobID string) error {
	f.completed = append(f.completed, jobID)
	return nil
}
func (f *fakeJobs) MarkFailed(context.Context, string, string) error { return nil }
func (f *fakeJobs) StartJobFor(_ context.Context, id string) (string, error) {
	f.started = append(f.started, id)
	return "job-1", nil
}

type processorFunc func(ctx context.Context, id string) error

func (fn processorFunc) Process(ctx context.Context, id string) error { return fn(ctx, id) }

type fixture struct {
	invs *fakeInvestigations
	jobs *fakeJobs
	srv  *httptest.Server
}

func newFixture(t *testing.T, processor processorFunc) *fixture {
	t.Helper()
	snap := &domain.Snapshot{
		ID:         invID,
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		TargetInfo: domain.Target{Email: "jane@acme.com"},
		Breaches:   domain.BreachReport{Breaches: []domain.Breach{}, RiskScore: "Low"},
		Warnings:   []string{},
	}
	f := &fixture{
		invs: &fakeInvestigations{
			status: domain.Investigation{ID: invID, Status: domain.InvestigationCompleted, Progress: 1},
			snap:   snap,
		},
		jobs: &fakeJobs{},
	}
	if processor == nil {
		processor = func(context.Context, string) error { return nil }
	}
	s := New(f.invs, fakeProfiles{snap: snap}, f.jobs, processor, zap.NewNop())
	f.srv = httptest.NewServer(s.Routes())
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := f.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBody
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestCreateInvestigation_Accepted(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodPost, "/investigations", `{"email":"jane@acme.com"}`)

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, `{"id":"`+invID+`"}`, string(body))
	assert.Equal(t, []identity.Input{{Email: "jane@acme.com"}}, f.invs.enqueued)
	assert.Empty(t, f.jobs.started)
}

func TestCreateInvestigation_ValidationFields(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodPost, "/investigations", `{}`)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var got errorResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "validation failed", got.Error)
	require.Len(t, got.Fields, 1)
	assert.Equal(t, "identifier", got.Fields[0].Field)
}

func TestCreateInvestigation_MalformedBody(t *testing.T) {
	f := newFixture(t, nil)
	resp, _ := f.do(t, http.MethodPost, "/investigations", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateInvestigation_Wait(t *testing.T) {
	var processed []string
	f := newFixture(t, func(_ context.Context, id string) error {
		processed = append(processed, id)
		return nil
	})
	resp, body := f.do(t, http.MethodPost, "/investigations?wait=true&timeout=5", `{"email":"jane@acme.com"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var inv domain.Investigation
	require.NoError(t, json.Unmarshal(body, &inv))
	assert.Equal(t, domain.InvestigationCompleted, inv.Status)
	assert.Equal(t, []string{invID}, processed)
	assert.Equal(t, []string{"job-1"}, f.jobs.completed)
}

func TestCreateInvestigation_WaitTimeout(t *testing.T) {
	f := newFixture(t, func(ctx context.Context, _ string) error {
		<-ctx.Done()
		return ctx.Err()
	})
	resp, _ := f.do(t, http.MethodPost, "/investigations?wait=true&timeout=1", `{"email":"jane@acme.com"}`)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestCreateInvestigation_ProcessorError(t *testing.T) {
	f := newFixture(t, func(context.Context, string) error { return errors.New("db down") })
	resp, body := f.do(t, http.MethodPost, "/investigations?wait=1", `{"email":"jane@acme.com"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "db down")
}

func TestGetInvestigation(t *testing.T) {
	f := newFixture(t, nil)

	resp, body := f.do(t, http.MethodGet, "/investigations/"+invID, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"completed"`)

	resp, _ = f.do(t, http.MethodGet, "/investigations/unknown", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetSnapshot(t *testing.T) {
	f := newFixture(t, nil)
	resp, body := f.do(t, http.MethodGet, "/investigations/"+invID+"/snapshot", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, "jane@acme.com", snap.TargetInfo.Email)
}

func TestGetReport(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		query       string
		status      int
		contentType string
		contains    string
	}{
		{"", http.StatusOK, "text/html; charset=utf-8", "<!DOCTYPE html>"},
		{"?format=markdown", http.StatusOK, "text/markdown; charset=utf-8", "# Footprint Investigation Report"},
		{"?format=txt", http.StatusOK, "text/plain; charset=utf-8", "FOOTPRINT INVESTIGATION REPORT"},
		{"?format=json", http.StatusOK, "application/json", `"target_info"`},
		{"?format=pdf", http.StatusBadRequest, "application/json", "unsupported report format"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := f.do(t, http.MethodGet, "/investigations/"+invID+"/report"+tt.query, "")
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.contentType, resp.Header.Get("Content-Type"))
			assert.Contains(t, string(body), tt.contains)
		})
	}
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t, nil)

	resp, _ := f.do(t, http.MethodGet, "/profiles?email=jane@acme.com", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/profiles?email=other@acme.com", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/profiles", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
