package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	jobmetrics "github.com/Ayushchauha111/jewelpos/internal/jobs"
)

type stubResolver struct {
	snap  billing.RateSnapshot
	err   error
	asked time.Time
}

func (s *stubResolver) Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error) {
	s.asked = date
	return s.snap, s.err
}

func newVerifyJob(res *stubResolver) *RatesVerifyJob {
	job := NewRatesVerifyJob(res, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	job.clock = func() time.Time { return time.Date(2026, 10, 19, 0, 5, 0, 0, time.UTC) }
	return job
}

func TestRatesVerifyTaskPayload(t *testing.T) {
	task, err := NewRatesVerifyTask(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, TaskRatesVerify, task.Type())

	var payload RatesVerifyPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "2026-10-19", payload.Date)

	today, err := NewRatesVerifyTask(time.Time{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(today.Payload()))
}

func TestRatesVerifySucceeds(t *testing.T) {
	res := &stubResolver{snap: billing.RateSnapshot{
		GoldPerGram:   map[int]decimal.Decimal{22: decimal.NewFromInt(6000)},
		SilverPerGram: decimal.NewFromInt(80),
	}}
	task, err := NewRatesVerifyTask(time.Time{})
	require.NoError(t, err)

	require.NoError(t, newVerifyJob(res).Handle(context.Background(), task))
	assert.Equal(t, 19, res.asked.Day())
}

func TestRatesVerifyMissingSkipsRetry(t *testing.T) {
	res := &stubResolver{err: billing.ErrRatesMissing}
	task, err := NewRatesVerifyTask(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	err = newVerifyJob(res).Handle(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 20, res.asked.Day())
}

func TestRatesVerifyDatabaseErrorRetries(t *testing.T) {
	res := &stubResolver{err: errors.New("db down")}
	task, err := NewRatesVerifyTask(time.Time{})
	require.NoError(t, err)

	err = newVerifyJob(res).Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestRatesVerifyBadPayload(t *testing.T) {
	job := newVerifyJob(&stubResolver{})
	err := job.Handle(context.Background(), asynq.NewTask(TaskRatesVerify, []byte(`{"date":"tomorrow"}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

type stubEnqueuer struct {
	date time.Time
	err  error
}

func (s *stubEnqueuer) EnqueueRatesVerify(ctx context.Context, date time.Time) (*asynq.TaskInfo, error) {
	s.date = date
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "t-1", Queue: QueueDefault}, nil
}

func newJobsRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Route("/jobs", h.MountRoutes)
	return r
}

func TestHealthReportsPending(t *testing.T) {
	h := NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: QueueDefault, Pending: 3}}, nil, nil)

	rr := httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3}`, rr.Body.String())
}

func TestHealthInspectorFailure(t *testing.T) {
	h := NewHandler(stubInspector{err: errors.New("redis down")}, nil, nil)

	rr := httptest.NewRecorder()
	newJobsRouter(h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestVerifyRatesEndpoint(t *testing.T) {
	enq := &stubEnqueuer{}
	router := newJobsRouter(NewHandler(nil, enq, nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/rates-verify?date=2026-10-19", nil))
	require.Equal(t, http.StatusAccepted, rr.Code)
	assert.Equal(t, "2026-10-19", enq.date.Format(time.DateOnly))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/rates-verify?date=bad", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	enq.err = asynq.ErrDuplicateTask
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/jobs/rates-verify", nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
}
