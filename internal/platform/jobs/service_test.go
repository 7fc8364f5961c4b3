package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finished struct {
	status  string
	details string
}

type fakeRunStore struct {
	mu       sync.Mutex
	tenants  []string
	started  []string
	finished map[string]finished
}

func newFakeRunStore(tenants ...string) *fakeRunStore {
	return &fakeRunStore{tenants: tenants, finished: map[string]finished{}}
}

func (f *fakeRunStore) StartRun(_ context.Context, tenantID, jobType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, tenantID+"/"+jobType)
	return "run-" + tenantID, nil
}

func (f *fakeRunStore) FinishRun(_ context.Context, runID, status string, details []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished[runID] = finished{status: status, details: string(details)}
	return nil
}

func (f *fakeRunStore) ListTenants(context.Context) ([]string, error) {
	return f.tenants, nil
}

func (f *fakeRunStore) finishedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.finished)
}

func TestRunNowRecordsCompletion(t *testing.T) {
	store := newFakeRunStore()
	svc := New(store)

	out, err := svc.RunNow(context.Background(), "feedback_reminders", "t1", func(_ context.Context, tenantID string, _ time.Time) (any, error) {
		return map[string]int{"sent": 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"sent": 2}, out)
	assert.Equal(t, []string{"t1/feedback_reminders"}, store.started)
	assert.Equal(t, StatusCompleted, store.finished["run-t1"].status)
	assert.JSONEq(t, `{"sent":2}`, store.finished["run-t1"].details)
}

func TestRunNowRecordsFailure(t *testing.T) {
	store := newFakeRunStore()
	svc := New(store)

	_, err := svc.RunNow(context.Background(), "vacation_grant", "t2", func(context.Context, string, time.Time) (any, error) {
		return nil, errors.New("db down")
	})
	require.Error(t, err)
	assert.Equal(t, StatusFailed, store.finished["run-t2"].status)
	assert.Contains(t, store.finished["run-t2"].details, "db down")
}

func TestFanOutRunsPerTenant(t *testing.T) {
	store := newFakeRunStore("t1", "t2", "t3")
	svc := New(store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc.Start(ctx)

	var mu sync.Mutex
	seen := map[string]bool{}
	svc.fanOut(ctx, "appraisal_reminders", func(_ context.Context, tenantID string, _ time.Time) (any, error) {
		mu.Lock()
		seen[tenantID] = true
		mu.Unlock()
		return nil, nil
	})

	require.Eventually(t, func() bool { return store.finishedCount() == 3 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	svc := New(newFakeRunStore())
	assert.Error(t, svc.Schedule("not a cron", "x", nil))
	assert.NoError(t, svc.Schedule("", "x", nil))
	assert.NoError(t, svc.Schedule("0 8 * * *", "x", func(context.Context, string, time.Time) (any, error) { return nil, nil }))
}
