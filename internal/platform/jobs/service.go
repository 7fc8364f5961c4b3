// Package jobs runs scheduled per-tenant work and records every run in job_runs.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"hris/internal/platform/metrics"
	"hris/internal/platform/requestctx"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// TenantFunc is one unit of scheduled work for a single tenant.
type TenantFunc func(ctx context.Context, tenantID string, now time.Time) (any, error)

// RunStore records job runs and lists the tenants scheduled work fans out to.
type RunStore interface {
	StartRun(ctx context.Context, tenantID, jobType string) (string, error)
	FinishRun(ctx context.Context, runID, status string, details []byte) error
	ListTenants(ctx context.Context) ([]string, error)
}

type job struct {
	Type     string
	TenantID string
	Run      func(context.Context) (any, error)
}

type Service struct {
	store RunStore
	cron  *cron.Cron
	queue chan job
	now   func() time.Time
	wg    sync.WaitGroup
}

func New(store RunStore) *Service {
	return &Service{
		store: store,
		cron:  cron.New(),
		queue: make(chan job, 128),
		now:   time.Now,
	}
}

// Schedule registers fn under a standard five-field cron spec. Each firing
// enqueues one job per tenant.
func (s *Service) Schedule(spec, jobType string, fn TenantFunc) error {
	if spec == "" {
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.fanOut(context.Background(), jobType, fn)
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", jobType, err)
	}
	return nil
}

func (s *Service) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
	s.cron.Start()
	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
}

// Wait blocks until the worker has drained after the start context ends.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType, tenantID string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, TenantID: tenantID, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType, "tenantId", tenantID)
	}
}

// RunNow executes synchronously; used by admin triggers and the CLI.
func (s *Service) RunNow(ctx context.Context, jobType, tenantID string, fn TenantFunc) (any, error) {
	now := s.now()
	return s.runJob(ctx, job{Type: jobType, TenantID: tenantID, Run: func(ctx context.Context) (any, error) {
		return fn(ctx, tenantID, now)
	}})
}

func (s *Service) fanOut(ctx context.Context, jobType string, fn TenantFunc) {
	tenants, err := s.store.ListTenants(ctx)
	if err != nil {
		slog.Warn("scheduler tenant lookup failed", "jobType", jobType, "err", err)
		return
	}
	now := s.now()
	for _, tenantID := range tenants {
		tenantID := tenantID
		s.Enqueue(jobType, tenantID, func(ctx context.Context) (any, error) {
			return fn(ctx, tenantID, now)
		})
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "tenantId", j.TenantID, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	ctx = requestctx.WithTenantID(ctx, j.TenantID)
	start := time.Now()

	runID, err := s.store.StartRun(ctx, j.TenantID, j.Type)
	if err != nil {
		requestctx.Logger(ctx).Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		details = map[string]any{"error": err.Error(), "partial": details}
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		requestctx.Logger(ctx).Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.store.FinishRun(ctx, runID, status, detailsJSON); updErr != nil {
			requestctx.Logger(ctx).Warn("job run update failed", "err", updErr)
		}
	}
	metrics.RecordJobRun(j.Type, status, time.Since(start))
	return details, err
}

// PGStore is the job_runs table.
type PGStore struct {
	DB *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) StartRun(ctx context.Context, tenantID, jobType string) (string, error) {
	var runID string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (tenant_id, job_type, status)
    VALUES (NULLIF($1,'')::uuid, $2, $3)
    RETURNING id
  `, tenantID, jobType, StatusRunning).Scan(&runID)
	return runID, err
}

func (s *PGStore) FinishRun(ctx context.Context, runID, status string, details []byte) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}

func (s *PGStore) ListTenants(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `SELECT id FROM tenants ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
