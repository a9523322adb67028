package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"leavedesk/internal/domain/quota"
	"leavedesk/internal/platform/config"
	"leavedesk/internal/platform/querier"
)

const JobQuotaReset = "quota_reset"

type Service struct {
	DB     querier.DB
	Cfg    config.Config
	Ledger *quota.Ledger
	queue  chan job
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.DB, cfg config.Config, ledger *quota.Ledger) *Service {
	return &Service{
		DB:     db,
		Cfg:    cfg,
		Ledger: ledger,
		queue:  make(chan job, 128),
	}
}

func (s *Service) Start(ctx context.Context) {
	go s.worker(ctx)
	if s.Cfg.QuotaResetInterval > 0 {
		go s.scheduleQuotaReset(ctx, s.Cfg.QuotaResetInterval)
	}
}

func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
	default:
		slog.Warn("job queue full", "jobType", jobType)
	}
}

// RunNow executes a job inline, still recording a job_runs row.
func (s *Service) RunNow(ctx context.Context, jobType string, run func(context.Context) (any, error)) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Run: run})
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
		}
	}
}

// scheduleQuotaReset polls on a short interval; the ledger's own calendar
// guard makes every tick a no-op except on January 1, and the daily job_runs
// check keeps that one reset from repeating within the day.
func (s *Service) scheduleQuotaReset(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done, err := s.resetRanToday(ctx); err != nil {
				slog.Warn("quota reset schedule check failed", "err", err)
				continue
			} else if done {
				continue
			}
			s.Enqueue(JobQuotaReset, func(runCtx context.Context) (any, error) {
				strategy, _ := quota.ParseResetStrategy(s.Cfg.QuotaResetStrategy)
				summary, err := s.Ledger.ResetYear(runCtx, s.DB, quota.ResetOptions{Strategy: strategy}, time.Now())
				if errors.Is(err, quota.ErrResetNotDue) {
					return map[string]string{"skipped": "not due"}, nil
				}
				return summary, err
			})
		}
	}
}

func (s *Service) resetRanToday(ctx context.Context) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM job_runs
    WHERE job_type = $1 AND status = 'completed' AND completed_at::date = current_date
      AND details_json::text NOT LIKE '%skipped%'
  `, JobQuotaReset).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, j.Type, "running").Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}

	details, err := j.Run(ctx)
	status := "completed"
	if err != nil {
		status = "failed"
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if _, updErr := s.DB.Exec(ctx, `
      UPDATE job_runs
      SET status = $1, details_json = $2, completed_at = now()
      WHERE id = $3
    `, status, detailsJSON, runID); updErr != nil {
			slog.Warn("job run update failed", "err", updErr)
		}
	}
	return details, err
}

func (s *Service) ListRuns(ctx context.Context, limit int) ([]map[string]any, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, job_type, status, COALESCE(details_json::text,'{}'), started_at, completed_at
    FROM job_runs
    ORDER BY started_at DESC
    LIMIT $1
  `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		var id, jobType, status, details string
		var startedAt time.Time
		var completedAt *time.Time
		if err := rows.Scan(&id, &jobType, &status, &details, &startedAt, &completedAt); err != nil {
			return nil, err
		}
		out = append(out, map[string]any{
			"id":          id,
			"jobType":     jobType,
			"status":      status,
			"details":     json.RawMessage(details),
			"startedAt":   startedAt,
			"completedAt": completedAt,
		})
	}
	return out, rows.Err()
}
