package summary

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kakaosum/backend/internal/infrastructure/log"
)

// JobStatus 后台任务状态
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusCanceled  JobStatus = "canceled"
)

// Job 一次后台总结任务
type Job struct {
	ID         string       `json:"id"`
	Room       string       `json:"room"`
	Dates      []string     `json:"dates"`
	Status     JobStatus    `json:"status"`
	Report     *RangeReport `json:"report,omitempty"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at,omitempty"`

	cancel context.CancelFunc
	mu     sync.Mutex
}

// Snapshot 当前状态的副本（供序列化）
func (j *Job) Snapshot() *Job {
	j.mu.Lock()
	defer j.mu.Unlock()
	return &Job{
		ID:         j.ID,
		Room:       j.Room,
		Dates:      j.Dates,
		Status:     j.Status,
		Report:     j.Report,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
	}
}

// JobManager 后台总结任务管理
// 每个任务持有自己的 context，取消只在日期之间生效（与服务层约定一致），
// 已完成的工件不回滚
type JobManager struct {
	jobs   sync.Map // job id → *Job
	logger *slog.Logger
}

// NewJobManager 创建任务管理器
func NewJobManager() *JobManager {
	return &JobManager{
		logger: log.NewModuleLogger("summary", "jobs"),
	}
}

// Launch 启动后台任务并立即返回
// run 在独立 goroutine 中执行，结束后任务保留在管理器中供查询
func (m *JobManager) Launch(room string, dates []string, run func(ctx context.Context) *RangeReport) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	job := &Job{
		ID:        uuid.NewString(),
		Room:      room,
		Dates:     dates,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
		cancel:    cancel,
	}
	m.jobs.Store(job.ID, job)

	m.logger.Info("summary job launched", "job_id", job.ID, "room", room, "dates", len(dates))

	go func() {
		defer cancel()
		report := run(log.WithJobID(ctx, job.ID))

		job.mu.Lock()
		job.Report = report
		job.FinishedAt = time.Now()
		if report != nil && report.Canceled {
			job.Status = JobStatusCanceled
		} else {
			job.Status = JobStatusCompleted
		}
		job.mu.Unlock()

		m.logger.Info("summary job finished", "job_id", job.ID, "status", job.Status)
	}()

	return job
}

// Get 查询任务，不存在返回 nil
func (m *JobManager) Get(id string) *Job {
	v, ok := m.jobs.Load(id)
	if !ok {
		return nil
	}
	return v.(*Job)
}

// Cancel 请求取消任务
// 返回任务是否存在；取消在下一个日期边界生效
func (m *JobManager) Cancel(id string) bool {
	job := m.Get(id)
	if job == nil {
		return false
	}
	job.cancel()
	return true
}

// List 全部任务的当前快照
func (m *JobManager) List() []*Job {
	var jobs []*Job
	m.jobs.Range(func(_, v any) bool {
		jobs = append(jobs, v.(*Job).Snapshot())
		return true
	})
	return jobs
}
