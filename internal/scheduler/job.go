package scheduler

import (
	"context"
	"time"
)

// Job represents a scheduled job
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Examples: "0 30 6 * * *" (every day at 06:30, with seconds)
	//           "@daily", "@weekly"
	Schedule() string
}

// JobResult represents the result of a job execution
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// historyLimit 작업별 보관 결과 수
const historyLimit = 100

// JobHistory 작업 실행 이력 (최근 historyLimit건, 오래된 순)
// 동시 접근은 Scheduler.mu가 보호
type JobHistory struct {
	Results []JobResult
}

// AddResult 결과 추가 (한도 초과 시 가장 오래된 결과 제거)
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// GetLatestResults 최근 n건
func (h *JobHistory) GetLatestResults(n int) []JobResult {
	if n > len(h.Results) {
		n = len(h.Results)
	}
	if n <= 0 {
		return []JobResult{}
	}
	return append([]JobResult(nil), h.Results[len(h.Results)-n:]...)
}

// GetFailedResults 실패한 결과만
func (h *JobHistory) GetFailedResults() []JobResult {
	failed := make([]JobResult, 0)
	for _, r := range h.Results {
		if !r.Success {
			failed = append(failed, r)
		}
	}
	return failed
}

// Last 가장 최근 결과 중 success 여부가 일치하는 것 (없으면 nil)
func (h *JobHistory) Last(success bool) *JobResult {
	for i := len(h.Results) - 1; i >= 0; i-- {
		if h.Results[i].Success == success {
			r := h.Results[i]
			return &r
		}
	}
	return nil
}

// GetSuccessRate 성공률 (0.0 - 1.0)
func (h *JobHistory) GetSuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	return float64(len(h.Results)-len(h.GetFailedResults())) / float64(len(h.Results))
}
