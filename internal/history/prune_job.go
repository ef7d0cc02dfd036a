package history

import (
	"time"
)

// PruneJob removes history records older than the retention window.
// Registered with the scheduler to run daily.
type PruneJob struct {
	repo      *Repository
	retention time.Duration
}

// NewPruneJob creates a prune job keeping records for the given number
// of days.
func NewPruneJob(repo *Repository, retentionDays int) *PruneJob {
	return &PruneJob{
		repo:      repo,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Name implements scheduler.Job
func (j *PruneJob) Name() string {
	return "history:prune"
}

// Run implements scheduler.Job
func (j *PruneJob) Run() error {
	_, err := j.repo.DeleteOlderThan(time.Now().Add(-j.retention))
	return err
}
