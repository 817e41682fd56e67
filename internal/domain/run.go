package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunMeta identifies one pipeline run. It travels in logs, the run history
// table, and message headers, and deliberately never into the data artifacts:
// re-running over the same input must produce byte-identical files.
type RunMeta struct {
	ID        string
	StartedAt time.Time
}

// NewRunMeta stamps a fresh run with a random ID and the current time.
func NewRunMeta() RunMeta {
	return RunMeta{
		ID:        uuid.NewString(),
		StartedAt: clock.Now().UTC(),
	}
}
