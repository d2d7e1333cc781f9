package common

import (
	"github.com/google/uuid"
)

// NewJobID generates a unique raw job row ID with the "job_" prefix
// Format: job_<uuid>
func NewJobID() string {
	return "job_" + uuid.New().String()
}

// NewSweepID generates a unique sweep ID with the "sweep_" prefix
func NewSweepID() string {
	return "sweep_" + uuid.New().String()
}
