package engine

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dukex/leadflow/pkg/graph"
	"github.com/dukex/leadflow/pkg/protocol"
)

// MaxErrorLength bounds the error text stored on a failed job.
const MaxErrorLength = 500

var (
	ErrNodeNotFound     = errors.New("node not found in flow")
	ErrNoEntryNode      = errors.New("flow has no entry node")
	ErrNoRecipient      = protocol.ErrNoRecipient
	ErrTransportFailure = protocol.ErrTransportFailure
	ErrCycleDetected    = graph.ErrCycleDetected
)

// JobError is a failure of one job. It never aborts a batch.
type JobError struct {
	Op    string
	JobID string
	Err   error
}

func (e *JobError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("%s failed for job %s: %v", e.Op, e.JobID, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}

func (e *JobError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

func NewJobError(op, jobID string, err error) *JobError {
	return &JobError{Op: op, JobID: jobID, Err: err}
}

func IsNodeNotFound(err error) bool {
	return errors.Is(err, ErrNodeNotFound)
}

func IsNoRecipient(err error) bool {
	return errors.Is(err, ErrNoRecipient)
}

func IsTransportFailure(err error) bool {
	return errors.Is(err, ErrTransportFailure)
}

func IsCycleDetected(err error) bool {
	return errors.Is(err, ErrCycleDetected)
}

// truncate cuts msg to MaxErrorLength bytes without splitting a rune.
func truncate(msg string) string {
	if len(msg) <= MaxErrorLength {
		return msg
	}

	cut := MaxErrorLength
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}

	return msg[:cut]
}
