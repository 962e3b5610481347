package migrate

import (
	"errors"
	"fmt"
)

// Step names a stage of a migration.
type Step string

const (
	StepClone   Step = "clone"
	StepHistory Step = "history"
	StepCopy    Step = "copy"
	StepStage   Step = "stage"
	StepCleanup Step = "cleanup"
	StepCommit  Step = "commit"
)

// ErrNoPaths is returned when a migration is requested without paths.
var ErrNoPaths = errors.New("no paths given to migrate")

// StepError reports the step that failed. Path is set for per-path steps.
type StepError struct {
	Step Step
	Path string
	Err  error
}

func (e *StepError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Step, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// FailedStep returns the step recorded in err's chain, if any.
func FailedStep(err error) (Step, bool) {
	var se *StepError
	if errors.As(err, &se) {
		return se.Step, true
	}
	return "", false
}
