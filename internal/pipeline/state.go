package pipeline

import "fmt"

// State is a pipeline lifecycle state
type State int

const (
	Idle State = iota
	Crawling
	Extracting
	Persisting
	Done
	Failed
)

var stateNames = [...]string{"idle", "crawling", "extracting", "persisting", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transition is possible
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// MarshalText encodes the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StageError is a fatal error annotated with the stage it stopped the run in
type StageError struct {
	Stage State
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
