package domain

import "fmt"

// RunStats accumulates human readable outcome lines. A RunStats is owned by a
// single task; the orchestrator merges task stats after they join.
type RunStats struct {
	Succeeded []string
	Skipped   []string
	Failed    []string
}

func (s *RunStats) Succeed(format string, args ...any) {
	s.Succeeded = append(s.Succeeded, fmt.Sprintf(format, args...))
}

func (s *RunStats) Skip(format string, args ...any) {
	s.Skipped = append(s.Skipped, fmt.Sprintf(format, args...))
}

func (s *RunStats) Fail(format string, args ...any) {
	s.Failed = append(s.Failed, fmt.Sprintf(format, args...))
}

// Merge appends other's entries, preserving their order.
func (s *RunStats) Merge(other RunStats) {
	s.Succeeded = append(s.Succeeded, other.Succeeded...)
	s.Skipped = append(s.Skipped, other.Skipped...)
	s.Failed = append(s.Failed, other.Failed...)
}

func (s RunStats) Total() int {
	return len(s.Succeeded) + len(s.Skipped) + len(s.Failed)
}

// Clone returns a deep copy so callers can snapshot the accumulator.
func (s RunStats) Clone() RunStats {
	return RunStats{
		Succeeded: append([]string(nil), s.Succeeded...),
		Skipped:   append([]string(nil), s.Skipped...),
		Failed:    append([]string(nil), s.Failed...),
	}
}
