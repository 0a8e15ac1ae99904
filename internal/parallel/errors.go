package parallel

import "fmt"

// ContractViolationError marks a programming error the core detects but
// never tries to recover from: a negative iteration count, an unbalanced
// profiler Log{Start,End} pair, or an attempt to nest parallel sections.
// Core code panics with a *ContractViolationError rather than returning
// one, since none of these are meant to be handled by a caller — only
// observed by a test via recover()+errors.As.
type ContractViolationError struct {
	Op  string
	Msg string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("parallel: contract violation in %s: %s", e.Op, e.Msg)
}

// violate panics with a ContractViolationError built from op and msg.
func violate(op, format string, args ...any) {
	panic(&ContractViolationError{Op: op, Msg: fmt.Sprintf(format, args...)})
}
