package engine

import "fmt"

// EngineFault is the fatal tier: an invariant violation or an
// unsupported configuration that a caller cannot recover from by
// retrying the same command. Runtime logs it, then refuses
// further commands against the affected symbol (SPEC_FULL.md §10).
type EngineFault struct {
	Reason string
}

func (e *EngineFault) Error() string {
	return fmt.Sprintf("engine fault: %s", e.Reason)
}
