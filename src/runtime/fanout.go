package runtime

import "limitcore/src/engine"

// MultiPublisher fans PublishExecuted out to every wrapped Publisher,
// continuing past individual errors and returning the first one seen.
type MultiPublisher []Publisher

func (m MultiPublisher) PublishExecuted(symbol string, opcode engine.Opcode, response []byte) error {
	var first error
	for _, p := range m {
		if err := p.PublishExecuted(symbol, opcode, response); err != nil && first == nil {
			first = err
		}
	}
	return first
}
