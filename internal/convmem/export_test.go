package convmem

import "time"

// SetNow overrides the memory clock. Only for testing.
func (m *Memory) SetNow(now func() time.Time) {
	m.now = now
}
