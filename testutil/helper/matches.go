package helper

// matches narrows a set of captured records. A chain holds while at least one record is left.
type matches[T any] struct {
	left []T
}

func (m *matches[T]) narrow(keep func(record T) bool) {
	kept := make([]T, 0, len(m.left))
	for _, record := range m.left {
		if keep(record) {
			kept = append(kept, record)
		}
	}

	m.left = kept
}

// Assert reports whether at least one captured record satisfied every condition of the chain.
func (m *matches[T]) Assert() bool {
	return len(m.left) > 0
}
