package contextmem

// mruList is a small most-recently-used list of strings. Touching a value
// moves it to the front; inserting past capacity evicts the oldest entry.
type mruList struct {
	cap   int
	items []string
}

func newMRU(capacity int) *mruList {
	if capacity < 1 {
		capacity = 1
	}
	return &mruList{cap: capacity}
}

// Touch inserts or promotes v to the front.
func (l *mruList) Touch(v string) {
	for i, item := range l.items {
		if item == v {
			copy(l.items[1:i+1], l.items[:i])
			l.items[0] = v
			return
		}
	}
	l.items = append([]string{v}, l.items...)
	if len(l.items) > l.cap {
		l.items = l.items[:l.cap]
	}
}

// Values returns a copy, most recent first.
func (l *mruList) Values() []string {
	out := make([]string, len(l.items))
	copy(out, l.items)
	return out
}

// Front returns the most recent value, or "" when empty.
func (l *mruList) Front() string {
	if len(l.items) == 0 {
		return ""
	}
	return l.items[0]
}

func (l *mruList) Len() int { return len(l.items) }

func (l *mruList) Clear() { l.items = nil }
