package table

// hashSpace is the size of the marker array, one slot per uint16 hash.
const hashSpace = 1 << 16

const (
	none = iota
	// prefixMarker: some key continues past this hash.
	prefixMarker
	// keyMarker: a complete key ends at this hash.
	keyMarker
)

// PrefixTable maps short byte signatures to values and finds the signatures
// that prefix a given buffer.
//
// Every prefix of every key is hashed with h = (h << 2) + b and marked in a
// 64K array, so a lookup stops at the first byte whose prefix was never
// inserted. Only hashes marked as complete keys are confirmed against the
// backing map.
type PrefixTable[T any] struct {
	markers [hashSpace]byte
	elems   map[string]T
	maxLen  int
}

func New[T any]() *PrefixTable[T] {
	return &PrefixTable[T]{
		elems: make(map[string]T),
	}
}

// Insert associates v with key, replacing any previous value.
func (t *PrefixTable[T]) Insert(key []byte, v T) {
	var h uint16
	for _, b := range key {
		h = (h << 2) + uint16(b)
		t.markers[h] = max(t.markers[h], prefixMarker)
	}
	t.markers[h] = keyMarker
	t.elems[string(key)] = v
	t.maxLen = max(t.maxLen, len(key))
}

func (t *PrefixTable[T]) Get(key []byte) (T, bool) {
	v, ok := t.elems[string(key)]
	return v, ok
}

// Walk calls onMatch for every key that prefixes data, shortest first, until
// onMatch returns true.
func (t *PrefixTable[T]) Walk(data []byte, onMatch func(key []byte, v T) bool) {
	if len(data) > t.maxLen {
		data = data[:t.maxLen]
	}

	var h uint16
	for i, b := range data {
		h = (h << 2) + uint16(b)

		switch t.markers[h] {
		case none:
			return
		case keyMarker:
			if v, ok := t.elems[string(data[:i+1])]; ok && onMatch(data[:i+1], v) {
				return
			}
		}
	}
}

// Longest returns the value of the longest key prefixing data.
func (t *PrefixTable[T]) Longest(data []byte) (T, bool) {
	var (
		found T
		ok    bool
	)
	t.Walk(data, func(_ []byte, v T) bool {
		found, ok = v, true
		return false
	})
	return found, ok
}

func (t *PrefixTable[T]) Size() int {
	return len(t.elems)
}
