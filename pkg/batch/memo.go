package batch

import (
	"sync"

	"github.com/japaniel/termtip/pkg/annotate"
	"github.com/zeebo/blake3"
)

// DefaultMemoSize is the entry cap used when NewMemo is given zero.
const DefaultMemoSize = 1024

type memoKey struct {
	text    [32]byte
	version string
}

// Memo caches annotation results by text digest and glossary version. When
// full, the oldest entry is evicted. Cached slices are shared between callers
// and must not be modified.
type Memo struct {
	// Get updates hit counters, so only Len and Stats take the read lock.
	mu    sync.RWMutex
	data  map[memoKey][]annotate.Segment
	order []memoKey
	limit int

	hits, misses int
}

// NewMemo creates a memo holding at most limit entries.
func NewMemo(limit int) *Memo {
	if limit <= 0 {
		limit = DefaultMemoSize
	}
	return &Memo{
		data:  make(map[memoKey][]annotate.Segment),
		limit: limit,
	}
}

func keyFor(text, version string) memoKey {
	return memoKey{text: blake3.Sum256([]byte(text)), version: version}
}

// Get returns the cached segments for text under the glossary version.
func (m *Memo) Get(text, version string) ([]annotate.Segment, bool) {
	k := keyFor(text, version)

	m.mu.Lock()
	defer m.mu.Unlock()

	segs, ok := m.data[k]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return segs, ok
}

// Set stores segments for text under the glossary version.
func (m *Memo) Set(text, version string, segs []annotate.Segment) {
	k := keyFor(text, version)

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.data[k]; !exists {
		for len(m.order) >= m.limit {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.data, oldest)
		}
		m.order = append(m.order, k)
	}
	m.data[k] = segs
}

// Annotate returns the memoized result for text, computing it with matcher
// on a miss.
func (m *Memo) Annotate(matcher *annotate.Matcher, version, text string) []annotate.Segment {
	if segs, ok := m.Get(text, version); ok {
		return segs
	}
	segs := matcher.Annotate(text)
	m.Set(text, version, segs)
	return segs
}

// Len returns the number of cached entries.
func (m *Memo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Stats returns the hit and miss counts.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hits, m.misses
}
