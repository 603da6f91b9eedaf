package poker

import (
	"fmt"

	chd "github.com/opencoff/go-chd"
)

// chdLoad is the CHD load factor; lower values build faster, higher values
// give a smaller table.
const chdLoad = 0.85

// KeyIndex maps a fixed set of canonical hashes onto slots in [0, Slots())
// through a perfect hash. Every indexed key owns exactly one slot; a few
// slots stay empty. It is immutable once built.
type KeyIndex struct {
	mph   *chd.Chd
	keys  []uint64
	used  []bool
	count int
}

// NewKeyIndex builds a perfect hash over unique keys.
func NewKeyIndex(keys []uint64) (*KeyIndex, error) {
	if len(keys) == 0 {
		return &KeyIndex{}, nil
	}
	b, err := chd.New()
	if err != nil {
		return nil, fmt.Errorf("create chd builder: %w", err)
	}
	for _, k := range keys {
		if err := b.Add(k); err != nil {
			return nil, fmt.Errorf("add key %d: %w", k, err)
		}
	}
	mph, err := b.Freeze(chdLoad)
	if err != nil {
		return nil, fmt.Errorf("freeze chd: %w", err)
	}

	pos := make([]uint64, len(keys))
	var width uint64
	for i, k := range keys {
		pos[i] = mph.Find(k)
		width = max(width, pos[i]+1)
	}
	x := &KeyIndex{mph: mph, keys: make([]uint64, width), used: make([]bool, width), count: len(keys)}
	for i, k := range keys {
		if x.used[pos[i]] {
			return nil, fmt.Errorf("perfect hash collision at key %d", k)
		}
		x.keys[pos[i]] = k
		x.used[pos[i]] = true
	}
	return x, nil
}

// Find returns the slot of key, or false when the key was not indexed.
func (x *KeyIndex) Find(key uint64) (int, bool) {
	if x == nil || x.mph == nil {
		return 0, false
	}
	i := x.mph.Find(key)
	if i >= uint64(len(x.keys)) || !x.used[i] || x.keys[i] != key {
		return 0, false
	}
	return int(i), true
}

// Len returns the number of indexed keys.
func (x *KeyIndex) Len() int {
	if x == nil {
		return 0
	}
	return x.count
}

// Slots returns the size of the slot range.
func (x *KeyIndex) Slots() int {
	if x == nil {
		return 0
	}
	return len(x.keys)
}

// Key returns the key stored at slot i, or false for an empty slot.
func (x *KeyIndex) Key(i int) (uint64, bool) {
	if i < 0 || i >= len(x.keys) || !x.used[i] {
		return 0, false
	}
	return x.keys[i], true
}

// Keys returns the indexed keys in slot order.
func (x *KeyIndex) Keys() []uint64 {
	out := make([]uint64, 0, x.Len())
	for i := range x.Slots() {
		if k, ok := x.Key(i); ok {
			out = append(out, k)
		}
	}
	return out
}
