package poker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"

	"github.com/tinylib/msgp/msgp"
	"golang.org/x/sync/errgroup"
)

// RankTable stores the value of every suit-isomorphism class of a fixed
// subset size, addressed by HashCards through a minimal perfect hash.
type RankTable struct {
	size   int
	index  *KeyIndex
	values []HandValue
}

func newRankTable(size int, entries map[uint64]HandValue) (*RankTable, error) {
	keys := make([]uint64, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	index, err := NewKeyIndex(keys)
	if err != nil {
		return nil, err
	}
	values := make([]HandValue, index.Slots())
	for i := range values {
		if k, ok := index.Key(i); ok {
			values[i] = entries[k]
		}
	}
	return &RankTable{size: size, index: index, values: values}, nil
}

// Size returns the subset size the table covers.
func (t *RankTable) Size() int { return t.size }

// Len returns the number of isomorphism classes stored.
func (t *RankTable) Len() int { return t.index.Len() }

func (t *RankTable) lookup(cards []Card) (HandValue, bool) {
	i, ok := t.index.Find(HashCards(cards))
	if !ok {
		return 0, false
	}
	return t.values[i], true
}

// BuildFiveTable enumerates all C(52,5) hands and stores one value per
// suit-isomorphism class (134,459 entries).
func BuildFiveTable() (*RankTable, error) {
	entries := make(map[uint64]HandValue, 140000)
	var five [5]Card
	Combinations(AllCards(), 5, func(c []Card) bool {
		h := HashCards(c)
		if _, ok := entries[h]; !ok {
			copy(five[:], c)
			entries[h] = Evaluate5(five)
		}
		return true
	})
	return newRankTable(5, entries)
}

// BuildSevenTable enumerates every 7-card isomorphism class, scoring each as
// the best of its 21 five-card subsets through the five-card table. Work is
// split by lowest card across workers; workers <= 0 uses all CPUs.
func BuildSevenTable(ctx context.Context, five *RankTable, workers int) (*RankTable, error) {
	if five == nil || five.size != 5 {
		return nil, errors.New("seven-card table requires a five-card table")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	lt := &LookupTable{five: five}
	all := AllCards()

	var mu sync.Mutex
	entries := make(map[uint64]HandValue, 6100000)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for first := 0; first <= NumCards-7; first++ {
		g.Go(func() error {
			local := make(map[uint64]HandValue)
			hand := make([]Card, 7)
			hand[0] = all[first]
			var err error
			Combinations(all[first+1:], 6, func(rest []Card) bool {
				if err = ctx.Err(); err != nil {
					return false
				}
				copy(hand[1:], rest)
				if !isCanonical(hand) {
					return true
				}
				local[HashCards(hand)] = lt.bestOfFive(hand)
				return true
			})
			if err != nil {
				return err
			}
			mu.Lock()
			for k, v := range local {
				entries[k] = v
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newRankTable(7, entries)
}

// isCanonical reports whether cards are exactly their own canonical
// representative, which selects one member per isomorphism class.
func isCanonical(cards []Card) bool {
	return NewCardSet(cards...) == NewCardSet(CanonicalCards(cards)...)
}

// EncodeMsg writes the table as msgpack: [size, [keys...], [values...]].
func (t *RankTable) EncodeMsg(w io.Writer) error {
	mw := msgp.NewWriter(w)
	if err := mw.WriteArrayHeader(3); err != nil {
		return err
	}
	if err := mw.WriteInt(t.size); err != nil {
		return err
	}
	keys := t.index.Keys()
	if err := mw.WriteArrayHeader(uint32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		if err := mw.WriteUint64(k); err != nil {
			return err
		}
	}
	if err := mw.WriteArrayHeader(uint32(len(keys))); err != nil {
		return err
	}
	for _, k := range keys {
		i, _ := t.index.Find(k)
		if err := mw.WriteUint32(uint32(t.values[i])); err != nil {
			return err
		}
	}
	return mw.Flush()
}

// DecodeRankTable reads a table written by EncodeMsg and rebuilds its index.
func DecodeRankTable(r io.Reader) (*RankTable, error) {
	mr := msgp.NewReader(r)
	n, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("read table header: %w", err)
	}
	if n != 3 {
		return nil, fmt.Errorf("unexpected table header length %d", n)
	}
	size, err := mr.ReadInt()
	if err != nil {
		return nil, fmt.Errorf("read table size: %w", err)
	}
	nk, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("read keys: %w", err)
	}
	keys := make([]uint64, nk)
	for i := range keys {
		if keys[i], err = mr.ReadUint64(); err != nil {
			return nil, fmt.Errorf("read key %d: %w", i, err)
		}
	}
	nv, err := mr.ReadArrayHeader()
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	if nv != nk {
		return nil, fmt.Errorf("table has %d keys but %d values", nk, nv)
	}
	entries := make(map[uint64]HandValue, nk)
	for _, k := range keys {
		v, err := mr.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("read value: %w", err)
		}
		entries[k] = HandValue(v)
	}
	return newRankTable(size, entries)
}

// LookupTable is an immutable evaluator backed by precomputed rank tables.
// Construct it once and share it by reference; it is safe for concurrent use.
type LookupTable struct {
	five  *RankTable
	seven *RankTable
}

// NewLookupTable wraps a required five-card table and an optional
// seven-card table. Without the seven-card table, 7-card hands are scored
// as the best of their 21 five-card subsets.
func NewLookupTable(five, seven *RankTable) (*LookupTable, error) {
	if five == nil || five.size != 5 {
		return nil, errors.New("lookup table requires a five-card table")
	}
	if seven != nil && seven.size != 7 {
		return nil, fmt.Errorf("seven-card slot holds a %d-card table", seven.size)
	}
	return &LookupTable{five: five, seven: seven}, nil
}

// HasSeven reports whether the seven-card table is loaded.
func (t *LookupTable) HasSeven() bool { return t.seven != nil }

// Evaluate implements Evaluator.
func (t *LookupTable) Evaluate(cards []Card) HandValue {
	switch len(cards) {
	case 5:
		if v, ok := t.five.lookup(cards); ok {
			return v
		}
		var five [5]Card
		copy(five[:], cards)
		return Evaluate5(five)
	case 7:
		if t.seven != nil {
			if v, ok := t.seven.lookup(cards); ok {
				return v
			}
		}
	}
	return t.bestOfFive(cards)
}

func (t *LookupTable) bestOfFive(cards []Card) HandValue {
	n := len(cards)
	if n < 5 || n > MaxHashCards {
		return 0
	}
	var best HandValue
	var five [5]Card
	for _, m := range fiveSubsets[n] {
		j := 0
		for i := 0; i < n; i++ {
			if m&(1<<i) != 0 {
				five[j] = cards[i]
				j++
			}
		}
		v, ok := t.five.lookup(five[:])
		if !ok {
			v = Evaluate5(five)
		}
		if v > best {
			best = v
		}
	}
	return best
}
