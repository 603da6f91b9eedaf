package solver

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strconv"
	"strings"

	"github.com/lox/holdem-cfr/internal/abstraction"
	"github.com/lox/holdem-cfr/internal/game"
	"github.com/lox/holdem-cfr/poker"
)

// ErrNotEnumerated is returned when training reaches an infoset that the
// forward enumeration did not produce.
var ErrNotEnumerated = errors.New("infoset not enumerated")

// Clusters resolves concrete cards to abstraction cluster ids.
// *abstraction.Classifier implements it.
type Clusters interface {
	Private(street game.Street, hole, board []poker.Card) int
	Public(street game.Street, board []poker.Card) int
	Counts(level abstraction.Level) []int
}

var _ Clusters = (*abstraction.Classifier)(nil)

// InfosetEntry is the abstract view the acting seat has of a hand. Public
// and Private hold one cluster id per street reached, preflop first.
type InfosetEntry struct {
	Street  game.Street
	Seat    int
	Public  []int
	Private []int
	Stack   int
	History []string
}

// Key serialises the entry as "street/seat/pub.pub/priv.priv/stack/h1,h2",
// e.g. "flop/1/0.1/2.0/1/r50,c".
func (e InfosetEntry) Key() string {
	var b strings.Builder
	b.WriteString(e.Street.String())
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(e.Seat))
	b.WriteByte('/')
	writeIDs(&b, e.Public)
	b.WriteByte('/')
	writeIDs(&b, e.Private)
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(e.Stack))
	b.WriteByte('/')
	b.WriteString(strings.Join(e.History, ","))
	return b.String()
}

func writeIDs(b *strings.Builder, ids []int) {
	for i, id := range ids {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(id))
	}
}

// ParseKey is the inverse of InfosetEntry.Key.
func ParseKey(key string) (InfosetEntry, error) {
	parts := strings.Split(key, "/")
	if len(parts) != 6 {
		return InfosetEntry{}, fmt.Errorf("infoset key %q: want 6 fields, have %d", key, len(parts))
	}
	var (
		e   InfosetEntry
		err error
	)
	if e.Street, err = game.ParseStreet(parts[0]); err != nil {
		return InfosetEntry{}, fmt.Errorf("infoset key %q: %w", key, err)
	}
	if e.Seat, err = strconv.Atoi(parts[1]); err != nil {
		return InfosetEntry{}, fmt.Errorf("infoset key %q: seat: %w", key, err)
	}
	if e.Public, err = parseIDs(parts[2]); err != nil {
		return InfosetEntry{}, fmt.Errorf("infoset key %q: public: %w", key, err)
	}
	if e.Private, err = parseIDs(parts[3]); err != nil {
		return InfosetEntry{}, fmt.Errorf("infoset key %q: private: %w", key, err)
	}
	if e.Stack, err = strconv.Atoi(parts[4]); err != nil {
		return InfosetEntry{}, fmt.Errorf("infoset key %q: stack: %w", key, err)
	}
	if parts[5] != "" {
		e.History = strings.Split(parts[5], ",")
	}
	return e, nil
}

func parseIDs(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	fields := strings.Split(s, ".")
	ids := make([]int, len(fields))
	for i, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

// Indexer maps concrete game states onto infoset entries.
type Indexer struct {
	clusters Clusters
	rules    game.Rules
	divisor  int
}

// NewIndexer returns an indexer bucketing effective stacks by divisor.
func NewIndexer(clusters Clusters, rules game.Rules, divisor int) *Indexer {
	return &Indexer{clusters: clusters, rules: rules, divisor: divisor}
}

// Lookup resolves the clusters of every street reached and buckets the
// effective stack. Showdown shares the river's clusters.
func (ix *Indexer) Lookup(street game.Street, seat int, hole, board []poker.Card, stack int, history []string) InfosetEntry {
	reached := min(street, game.River)
	e := InfosetEntry{
		Street:  street,
		Seat:    seat,
		Public:  make([]int, 0, reached+1),
		Private: make([]int, 0, reached+1),
		Stack:   stack / ix.divisor,
		History: slices.Clone(history),
	}
	for s := game.Preflop; s <= reached; s++ {
		e.Public = append(e.Public, ix.clusters.Public(s, board))
		e.Private = append(e.Private, ix.clusters.Private(s, hole, board))
	}
	return e
}

// FromGame returns the entry of the acting seat. The history is the
// game's current-street labels, so the game should be created with the
// solver's ActionLadder as its policy.
func (ix *Indexer) FromGame(g *game.Game) InfosetEntry {
	seat := g.Turn()
	hole := g.Hole(seat)
	return ix.Lookup(g.Street(), seat, hole[:], g.Board(), g.EffectiveStack(), g.Labels())
}

// StackBuckets returns the number of stack buckets a hand can reach.
func (ix *Indexer) StackBuckets() int {
	return (ix.rules.Stack-ix.rules.BigBlind)/ix.divisor + 1
}

// Forward enumerates every infoset reachable under the action abstraction,
// street by street and, within a street, by history length, so that every
// entry follows the entries it can be reached from. Per-street histories
// hold up to depth actions from the full ladder followed by at most one
// fold or call. Showdown entries carry no history.
//
// The enumeration is a superset of what play can reach; histories the
// betting rules forbid are included.
func (ix *Indexer) Forward(depth int, ladder *ActionLadder) iter.Seq[InfosetEntry] {
	menu := func(n int) []AbstractAction {
		if n >= depth {
			return ladder.LimitMenu()
		}
		return ladder.Actions()
	}
	private := ix.clusters.Counts(abstraction.Private)
	public := ix.clusters.Counts(abstraction.Public)

	return func(yield func(InfosetEntry) bool) {
		for street := game.Preflop; street <= game.Showdown; street++ {
			reached := min(street, game.River)
			privs := product(private[:reached+1])
			pubs := product(public[:reached+1])

			maxLen := depth + 1
			if street == game.Showdown {
				maxLen = 0
			}
			histories := [][]string{nil}
			for n := 0; n <= maxLen; n++ {
				for _, h := range histories {
					for _, priv := range privs {
						for _, pub := range pubs {
							for stack := range ix.StackBuckets() {
								for seat := range 2 {
									e := InfosetEntry{Street: street, Seat: seat, Public: pub, Private: priv, Stack: stack, History: h}
									if !yield(e) {
										return
									}
								}
							}
						}
					}
				}
				var next [][]string
				for _, h := range histories {
					for _, a := range menu(n) {
						next = append(next, append(slices.Clone(h), a.Code()))
					}
				}
				histories = next
			}
		}
	}
}

// product lists every id vector with ids[i] < counts[i].
func product(counts []int) [][]int {
	out := [][]int{{}}
	for _, k := range counts {
		var next [][]int
		for _, prefix := range out {
			for id := range k {
				next = append(next, append(slices.Clone(prefix), id))
			}
		}
		out = next
	}
	return out
}
