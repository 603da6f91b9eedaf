package poker

import "fmt"

// MaxHashCards is the largest card subset the canonical hash supports.
const MaxHashCards = 7

// Each card contributes one base-53 digit (0 is reserved so that subsets of
// different sizes never collide). 53^7 stays below the 41-bit budget.
const (
	hashBase      = NumCards + 1
	hashBudgetBit = 41
	hashLimit     = uint64(1) << hashBudgetBit
)

// HashCards returns the canonical hash of a card subset. Subsets that differ
// only by a permutation of suits hash identically; all other subsets hash
// differently. Card order is irrelevant.
//
// It panics when more than MaxHashCards cards are supplied or the encoding
// would exceed its bit budget: every lookup table depends on this hash being
// injective, so silently wrapping is never acceptable.
func HashCards(cards []Card) uint64 {
	if len(cards) > MaxHashCards {
		panic(fmt.Sprintf("poker: cannot hash %d cards (max %d)", len(cards), MaxHashCards))
	}
	var keys [NumSuits]uint32
	masks := suitMasks(cards)
	for s, m := range masks {
		keys[s] = uint32(m)
	}
	remap := canonicalSuits(keys)

	var buf [MaxHashCards]uint8
	return encodeDigits(0, remapDigits(cards, remap, buf[:0]))
}

// HashDeal returns the canonical hash of a private hand against a board.
// Hole and board cards are canonicalised under a single suit permutation but
// encoded separately, so moving a card between hole and board changes the
// key. Keys from different hole sizes must not share a table.
func HashDeal(hole, board []Card) uint64 {
	if len(hole)+len(board) > MaxHashCards {
		panic(fmt.Sprintf("poker: cannot hash %d cards (max %d)", len(hole)+len(board), MaxHashCards))
	}
	holeMasks := suitMasks(hole)
	boardMasks := suitMasks(board)
	var keys [NumSuits]uint32
	for s := range keys {
		keys[s] = uint32(holeMasks[s])<<NumRanks | uint32(boardMasks[s])
	}
	remap := canonicalSuits(keys)

	var hd, bd [MaxHashCards]uint8
	h := encodeDigits(0, remapDigits(hole, remap, hd[:0]))
	return encodeDigits(h, remapDigits(board, remap, bd[:0]))
}

// CanonicalCards returns the suit-canonical representative of a subset, in
// ascending (rank, suit) order. HashCards(CanonicalCards(c)) == HashCards(c).
func CanonicalCards(cards []Card) []Card {
	var keys [NumSuits]uint32
	masks := suitMasks(cards)
	for s, m := range masks {
		keys[s] = uint32(m)
	}
	remap := canonicalSuits(keys)
	digits := remapDigits(cards, remap, make([]uint8, 0, len(cards)))
	out := make([]Card, len(digits))
	for i, d := range digits {
		out[i] = digitCard(d)
	}
	return out
}

// canonicalSuits orders suits by descending key; suits with equal keys are
// interchangeable, so any tie order yields the same encoding.
func canonicalSuits(keys [NumSuits]uint32) [NumSuits]uint8 {
	order := [NumSuits]uint8{0, 1, 2, 3}
	for i := 1; i < NumSuits; i++ {
		for j := i; j > 0 && keys[order[j]] > keys[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	var remap [NumSuits]uint8
	for pos, s := range order {
		remap[s] = uint8(pos)
	}
	return remap
}

// remapDigits appends each card as rank*4+canonicalSuit to dst, sorted
// ascending.
func remapDigits(cards []Card, remap [NumSuits]uint8, dst []uint8) []uint8 {
	for _, c := range cards {
		dst = append(dst, c.Rank()*NumSuits+remap[c.Suit()])
		for j := len(dst) - 1; j > 0 && dst[j] < dst[j-1]; j-- {
			dst[j], dst[j-1] = dst[j-1], dst[j]
		}
	}
	return dst
}

func digitCard(d uint8) Card {
	return NewCard(d/NumSuits, d%NumSuits)
}

func encodeDigits(h uint64, digits []uint8) uint64 {
	for _, d := range digits {
		if h >= (hashLimit-hashBase)/hashBase {
			panic(fmt.Sprintf("poker: canonical hash exceeded %d-bit budget", hashBudgetBit))
		}
		h = h*hashBase + uint64(d) + 1
	}
	return h
}

// Combinations calls fn with every k-subset of cards in lexicographic index
// order. The slice passed to fn is reused between calls; copy it to retain it.
// Returning false stops the enumeration.
func Combinations(cards []Card, k int, fn func([]Card) bool) {
	n := len(cards)
	if k < 0 || k > n {
		return
	}
	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	buf := make([]Card, k)
	for {
		for i, j := range idx {
			buf[i] = cards[j]
		}
		if !fn(buf) {
			return
		}
		i := k - 1
		for i >= 0 && idx[i] == n-k+i {
			i--
		}
		if i < 0 {
			return
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
