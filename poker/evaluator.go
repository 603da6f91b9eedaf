package poker

import (
	"fmt"
	"math/bits"
)

// HandValue totally orders hand strength: a higher value is a stronger hand.
// The category occupies bits 20 and up; the low 20 bits hold up to five
// kicker ranks, one nibble each, most significant first.
type HandValue uint32

// Category is the hand class, ordered weakest to strongest. Each category
// owns a disjoint band of HandValue.
type Category uint8

const (
	NoHand Category = iota
	HighCard
	Pair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

const categoryShift = 20

var categoryNames = [...]string{
	NoHand:        "No Hand",
	HighCard:      "High Card",
	Pair:          "Pair",
	TwoPair:       "Two Pair",
	ThreeOfAKind:  "Three of a Kind",
	Straight:      "Straight",
	Flush:         "Flush",
	FullHouse:     "Full House",
	FourOfAKind:   "Four of a Kind",
	StraightFlush: "Straight Flush",
	RoyalFlush:    "Royal Flush",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// Category returns the hand class encoded in the value.
func (v HandValue) Category() Category {
	return Category(v >> categoryShift)
}

// Kickers returns the packed tie-break ranks, most significant first.
func (v HandValue) Kickers() []uint8 {
	out := make([]uint8, 0, 5)
	for shift := 16; shift >= 0; shift -= 4 {
		out = append(out, uint8(v>>shift)&0xF)
	}
	return out
}

// String describes the hand, e.g. "Pair of Ks" or "Straight, 5 high".
func (v HandValue) String() string {
	k := v.Kickers()
	r := func(i int) string { return string(rankChars[k[i]]) }
	switch v.Category() {
	case HighCard:
		return fmt.Sprintf("High Card, %s", r(0))
	case Pair:
		return fmt.Sprintf("Pair of %ss", r(0))
	case TwoPair:
		return fmt.Sprintf("Two Pair, %ss and %ss", r(0), r(1))
	case ThreeOfAKind:
		return fmt.Sprintf("Three %ss", r(0))
	case Straight:
		return fmt.Sprintf("Straight, %s high", r(0))
	case Flush:
		return fmt.Sprintf("Flush, %s high", r(0))
	case FullHouse:
		return fmt.Sprintf("Full House, %ss full of %ss", r(0), r(1))
	case FourOfAKind:
		return fmt.Sprintf("Four %ss", r(0))
	case StraightFlush:
		return fmt.Sprintf("Straight Flush, %s high", r(0))
	default:
		return v.Category().String()
	}
}

func makeValue(c Category, kickers ...uint8) HandValue {
	v := HandValue(c) << categoryShift
	shift := 16
	for _, k := range kickers {
		v |= HandValue(k) << shift
		shift -= 4
	}
	return v
}

// Evaluator scores 5 to 7 cards.
type Evaluator interface {
	Evaluate(cards []Card) HandValue
}

// Direct evaluates hands from scratch without any table.
type Direct struct{}

// Evaluate implements Evaluator.
func (Direct) Evaluate(cards []Card) HandValue { return Evaluate(cards) }

// fiveSubsets[n] lists the bitmasks over n cards with exactly five bits set.
var fiveSubsets = func() [MaxHashCards + 1][]uint8 {
	var out [MaxHashCards + 1][]uint8
	for n := 5; n <= MaxHashCards; n++ {
		for m := 0; m < 1<<n; m++ {
			if bits.OnesCount8(uint8(m)) == 5 {
				out[n] = append(out[n], uint8(m))
			}
		}
	}
	return out
}()

// Evaluate returns the value of the best five-card hand among 5 to 7 cards
// by scoring every five-card subset. It returns 0 for other sizes.
func Evaluate(cards []Card) HandValue {
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
		if v := Evaluate5(five); v > best {
			best = v
		}
	}
	return best
}

// Evaluate5 scores exactly five cards.
func Evaluate5(cards [5]Card) HandValue {
	masks := suitMasks(cards[:])
	s0, s1, s2, s3 := masks[0], masks[1], masks[2], masks[3]
	rankMask := s0 | s1 | s2 | s3

	flush := s0 == rankMask || s1 == rankMask || s2 == rankMask || s3 == rankMask
	distinct := bits.OnesCount16(rankMask) == 5
	if distinct {
		high, straight := straightHigh(rankMask)
		switch {
		case straight && flush && high == Ace:
			return makeValue(RoyalFlush)
		case straight && flush:
			return makeValue(StraightFlush, high)
		case flush:
			return makeValue(Flush, topRanks(rankMask, 5)...)
		case straight:
			return makeValue(Straight, high)
		default:
			return makeValue(HighCard, topRanks(rankMask, 5)...)
		}
	}

	quads := s0 & s1 & s2 & s3
	trips := (s0&s1&s2 | s0&s1&s3 | s0&s2&s3 | s1&s2&s3) &^ quads
	pairs := (s0&s1 | s0&s2 | s0&s3 | s1&s2 | s1&s3 | s2&s3) &^ (trips | quads)

	switch {
	case quads != 0:
		q := highestRank(quads)
		return makeValue(FourOfAKind, q, highestRank(rankMask&^(1<<q)))
	case trips != 0 && pairs != 0:
		return makeValue(FullHouse, highestRank(trips), highestRank(pairs))
	case trips != 0:
		t := highestRank(trips)
		return makeValue(ThreeOfAKind, append([]uint8{t}, topRanks(rankMask&^(1<<t), 2)...)...)
	case bits.OnesCount16(pairs) == 2:
		hi := highestRank(pairs)
		lo := highestRank(pairs &^ (1 << hi))
		return makeValue(TwoPair, hi, lo, highestRank(rankMask&^pairs))
	default:
		p := highestRank(pairs)
		return makeValue(Pair, append([]uint8{p}, topRanks(rankMask&^(1<<p), 3)...)...)
	}
}

// straightHigh reports the top rank of a five-rank straight. A-2-3-4-5 (the
// wheel) counts as a five-high straight.
func straightHigh(mask uint16) (uint8, bool) {
	const wheelMask = 1<<Ace | 1<<Two | 1<<Three | 1<<Four | 1<<Five
	if mask == wheelMask {
		return Five, true
	}
	low := bits.TrailingZeros16(mask)
	if mask>>low == 0x1F {
		return uint8(low) + 4, true
	}
	return 0, false
}

func highestRank(mask uint16) uint8 {
	return uint8(bits.Len16(mask) - 1)
}

// topRanks returns the n highest ranks in the mask, descending.
func topRanks(mask uint16, n int) []uint8 {
	out := make([]uint8, 0, n)
	for len(out) < n && mask != 0 {
		top := highestRank(mask)
		out = append(out, top)
		mask &^= 1 << top
	}
	return out
}

// Outcome is the result of a heads-up showdown.
type Outcome uint8

const (
	Tie Outcome = iota
	WinA
	WinB
)

func (o Outcome) String() string {
	switch o {
	case WinA:
		return "A"
	case WinB:
		return "B"
	default:
		return "tie"
	}
}

// CompareHands decides a showdown between two hole-card pairs on a shared
// board of three to five cards. Other board sizes cannot form a five-card
// hand and panic.
func CompareHands(ev Evaluator, board []Card, holeA, holeB [2]Card) Outcome {
	if len(board) < 3 || len(board) > 5 {
		panic(fmt.Sprintf("poker: cannot compare hands on a %d-card board", len(board)))
	}
	var a, b [MaxHashCards]Card
	n := copy(a[:], holeA[:])
	copy(a[n:], board)
	copy(b[:], holeB[:])
	copy(b[n:], board)
	va := ev.Evaluate(a[:n+len(board)])
	vb := ev.Evaluate(b[:n+len(board)])
	switch {
	case va > vb:
		return WinA
	case vb > va:
		return WinB
	default:
		return Tie
	}
}
