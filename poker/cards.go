package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Card is a playing card encoded as suit*13 + rank, so the 52-card universe
// maps onto [0, 52).
type Card uint8

// Suits
const (
	Clubs uint8 = iota
	Diamonds
	Hearts
	Spades
)

// Ranks, deuce through ace.
const (
	Two uint8 = iota
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const (
	NumSuits = 4
	NumRanks = 13
	NumCards = NumSuits * NumRanks
)

const (
	rankChars = "23456789TJQKA"
	suitChars = "cdhs"
)

// NewCard builds a card from a rank (Two..Ace) and suit (Clubs..Spades).
func NewCard(rank, suit uint8) Card {
	return Card(suit*NumRanks + rank)
}

// Rank returns the card rank (0 = deuce, 12 = ace).
func (c Card) Rank() uint8 { return uint8(c) % NumRanks }

// Suit returns the card suit.
func (c Card) Suit() uint8 { return uint8(c) / NumRanks }

// Valid reports whether the card lies inside the 52-card universe.
func (c Card) Valid() bool { return c < NumCards }

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return string([]byte{rankChars[c.Rank()], suitChars[c.Suit()]})
}

// ParseCard parses two-character notation such as "As" or "Td".
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card %q", s)
	}
	rank := strings.IndexByte(rankChars, upper(s[0]))
	if rank < 0 {
		return 0, fmt.Errorf("invalid rank in card %q", s)
	}
	suit := strings.IndexByte(suitChars, lower(s[1]))
	if suit < 0 {
		return 0, fmt.Errorf("invalid suit in card %q", s)
	}
	return NewCard(uint8(rank), uint8(suit)), nil
}

// ParseCards parses a run of cards, with or without separating spaces
// ("AsKd", "As Kd" and "As,Kd" are all accepted). Duplicates are rejected.
func ParseCards(s string) ([]Card, error) {
	s = strings.NewReplacer(" ", "", ",", "").Replace(s)
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card list %q", s)
	}
	cards := make([]Card, 0, len(s)/2)
	var seen CardSet
	for i := 0; i < len(s); i += 2 {
		c, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, err
		}
		if seen.Contains(c) {
			return nil, fmt.Errorf("duplicate card %s", c)
		}
		seen.Add(c)
		cards = append(cards, c)
	}
	return cards, nil
}

// MustParseCards is ParseCards for literals; it panics on malformed input.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// FormatCards renders cards back to compact notation.
func FormatCards(cards []Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(c.String())
	}
	return b.String()
}

// AllCards returns the 52-card universe in index order.
func AllCards() []Card {
	cards := make([]Card, NumCards)
	for i := range cards {
		cards[i] = Card(i)
	}
	return cards
}

// CardSet is a bitset over the 52-card universe.
type CardSet uint64

// NewCardSet builds a set from the given cards.
func NewCardSet(cards ...Card) CardSet {
	var cs CardSet
	for _, c := range cards {
		cs.Add(c)
	}
	return cs
}

// Add inserts a card.
func (cs *CardSet) Add(c Card) { *cs |= 1 << c }

// Remove deletes a card.
func (cs *CardSet) Remove(c Card) { *cs &^= 1 << c }

// Contains reports membership.
func (cs CardSet) Contains(c Card) bool { return cs&(1<<c) != 0 }

// Count returns the number of cards in the set.
func (cs CardSet) Count() int { return bits.OnesCount64(uint64(cs)) }

// Complement returns every card of the universe not in the set.
func (cs CardSet) Complement() CardSet {
	return ^cs & (1<<NumCards - 1)
}

// Cards lists the set in ascending index order.
func (cs CardSet) Cards() []Card {
	out := make([]Card, 0, cs.Count())
	for m := uint64(cs); m != 0; m &= m - 1 {
		out = append(out, Card(bits.TrailingZeros64(m)))
	}
	return out
}

// suitMasks returns the 13-bit rank mask held in each suit.
func suitMasks(cards []Card) [NumSuits]uint16 {
	var masks [NumSuits]uint16
	for _, c := range cards {
		masks[c.Suit()] |= 1 << c.Rank()
	}
	return masks
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}
