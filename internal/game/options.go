package game

import (
	"errors"
	"fmt"

	"github.com/lox/holdem-cfr/poker"
)

// Rules fixes the blinds and the equal starting stack.
type Rules struct {
	SmallBlind int `hcl:"small_blind,optional" json:"small_blind"`
	BigBlind   int `hcl:"big_blind,optional" json:"big_blind"`
	Stack      int `hcl:"stack,optional" json:"stack"`
}

// DefaultRules returns 10/20 blinds with 4000-chip stacks.
func DefaultRules() Rules {
	return Rules{SmallBlind: 10, BigBlind: 20, Stack: 4000}
}

// Validate checks that the rules describe a playable game.
func (r Rules) Validate() error {
	if r.SmallBlind <= 0 || r.BigBlind <= 0 {
		return errors.New("blinds must be positive")
	}
	if r.SmallBlind > r.BigBlind {
		return fmt.Errorf("small blind %d exceeds big blind %d", r.SmallBlind, r.BigBlind)
	}
	if r.Stack < r.BigBlind {
		return fmt.Errorf("stack %d cannot cover the big blind %d", r.Stack, r.BigBlind)
	}
	return nil
}

// Option configures a Game during creation.
type Option func(*gameConfig)

type gameConfig struct {
	deck   *poker.Deck
	cards  []poker.Card
	eval   poker.Evaluator
	policy ActionPolicy
}

// WithDeck deals both hands and the full board from deck.
func WithDeck(deck *poker.Deck) Option {
	return func(c *gameConfig) { c.deck = deck }
}

// WithCards fixes the hole cards of both seats and the five board cards.
func WithCards(hole0, hole1, board []poker.Card) Option {
	return func(c *gameConfig) {
		c.cards = make([]poker.Card, 0, 9)
		c.cards = append(c.cards, hole0...)
		c.cards = append(c.cards, hole1...)
		c.cards = append(c.cards, board...)
	}
}

// WithEvaluator sets the showdown evaluator; the default is poker.Direct.
func WithEvaluator(ev poker.Evaluator) Option {
	return func(c *gameConfig) { c.eval = ev }
}

// WithPolicy sets the policy that labels played actions.
func WithPolicy(p ActionPolicy) Option {
	return func(c *gameConfig) { c.policy = p }
}

// dealtCards returns the nine cards of the hand: two per seat then the
// board.
func (c *gameConfig) dealtCards() ([]poker.Card, error) {
	switch {
	case c.cards != nil:
		if len(c.cards) != 9 {
			return nil, fmt.Errorf("need 2+2 hole cards and 5 board cards, got %d cards", len(c.cards))
		}
		var seen poker.CardSet
		for _, card := range c.cards {
			if !card.Valid() || seen.Contains(card) {
				return nil, fmt.Errorf("card %v is invalid or dealt twice", card)
			}
			seen.Add(card)
		}
		return c.cards, nil
	case c.deck != nil:
		cards := c.deck.Deal(9)
		if cards == nil {
			return nil, errors.New("deck has fewer than 9 cards")
		}
		return cards, nil
	default:
		return nil, errors.New("no cards: use WithDeck or WithCards")
	}
}
