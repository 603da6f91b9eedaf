// Package game implements the heads-up no-limit hold'em betting engine.
//
// A Game models one hand between two seats with fixed blinds and equal
// starting stacks. Seat 0 posts the small blind and acts first on every
// street.
//
// # Basic Usage
//
//	g, err := game.New(game.DefaultRules(), game.WithDeck(poker.NewDeck(rng)))
//	if err != nil {
//	    return err
//	}
//	for !g.Terminal() {
//	    legal := g.LegalActions()
//	    if err := g.Play(legal[1]); err != nil { // check or call
//	        return err
//	    }
//	}
//	delta, _ := g.Utility()
//
// # Action Labels
//
// An ActionPolicy injected with WithPolicy labels each played action. The
// labels of the current street form the abstract bet history used by the
// solver's information sets; they are cleared when a street completes.
//
// Clone returns an independent deep copy, so search code can explore
// hypothetical continuations from a shared position.
package game
