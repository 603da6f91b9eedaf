// Package statistics accumulates per-hand results of evaluation matches.
package statistics

import (
	"fmt"
	"math"
	"slices"

	"github.com/lox/holdem-cfr/internal/game"
)

// HandResult is the outcome of one hand from the evaluated player's seat.
type HandResult struct {
	NetBB          float64
	Seat           int
	WentToShowdown bool
	// FinalPot and BigBlind are in chips.
	FinalPot int
	BigBlind int
	Street   game.Street
}

// SeatStats accumulates the results played from one seat.
type SeatStats struct {
	Hands  int
	SumBB  float64
	SumBB2 float64
}

// Mean returns the seat's big blinds per hand.
func (s SeatStats) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// Statistics tracks a heads-up match.
type Statistics struct {
	Hands  int
	SumBB  float64
	SumBB2 float64
	Values []float64

	ShowdownWins    int
	NonShowdownWins int
	// ShowdownBB and NonShowdownBB split AllBB by how the hand ended.
	ShowdownBB    float64
	NonShowdownBB float64
	AllBB         float64

	Seats   [2]SeatStats
	Streets [game.NumStreets + 1]int

	MaxPotBB  float64
	BigPots   int // pots of at least 50bb
	BigPotsBB float64
}

// Mean returns big blinds per hand.
func (s *Statistics) Mean() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.SumBB / float64(s.Hands)
}

// Variance returns the sample variance.
func (s *Statistics) Variance() float64 {
	if s.Hands < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumBB2 - float64(s.Hands)*mean*mean) / float64(s.Hands-1)
}

func (s *Statistics) StdDev() float64 {
	return math.Sqrt(max(s.Variance(), 0))
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Hands == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Hands))
}

// ConfidenceInterval95 returns the normal 95% interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// BBPer100 scales the mean to a hundred hands.
func (s *Statistics) BBPer100() float64 { return s.Mean() * 100 }

// Add records a hand.
func (s *Statistics) Add(result HandResult) {
	netBB := result.NetBB
	s.Hands++
	s.SumBB += netBB
	s.SumBB2 += netBB * netBB
	s.Values = append(s.Values, netBB)

	if netBB > 0 {
		if result.WentToShowdown {
			s.ShowdownWins++
		} else {
			s.NonShowdownWins++
		}
	}
	if result.WentToShowdown {
		s.ShowdownBB += netBB
	} else {
		s.NonShowdownBB += netBB
	}
	s.AllBB += netBB

	if result.Seat == 0 || result.Seat == 1 {
		seat := &s.Seats[result.Seat]
		seat.Hands++
		seat.SumBB += netBB
		seat.SumBB2 += netBB * netBB
	}
	if result.Street >= game.Preflop && result.Street <= game.Showdown {
		s.Streets[result.Street]++
	}

	if result.BigBlind > 0 {
		potBB := float64(result.FinalPot) / float64(result.BigBlind)
		s.MaxPotBB = max(s.MaxPotBB, potBB)
		if potBB >= 50 {
			s.BigPots++
			s.BigPotsBB += netBB
		}
	}
}

// Median returns the median result.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile interpolates linearly between the sorted results; p is in
// [0, 1].
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := slices.Sorted(slices.Values(s.Values))

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// IsLedgerBalanced checks that the showdown split adds up.
func (s *Statistics) IsLedgerBalanced() bool {
	return math.Abs(s.AllBB-s.ShowdownBB-s.NonShowdownBB) <= 1e-6
}

// Validate checks the internal consistency of the accumulated data.
func (s *Statistics) Validate() error {
	if !s.IsLedgerBalanced() {
		return fmt.Errorf("ledger mismatch: AllBB=%.6f, ShowdownBB=%.6f, NonShowdownBB=%.6f",
			s.AllBB, s.ShowdownBB, s.NonShowdownBB)
	}
	if s.Hands <= 0 {
		return fmt.Errorf("invalid hands count: %d", s.Hands)
	}
	if len(s.Values) != s.Hands {
		return fmt.Errorf("values array length (%d) does not match hands count (%d)",
			len(s.Values), s.Hands)
	}
	if wins := s.ShowdownWins + s.NonShowdownWins; wins > s.Hands {
		return fmt.Errorf("total wins (%d) exceeds total hands (%d)", wins, s.Hands)
	}
	if seats := s.Seats[0].Hands + s.Seats[1].Hands; seats != s.Hands {
		return fmt.Errorf("seat hands total (%d) does not match total hands (%d)", seats, s.Hands)
	}
	return nil
}
