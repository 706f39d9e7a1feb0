package poker

import (
	ph "github.com/paulhankin/poker"
)

// Rank is a showdown strength score. Higher is stronger.
type Rank int16

// Compare returns 1 if r beats other, -1 if other beats r, 0 on a chop.
func (r Rank) Compare(other Rank) int {
	switch {
	case r > other:
		return 1
	case r < other:
		return -1
	default:
		return 0
	}
}

// toLibCard converts a bit-packed Card to the library representation.
// Library ranks run 1-13 with Ace=1; ours run 0-12 with Ace=12.
func toLibCard(c Card) ph.Card {
	var s ph.Suit
	switch c.Suit() {
	case Clubs:
		s = ph.Club
	case Diamonds:
		s = ph.Diamond
	case Hearts:
		s = ph.Heart
	default:
		s = ph.Spade
	}

	var r ph.Rank
	if c.Rank() == Ace {
		r = ph.Rank(1)
	} else {
		r = ph.Rank(c.Rank() + 2)
	}

	card, _ := ph.MakeCard(s, r)
	return card
}

// Evaluate7 scores the best five-card hand out of a 7-card Hand.
// The Hand must contain exactly seven cards.
func Evaluate7(h Hand) Rank {
	var a7 [7]ph.Card
	for i, c := range h.Cards() {
		a7[i] = toLibCard(c)
	}
	return Rank(ph.Eval7(&a7))
}

// Evaluate5 scores a five-card Hand.
func Evaluate5(h Hand) Rank {
	var a5 [5]ph.Card
	for i, c := range h.Cards() {
		a5[i] = toLibCard(c)
	}
	return Rank(ph.Eval5(&a5))
}

// EvaluateBest scores the best five-card hand from a Hand of 5, 6 or 7 cards.
func EvaluateBest(h Hand) Rank {
	switch h.CountCards() {
	case 7:
		return Evaluate7(h)
	case 5:
		return Evaluate5(h)
	case 6:
		cards := h.Cards()
		best := Rank(-1 << 15)
		var five [5]ph.Card
		for skip := 0; skip < 6; skip++ {
			k := 0
			for i, c := range cards {
				if i == skip {
					continue
				}
				five[k] = toLibCard(c)
				k++
			}
			if r := Rank(ph.Eval5(&five)); r > best {
				best = r
			}
		}
		return best
	default:
		return 0
	}
}

// Describe returns a human-readable description of the best hand, e.g.
// "two pair, Kings and Tens". Empty string if the hand cannot be described.
func Describe(h Hand) string {
	cards := h.Cards()
	libCards := make([]ph.Card, len(cards))
	for i, c := range cards {
		libCards[i] = toLibCard(c)
	}
	desc, err := ph.Describe(libCards)
	if err != nil {
		return ""
	}
	return desc
}
