// Package poker provides the card and hand primitives shared by the
// analytics pipeline: bit-packed cards, hole-combo enumeration, preflop
// categorization and showdown evaluation.
package poker

import (
	"fmt"
	"math/bits"
	"strings"
)

// Card represents a single card as a bit position in a uint64.
// Layout: [13 spades][13 hearts][13 diamonds][13 clubs], one bit per card.
type Card uint64

// Hand is also a uint64 but can contain multiple cards (multiple bits set).
type Hand uint64

// Suit constants
const (
	Clubs    uint8 = 0
	Diamonds uint8 = 1
	Hearts   uint8 = 2
	Spades   uint8 = 3
)

// Rank constants (0-12 for 2-A)
const (
	Two   uint8 = 0
	Three uint8 = 1
	Four  uint8 = 2
	Five  uint8 = 3
	Six   uint8 = 4
	Seven uint8 = 5
	Eight uint8 = 6
	Nine  uint8 = 7
	Ten   uint8 = 8
	Jack  uint8 = 9
	Queen uint8 = 10
	King  uint8 = 11
	Ace   uint8 = 12
)

// FullDeck is the Hand containing all 52 cards.
const FullDeck Hand = (1 << 52) - 1

// NewCard creates a card from rank (0-12) and suit (0-3).
func NewCard(rank, suit uint8) Card {
	return Card(1) << (suit*13 + rank)
}

// bitPosition returns which bit this card occupies (0-51), or 255 if invalid.
func (c Card) bitPosition() uint8 {
	if c == 0 {
		return 255
	}
	return uint8(bits.TrailingZeros64(uint64(c)))
}

// Rank returns the rank of the card (0-12), or 255 if invalid.
func (c Card) Rank() uint8 {
	pos := c.bitPosition()
	if pos == 255 {
		return 255
	}
	return pos % 13
}

// Suit returns the suit of the card (0-3), or 255 if invalid.
func (c Card) Suit() uint8 {
	pos := c.bitPosition()
	if pos == 255 {
		return 255
	}
	return pos / 13
}

// String returns the two-character representation (e.g., "As", "Kh").
func (c Card) String() string {
	const ranks = "23456789TJQKA"
	const suits = "cdhs"

	rank := c.Rank()
	suit := c.Suit()
	if rank > 12 || suit > 3 {
		return "??"
	}
	return string(ranks[rank]) + string(suits[suit])
}

// ParseCard parses a string like "As" into a Card.
func ParseCard(s string) (Card, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid card string: %q", s)
	}

	var rank uint8
	switch s[0] {
	case '2':
		rank = Two
	case '3':
		rank = Three
	case '4':
		rank = Four
	case '5':
		rank = Five
	case '6':
		rank = Six
	case '7':
		rank = Seven
	case '8':
		rank = Eight
	case '9':
		rank = Nine
	case 'T', 't':
		rank = Ten
	case 'J', 'j':
		rank = Jack
	case 'Q', 'q':
		rank = Queen
	case 'K', 'k':
		rank = King
	case 'A', 'a':
		rank = Ace
	default:
		return 0, fmt.Errorf("invalid rank: %c", s[0])
	}

	var suit uint8
	switch s[1] {
	case 'c', 'C':
		suit = Clubs
	case 'd', 'D':
		suit = Diamonds
	case 'h', 'H':
		suit = Hearts
	case 's', 'S':
		suit = Spades
	default:
		return 0, fmt.Errorf("invalid suit: %c", s[1])
	}

	return NewCard(rank, suit), nil
}

// ParseCards parses concatenated card notation ("AsKdQh") into a card slice.
// Spaces are ignored so "As Kd" also works.
func ParseCards(s string) ([]Card, error) {
	s = strings.ReplaceAll(s, " ", "")
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("invalid card string length: %d (must be even)", len(s))
	}

	cards := make([]Card, 0, len(s)/2)
	var seen Hand
	for i := 0; i < len(s); i += 2 {
		card, err := ParseCard(s[i : i+2])
		if err != nil {
			return nil, fmt.Errorf("card at position %d: %w", i, err)
		}
		if seen.HasCard(card) {
			return nil, fmt.Errorf("duplicate card %s", card)
		}
		seen.AddCard(card)
		cards = append(cards, card)
	}
	return cards, nil
}

// MustParseCards parses cards and panics on error (for tests and fixtures).
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(fmt.Sprintf("failed to parse cards %q: %v", s, err))
	}
	return cards
}

// NewHand creates a hand from multiple cards.
func NewHand(cards ...Card) Hand {
	var h Hand
	for _, c := range cards {
		h |= Hand(c)
	}
	return h
}

// AddCard adds a card to the hand.
func (h *Hand) AddCard(c Card) {
	*h |= Hand(c)
}

// HasCard checks if the hand contains a specific card.
func (h Hand) HasCard(c Card) bool {
	return (h & Hand(c)) != 0
}

// Overlaps reports whether the two hands share any card.
func (h Hand) Overlaps(other Hand) bool {
	return h&other != 0
}

// CountCards returns the number of cards in the hand.
func (h Hand) CountCards() int {
	return bits.OnesCount64(uint64(h))
}

// Cards returns the individual cards of the hand in bit order.
func (h Hand) Cards() []Card {
	cards := make([]Card, 0, h.CountCards())
	v := uint64(h)
	for v != 0 {
		low := v & -v
		cards = append(cards, Card(low))
		v &^= low
	}
	return cards
}

// String returns the concatenated card notation of the hand.
func (h Hand) String() string {
	var sb strings.Builder
	for _, c := range h.Cards() {
		sb.WriteString(c.String())
	}
	return sb.String()
}

// GetSuitMask returns the cards of a specific suit as a 13-bit rank mask.
func (h Hand) GetSuitMask(suit uint8) uint16 {
	return uint16((h >> (suit * 13)) & 0x1FFF)
}

// GetRankMask returns a bitmask of which ranks are present.
func (h Hand) GetRankMask() uint16 {
	mask := uint16(0)
	for suit := uint8(0); suit < 4; suit++ {
		mask |= h.GetSuitMask(suit)
	}
	return mask
}

// AllCards returns all 52 cards in deck order.
func AllCards() []Card {
	cards := make([]Card, 0, 52)
	for suit := uint8(0); suit < 4; suit++ {
		for rank := uint8(0); rank < 13; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// RemainingCards returns every card not present in dead.
func RemainingCards(dead Hand) []Card {
	cards := make([]Card, 0, 52-dead.CountCards())
	for _, c := range AllCards() {
		if !dead.HasCard(c) {
			cards = append(cards, c)
		}
	}
	return cards
}

// AllCombos returns all 1326 two-card combinations as Hands.
func AllCombos() []Hand {
	all := AllCards()
	combos := make([]Hand, 0, 1326)
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			combos = append(combos, Hand(all[i])|Hand(all[j]))
		}
	}
	return combos
}
