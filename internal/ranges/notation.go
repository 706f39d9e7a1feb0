// Package ranges maintains per-seat probability distributions over hole-card
// combinations, narrowed on every observed action.
package ranges

import (
	"fmt"
	"strings"

	"github.com/gmanldn/pokertool/poker"
)

// ParseNotation expands standard range notation into the set of hole combos
// it names, each with weight 1. Examples: "AA,KK", "AKs,AKo", "TT+",
// "A5s-A2s", "KTs+", "22-66".
func ParseNotation(notation string) (map[poker.Hand]float64, error) {
	combos := make(map[poker.Hand]float64)

	for part := range strings.SplitSeq(notation, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if err := addNotationPart(combos, part); err != nil {
			return nil, fmt.Errorf("invalid range part %q: %w", part, err)
		}
	}

	return combos, nil
}

func addNotationPart(combos map[poker.Hand]float64, part string) error {
	if strings.Contains(part, "+") {
		return addPlusRange(combos, part)
	}
	if strings.Contains(part, "-") {
		return addDashRange(combos, part)
	}
	return addSingleHand(combos, part)
}

func addSingleHand(combos map[poker.Hand]float64, notation string) error {
	if len(notation) < 2 || len(notation) > 3 {
		return fmt.Errorf("invalid notation length: %s", notation)
	}

	rank1 := parseRank(notation[0])
	rank2 := parseRank(notation[1])
	if rank1 == 0 || rank2 == 0 {
		return fmt.Errorf("invalid rank in: %s", notation)
	}

	if rank1 == rank2 {
		if len(notation) == 3 {
			return fmt.Errorf("pocket pairs cannot have suited/offsuit modifier: %s", notation)
		}
		addPocketPair(combos, rank1)
		return nil
	}

	if len(notation) == 2 {
		addSuitedCombos(combos, rank1, rank2)
		addOffsuitCombos(combos, rank1, rank2)
		return nil
	}

	switch notation[2] {
	case 's':
		addSuitedCombos(combos, rank1, rank2)
	case 'o':
		addOffsuitCombos(combos, rank1, rank2)
	default:
		return fmt.Errorf("invalid modifier: %c", notation[2])
	}
	return nil
}

// addPlusRange handles notations like "TT+" (all pairs TT and higher) and
// "KTs+" (KTs through KQs).
func addPlusRange(combos map[poker.Hand]float64, notation string) error {
	base := strings.TrimSuffix(notation, "+")
	if len(base) < 2 || len(base) > 3 {
		return fmt.Errorf("invalid base notation: %s", base)
	}

	rank1 := parseRank(base[0])
	rank2 := parseRank(base[1])
	if rank1 == 0 || rank2 == 0 {
		return fmt.Errorf("invalid rank")
	}

	if rank1 == rank2 {
		for rank := rank1; rank <= 14; rank++ {
			addPocketPair(combos, rank)
		}
		return nil
	}

	suited, offsuit := true, true
	switch {
	case len(base) == 2:
	case base[2] == 's':
		offsuit = false
	case base[2] == 'o':
		suited = false
	default:
		return fmt.Errorf("invalid modifier")
	}

	for rank := rank2; rank < rank1; rank++ {
		if suited {
			addSuitedCombos(combos, rank1, rank)
		}
		if offsuit {
			addOffsuitCombos(combos, rank1, rank)
		}
	}
	return nil
}

// addDashRange handles notations like "22-66" or "A5s-A2s".
func addDashRange(combos map[poker.Hand]float64, notation string) error {
	parts := strings.Split(notation, "-")
	if len(parts) != 2 {
		return fmt.Errorf("invalid dash range format")
	}

	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if len(start) < 2 || len(end) < 2 {
		return fmt.Errorf("invalid notation in range")
	}

	startRank1 := parseRank(start[0])
	startRank2 := parseRank(start[1])
	endRank1 := parseRank(end[0])
	endRank2 := parseRank(end[1])
	if startRank1 == 0 || startRank2 == 0 || endRank1 == 0 || endRank2 == 0 {
		return fmt.Errorf("invalid ranks in range")
	}

	// Pocket pair spans like "22-66".
	if startRank1 == startRank2 && endRank1 == endRank2 {
		lower, upper := min(startRank1, endRank1), max(startRank1, endRank1)
		for rank := lower; rank <= upper; rank++ {
			addPocketPair(combos, rank)
		}
		return nil
	}

	// Same high card, kicker span like "A5s-A2s".
	if startRank1 == endRank1 {
		suited, offsuit := true, true
		if len(start) == 3 {
			suited = start[2] == 's'
			offsuit = start[2] == 'o'
		}

		lower, upper := min(startRank2, endRank2), max(startRank2, endRank2)
		for rank := lower; rank <= upper; rank++ {
			if suited {
				addSuitedCombos(combos, startRank1, rank)
			}
			if offsuit {
				addOffsuitCombos(combos, startRank1, rank)
			}
		}
		return nil
	}

	return fmt.Errorf("unsupported range format: %s", notation)
}

// addPocketPair adds all 6 combinations of a pocket pair. Ranks are 2-14.
func addPocketPair(combos map[poker.Hand]float64, rank int) {
	pRank := uint8(rank - 2)
	for suit1 := uint8(0); suit1 < 4; suit1++ {
		for suit2 := suit1 + 1; suit2 < 4; suit2++ {
			hand := poker.Hand(poker.NewCard(pRank, suit1)) | poker.Hand(poker.NewCard(pRank, suit2))
			combos[hand] = 1.0
		}
	}
}

// addSuitedCombos adds all 4 suited combinations.
func addSuitedCombos(combos map[poker.Hand]float64, rank1, rank2 int) {
	pRank1 := uint8(rank1 - 2)
	pRank2 := uint8(rank2 - 2)
	for suit := uint8(0); suit < 4; suit++ {
		hand := poker.Hand(poker.NewCard(pRank1, suit)) | poker.Hand(poker.NewCard(pRank2, suit))
		combos[hand] = 1.0
	}
}

// addOffsuitCombos adds all 12 offsuit combinations.
func addOffsuitCombos(combos map[poker.Hand]float64, rank1, rank2 int) {
	pRank1 := uint8(rank1 - 2)
	pRank2 := uint8(rank2 - 2)
	for suit1 := uint8(0); suit1 < 4; suit1++ {
		for suit2 := uint8(0); suit2 < 4; suit2++ {
			if suit1 == suit2 {
				continue
			}
			hand := poker.Hand(poker.NewCard(pRank1, suit1)) | poker.Hand(poker.NewCard(pRank2, suit2))
			combos[hand] = 1.0
		}
	}
}

func parseRank(c byte) int {
	switch c {
	case '2', '3', '4', '5', '6', '7', '8', '9':
		return int(c - '0')
	case 'T':
		return 10
	case 'J':
		return 11
	case 'Q':
		return 12
	case 'K':
		return 13
	case 'A':
		return 14
	default:
		return 0
	}
}

