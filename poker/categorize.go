package poker

// HoleCardCategory represents the strength category of hole cards.
type HoleCardCategory string

const (
	CategoryPremium HoleCardCategory = "premium"
	CategoryStrong  HoleCardCategory = "strong"
	CategoryMedium  HoleCardCategory = "medium"
	CategoryWeak    HoleCardCategory = "weak"
	CategoryTrash   HoleCardCategory = "trash"
	CategoryUnknown HoleCardCategory = "unknown"
)

// CategorizeHoleCards provides a simple preflop hand categorization.
// Categories: Premium (JJ+, AK), Strong (TT, AQ/AJ), Medium (77+, suited
// broadway), Weak (small pairs, suited connectors), Trash (everything else).
func CategorizeHoleCards(card1, card2 Card) HoleCardCategory {
	r1 := card1.Rank()
	r2 := card2.Rank()

	if r1 > 12 || r2 > 12 {
		return CategoryUnknown
	}

	// Work in 2-14 space so aces compare naturally high.
	rank1 := rankToValue(r1)
	rank2 := rankToValue(r2)
	suited := card1.Suit() == card2.Suit()

	small, big := rank1, rank2
	if small > big {
		small, big = big, small
	}
	isPair := small == big

	if isPair && small >= 11 { // JJ, QQ, KK, AA
		return CategoryPremium
	}
	if small == 13 && big == 14 { // AK
		return CategoryPremium
	}

	if isPair && small == 10 { // TT
		return CategoryStrong
	}
	if big == 14 && (small == 12 || small == 11) { // AQ, AJ
		return CategoryStrong
	}

	if isPair && small >= 7 && small <= 9 { // 77, 88, 99
		return CategoryMedium
	}
	if suited && small >= 10 && big >= 10 { // suited broadway
		return CategoryMedium
	}

	if isPair { // 22-66
		return CategoryWeak
	}
	if suited && big-small <= 2 { // suited connectors and one-gappers
		return CategoryWeak
	}
	if big == 14 { // any other ace
		return CategoryWeak
	}

	return CategoryTrash
}

// CategorizeCombo categorizes a two-card Hand.
func CategorizeCombo(combo Hand) HoleCardCategory {
	cards := combo.Cards()
	if len(cards) != 2 {
		return CategoryUnknown
	}
	return CategorizeHoleCards(cards[0], cards[1])
}

// ComboCategory returns the strength category of a combo against a board.
// With fewer than three board cards it falls back to the preflop category;
// postflop it classifies the made hand and draw potential.
func ComboCategory(combo, board Hand) HoleCardCategory {
	if board.CountCards() < 3 {
		return CategorizeCombo(combo)
	}
	return categorizePostflop(combo, board)
}

// categorizePostflop buckets a combo by made-hand strength on the board.
// "premium"/"strong" hands have improved past the board's own strength,
// "medium" hands carry a pair or a strong draw, everything else is weak.
func categorizePostflop(combo, board Hand) HoleCardCategory {
	all := combo | board

	comboRanks := [2]uint8{}
	for i, c := range combo.Cards() {
		comboRanks[i] = c.Rank()
	}

	boardRanks := board.GetRankMask()
	pairedWithBoard := 0
	pocketPair := comboRanks[0] == comboRanks[1]
	for _, r := range comboRanks {
		if boardRanks&(1<<r) != 0 {
			pairedWithBoard++
		}
	}

	// Flush made or four to a flush.
	bestSuitCount := 0
	for suit := uint8(0); suit < 4; suit++ {
		if n := countBits16(all.GetSuitMask(suit)); n > bestSuitCount {
			bestSuitCount = n
		}
	}

	straightCount := longestRankRun(all.GetRankMask())

	switch {
	case bestSuitCount >= 5 || straightCount >= 5:
		return CategoryPremium
	case pocketPair && pairedWithBoard > 0: // set
		return CategoryPremium
	case pairedWithBoard >= 2: // two pair using both hole cards
		return CategoryStrong
	case pocketPair && comboRanks[0] >= highestBoardRank(board):
		return CategoryStrong // overpair
	case pairedWithBoard == 1 && maxRank(comboRanks) >= highestBoardRank(board):
		return CategoryStrong // top pair
	case pairedWithBoard == 1 || pocketPair:
		return CategoryMedium
	case bestSuitCount == 4 || straightCount == 4:
		return CategoryMedium // strong draw
	case maxRank(comboRanks) > highestBoardRank(board):
		return CategoryWeak // overcards
	default:
		return CategoryTrash
	}
}

func countBits16(v uint16) int {
	n := 0
	for v != 0 {
		v &= v - 1
		n++
	}
	return n
}

// longestRankRun returns the longest run of consecutive ranks, treating the
// ace as both high and low.
func longestRankRun(ranks uint16) int {
	// Duplicate the ace below the deuce for wheel detection.
	extended := uint32(ranks) << 1
	if ranks&(1<<12) != 0 {
		extended |= 1
	}

	best, run := 0, 0
	for i := 0; i < 14; i++ {
		if extended&(1<<i) != 0 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}

func highestBoardRank(board Hand) uint8 {
	mask := board.GetRankMask()
	for r := 12; r >= 0; r-- {
		if mask&(1<<r) != 0 {
			return uint8(r)
		}
	}
	return 0
}

func maxRank(ranks [2]uint8) uint8 {
	if ranks[0] > ranks[1] {
		return ranks[0]
	}
	return ranks[1]
}

func rankToValue(rank uint8) int {
	return int(rank) + 2
}
