package ranges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNotationComboCounts(t *testing.T) {
	tests := []struct {
		notation string
		combos   int
	}{
		{"AA", 6},
		{"AKs", 4},
		{"AKo", 12},
		{"AK", 16},
		{"TT+", 30},       // TT JJ QQ KK AA
		{"22-66", 30},     // five pairs
		{"A5s-A2s", 16},   // four suited kickers
		{"KTs+", 12},      // KTs KJs KQs
		{"QJo+", 12},      // QJo only: kicker runs up to the high card
		{"AA,KK,AKs", 16}, // union
		{"T9s+", 4},       // T9s only: plus ranges keep the high card fixed
	}

	for _, tt := range tests {
		t.Run(tt.notation, func(t *testing.T) {
			combos, err := ParseNotation(tt.notation)
			require.NoError(t, err)
			assert.Len(t, combos, tt.combos)
		})
	}
}

func TestParseNotationErrors(t *testing.T) {
	for _, notation := range []string{"XX", "A", "AAs", "AKx", "A5s-K2s", "AKQs"} {
		_, err := ParseNotation(notation)
		assert.Error(t, err, "notation %q", notation)
	}
}

func TestParseNotationSkipsEmptyParts(t *testing.T) {
	combos, err := ParseNotation("AA, ,KK")
	require.NoError(t, err)
	assert.Len(t, combos, 12)
}
