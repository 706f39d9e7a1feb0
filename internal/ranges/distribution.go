package ranges

import (
	"math"
	"slices"

	"github.com/gmanldn/pokertool/poker"
)

// ComboWeight pairs a hole combo with its probability mass.
type ComboWeight struct {
	Combo  poker.Hand
	Weight float64
}

// Distribution is a normalized probability distribution over hole-card
// combinations for one seat. Combos conflicting with visible cards carry no
// mass. Owned exclusively by the Estimator; readers get clones.
type Distribution struct {
	weights    map[poker.Hand]float64
	degenerate bool
}

// NewUniform returns a uniform distribution over all combos that do not
// conflict with the dead cards.
func NewUniform(dead poker.Hand) *Distribution {
	d := &Distribution{weights: make(map[poker.Hand]float64, 1326)}
	for _, combo := range poker.AllCombos() {
		if !combo.Overlaps(dead) {
			d.weights[combo] = 1.0
		}
	}
	d.normalize()
	return d
}

// NewWeighted builds a distribution from explicit combo weights, dropping
// combos that conflict with the dead cards and normalizing the rest.
func NewWeighted(weights map[poker.Hand]float64, dead poker.Hand) *Distribution {
	d := &Distribution{weights: make(map[poker.Hand]float64, len(weights))}
	for combo, w := range weights {
		if w > 0 && !combo.Overlaps(dead) {
			d.weights[combo] = w
		}
	}
	if !d.normalize() {
		return degenerateFallback(dead)
	}
	return d
}

// degenerateFallback is the uniform distribution used when evidence has
// zeroed out every legal combo.
func degenerateFallback(dead poker.Hand) *Distribution {
	d := NewUniform(dead)
	d.degenerate = true
	return d
}

// Degenerate reports whether this distribution is the uniform fallback after
// a modeling contradiction.
func (d *Distribution) Degenerate() bool { return d.degenerate }

// Size returns the number of combos with positive mass.
func (d *Distribution) Size() int { return len(d.weights) }

// Weight returns the probability mass of a combo.
func (d *Distribution) Weight(combo poker.Hand) float64 { return d.weights[combo] }

// Sum returns the total probability mass (1 within tolerance, 0 if empty).
func (d *Distribution) Sum() float64 {
	sum := 0.0
	for _, w := range d.weights {
		sum += w
	}
	return sum
}

// Entries returns the combos and weights sorted by combo value. The stable
// order is what makes weighted sampling reproducible under a fixed seed.
func (d *Distribution) Entries() []ComboWeight {
	entries := make([]ComboWeight, 0, len(d.weights))
	for combo, w := range d.weights {
		entries = append(entries, ComboWeight{Combo: combo, Weight: w})
	}
	slices.SortFunc(entries, func(a, b ComboWeight) int {
		switch {
		case a.Combo < b.Combo:
			return -1
		case a.Combo > b.Combo:
			return 1
		default:
			return 0
		}
	})
	return entries
}

// Clone returns an independent copy.
func (d *Distribution) Clone() *Distribution {
	c := &Distribution{weights: make(map[poker.Hand]float64, len(d.weights)), degenerate: d.degenerate}
	for combo, w := range d.weights {
		c.weights[combo] = w
	}
	return c
}

// reweight multiplies each combo's mass by factor(combo), removes combos
// conflicting with dead cards and renormalizes. Returns false when the
// evidence zeroed out every legal combo.
func (d *Distribution) reweight(dead poker.Hand, factor func(poker.Hand) float64) bool {
	for combo := range d.weights {
		if combo.Overlaps(dead) {
			delete(d.weights, combo)
			continue
		}
		w := d.weights[combo] * factor(combo)
		if w <= 0 || math.IsNaN(w) {
			delete(d.weights, combo)
			continue
		}
		d.weights[combo] = w
	}
	return d.normalize()
}

// pruneDead removes combos conflicting with dead cards and renormalizes.
func (d *Distribution) pruneDead(dead poker.Hand) bool {
	return d.reweight(dead, func(poker.Hand) float64 { return 1.0 })
}

func (d *Distribution) normalize() bool {
	sum := d.Sum()
	if sum <= 0 {
		return false
	}
	for combo := range d.weights {
		d.weights[combo] /= sum
	}
	return true
}

// CategoryMass returns the probability mass carried by combos whose category
// against the board is in the given set.
func (d *Distribution) CategoryMass(board poker.Hand, categories ...poker.HoleCardCategory) float64 {
	mass := 0.0
	for combo, w := range d.weights {
		cat := poker.ComboCategory(combo, board)
		for _, want := range categories {
			if cat == want {
				mass += w
				break
			}
		}
	}
	return mass
}
