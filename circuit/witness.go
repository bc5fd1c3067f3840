package circuit

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// ErrWitnessSize is returned when an assignment does not cover the wires of
// its circuit.
var ErrWitnessSize = errors.New("circuit: witness length does not match the number of wires")

// Witness assigns a value to every wire of a circuit, public inputs first.
type Witness []fr.Element

// NewWitness returns a zero witness sized for c.
func NewWitness(c *Circuit) Witness {
	return make(Witness, c.NbWires)
}

// Assign sets wire w to v.
func (w Witness) Assign(wire int, v fr.Element) {
	w[wire] = v
}

// Public returns the public part of the witness (the first nbPublic wires).
func (w Witness) Public(c *Circuit) []fr.Element {
	return w[:c.NbPublic]
}

// Check reports whether the witness satisfies every gate and equality of c.
// The public rows are checked against the witness values themselves.
func (w Witness) Check(c *Circuit) bool {
	if len(w) != c.NbWires {
		return false
	}

	for i, g := range c.Gates {
		var acc, t fr.Element

		qc := g.QC
		if i < c.NbPublic {
			// public row: qC carries the public value
			qc = w[i]
		}

		acc.Mul(&g.QL, &w[g.L])
		t.Mul(&g.QR, &w[g.R])
		acc.Add(&acc, &t)
		t.Mul(&w[g.L], &w[g.R]).Mul(&t, &g.QM)
		acc.Add(&acc, &t)
		t.Mul(&g.QO, &w[g.O])
		acc.Add(&acc, &t)
		acc.Add(&acc, &qc)

		if !acc.IsZero() {
			return false
		}
	}

	for _, e := range c.Equalities {
		if !w[e[0]].Equal(&w[e[1]]) {
			return false
		}
	}

	return true
}
