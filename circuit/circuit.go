// Package circuit provides the arithmetization layer: circuits are lists of
// 3-wire gates qL·l + qR·r + qM·l·r + qO·o + qC == 0 over a shared set of
// wires, plus explicit equality constraints between wires.
package circuit

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

var (
	ErrPublicAfterSecret = errors.New("circuit: public inputs must be declared before secret inputs and gates")
	ErrWireOutOfRange    = errors.New("circuit: gate references a wire that was never allocated")
	ErrUnconstrainedWire = errors.New("circuit: wire does not appear in any gate")
)

// Gate is one row of the constraint system. The selectors fix the relation
// qL·w[L] + qR·w[R] + qM·w[L]·w[R] + qO·w[O] + qC == 0.
type Gate struct {
	QL, QR, QM, QO, QC fr.Element
	L, R, O            int
}

// Circuit is a compiled constraint system. The first NbPublic gates are the
// public input rows (qL = -1, qC completed at proving time); user gates
// follow.
type Circuit struct {
	NbPublic int
	NbWires  int
	Gates    []Gate

	// Equalities are wire pairs forced equal through the copy constraints,
	// in addition to the equalities implied by wire sharing across gates.
	Equalities [][2]int
}

// Builder assembles a circuit wire by wire and gate by gate. The zero value
// is ready to use. Declare public inputs first; Compile reports ordering
// violations.
type Builder struct {
	nbPublic int
	nbWires  int
	gates    []Gate
	eqs      [][2]int

	hasSecret bool
	err       error
}

// PublicInput allocates a new public input wire and returns its index.
// Public inputs must all be declared before any secret input or gate.
func (b *Builder) PublicInput() int {
	if b.hasSecret && b.err == nil {
		b.err = ErrPublicAfterSecret
	}
	w := b.nbWires
	b.nbWires++
	b.nbPublic++
	return w
}

// SecretInput allocates a new secret witness wire and returns its index.
func (b *Builder) SecretInput() int {
	b.hasSecret = true
	w := b.nbWires
	b.nbWires++
	return w
}

// newInternal allocates a wire produced by a gate.
func (b *Builder) newInternal() int {
	b.hasSecret = true
	w := b.nbWires
	b.nbWires++
	return w
}

// AddGate appends a raw gate.
func (b *Builder) AddGate(g Gate) {
	b.hasSecret = true
	b.gates = append(b.gates, g)
}

// Add returns a new wire constrained to w[a] + w[b].
func (b *Builder) Add(a, c int) int {
	o := b.newInternal()
	var g Gate
	g.QL.SetOne()
	g.QR.SetOne()
	g.QO.SetOne().Neg(&g.QO)
	g.L, g.R, g.O = a, c, o
	b.gates = append(b.gates, g)
	return o
}

// Mul returns a new wire constrained to w[a] * w[b].
func (b *Builder) Mul(a, c int) int {
	o := b.newInternal()
	var g Gate
	g.QM.SetOne()
	g.QO.SetOne().Neg(&g.QO)
	g.L, g.R, g.O = a, c, o
	b.gates = append(b.gates, g)
	return o
}

// AssertIsEqual forces w[a] == w[b] through the copy constraints.
func (b *Builder) AssertIsEqual(a, c int) {
	b.eqs = append(b.eqs, [2]int{a, c})
}

// Compile validates the builder state and returns the circuit. The public
// input rows are materialized as the leading gates.
func (b *Builder) Compile() (*Circuit, error) {
	if b.err != nil {
		return nil, b.err
	}

	c := &Circuit{
		NbPublic:   b.nbPublic,
		NbWires:    b.nbWires,
		Gates:      make([]Gate, 0, b.nbPublic+len(b.gates)),
		Equalities: b.eqs,
	}

	// public input rows: -w[i] + qC == 0, qC is set by the prover
	var minusOne fr.Element
	minusOne.SetOne().Neg(&minusOne)
	for i := 0; i < b.nbPublic; i++ {
		var g Gate
		g.QL = minusOne
		g.L, g.R, g.O = i, i, i
		c.Gates = append(c.Gates, g)
	}
	c.Gates = append(c.Gates, b.gates...)

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// validate checks wire indices and that every wire is constrained.
func (c *Circuit) validate() error {
	seen := bitset.New(uint(c.NbWires))

	for i, g := range c.Gates {
		for _, w := range [3]int{g.L, g.R, g.O} {
			if w < 0 || w >= c.NbWires {
				return fmt.Errorf("%w (gate %d, wire %d)", ErrWireOutOfRange, i, w)
			}
		}
		seen.Set(uint(g.L))
		seen.Set(uint(g.R))
		seen.Set(uint(g.O))
	}

	for _, e := range c.Equalities {
		for _, w := range e {
			if w < 0 || w >= c.NbWires {
				return fmt.Errorf("%w (equality, wire %d)", ErrWireOutOfRange, w)
			}
			if !seen.Test(uint(w)) {
				return fmt.Errorf("%w (wire %d, equality on a wire outside all gates)", ErrUnconstrainedWire, w)
			}
		}
	}

	if all := seen.Count(); all != uint(c.NbWires) {
		w, _ := seen.NextClear(0)
		return fmt.Errorf("%w (wire %d)", ErrUnconstrainedWire, w)
	}

	return nil
}
