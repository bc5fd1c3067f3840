package circuit

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// mulCircuit builds the circuit for a*b == c with c public.
func mulCircuit(t *testing.T) *Circuit {
	t.Helper()
	var b Builder
	c := b.PublicInput()
	x := b.SecretInput()
	y := b.SecretInput()
	z := b.Mul(x, y)
	b.AssertIsEqual(z, c)

	circ, err := b.Compile()
	require.NoError(t, err)
	return circ
}

func TestBuilderCompile(t *testing.T) {
	assert := require.New(t)

	circ := mulCircuit(t)
	assert.Equal(1, circ.NbPublic)
	assert.Equal(4, circ.NbWires)
	// 1 public row + 1 mul gate
	assert.Len(circ.Gates, 2)
	assert.Len(circ.Equalities, 1)

	// the public row is -w[0] + qC
	var minusOne fr.Element
	minusOne.SetOne().Neg(&minusOne)
	assert.True(circ.Gates[0].QL.Equal(&minusOne))
	assert.Equal(0, circ.Gates[0].L)
}

func TestBuilderPublicAfterSecret(t *testing.T) {
	assert := require.New(t)

	var b Builder
	b.SecretInput()
	b.PublicInput()
	_, err := b.Compile()
	assert.ErrorIs(err, ErrPublicAfterSecret)
}

func TestCompileRejectsBadWires(t *testing.T) {
	assert := require.New(t)

	var b Builder
	x := b.SecretInput()
	var g Gate
	g.QL.SetOne()
	g.L, g.R, g.O = x, x, 17 // out of range
	b.AddGate(g)
	_, err := b.Compile()
	assert.ErrorIs(err, ErrWireOutOfRange)
}

func TestCompileRejectsUnconstrainedWire(t *testing.T) {
	assert := require.New(t)

	var b Builder
	x := b.SecretInput()
	b.SecretInput() // never used in a gate
	var g Gate
	g.QL.SetOne()
	g.L, g.R, g.O = x, x, x
	b.AddGate(g)
	_, err := b.Compile()
	assert.ErrorIs(err, ErrUnconstrainedWire)
}

func TestWitnessCheck(t *testing.T) {
	assert := require.New(t)

	circ := mulCircuit(t)

	w := NewWitness(circ)
	w.Assign(0, frUint(12)) // public c
	w.Assign(1, frUint(3))
	w.Assign(2, frUint(4))
	w.Assign(3, frUint(12))
	assert.True(w.Check(circ))

	// break the product
	w.Assign(3, frUint(13))
	assert.False(w.Check(circ))

	// break the equality only
	w.Assign(3, frUint(12))
	w.Assign(0, frUint(13))
	assert.False(w.Check(circ))

	assert.False(Witness{}.Check(circ))
}

func TestAddGateSemantics(t *testing.T) {
	assert := require.New(t)

	var b Builder
	x := b.SecretInput()
	y := b.SecretInput()
	s := b.Add(x, y)
	circ, err := b.Compile()
	assert.NoError(err)

	w := NewWitness(circ)
	w.Assign(x, frUint(5))
	w.Assign(y, frUint(7))
	w.Assign(s, frUint(12))
	assert.True(w.Check(circ))
	w.Assign(s, frUint(11))
	assert.False(w.Check(circ))
}

func TestCircuitSerialization(t *testing.T) {
	assert := require.New(t)

	circ := mulCircuit(t)

	var buf bytes.Buffer
	written, err := circ.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), written)

	var decoded Circuit
	read, err := decoded.ReadFrom(&buf)
	assert.NoError(err)
	assert.Equal(written, read)

	if diff := cmp.Diff(circ, &decoded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSerializationVersionMismatch(t *testing.T) {
	assert := require.New(t)

	assert.NoError(checkSerializationVersion("0.1.99"))
	assert.Error(checkSerializationVersion("0.2.0"))
	assert.Error(checkSerializationVersion("1.0.0"))
	assert.Error(checkSerializationVersion("not-a-version"))
}

func frUint(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}
