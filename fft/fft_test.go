package fft

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

// naive O(n^2) evaluation of the polynomial with coefficients c on the
// points shift*w^i
func evalDomainNaive(c []fr.Element, w, shift fr.Element) []fr.Element {
	res := make([]fr.Element, len(c))
	var point fr.Element
	point.Set(&shift)
	for i := range res {
		var acc fr.Element
		for j := len(c) - 1; j >= 0; j-- {
			acc.Mul(&acc, &point)
			acc.Add(&acc, &c[j])
		}
		res[i] = acc
		point.Mul(&point, &w)
	}
	return res
}

func randomVector(n int) []fr.Element {
	v := make([]fr.Element, n)
	for i := range v {
		v[i].SetRandom()
	}
	return v
}

func TestNewDomain(t *testing.T) {
	assert := require.New(t)

	d := NewDomain(5)
	assert.Equal(uint64(8), d.Cardinality, "cardinality is padded to the next power of two")

	// generator has order exactly n
	var x fr.Element
	x.Exp(d.Generator, big.NewInt(8))
	assert.True(x.IsOne(), "generator^n == 1")
	x.Exp(d.Generator, big.NewInt(4))
	assert.False(x.IsOne(), "generator has order n, not n/2")

	var p fr.Element
	p.Mul(&d.Generator, &d.GeneratorInv)
	assert.True(p.IsOne())
}

func TestFFTAgainstNaive(t *testing.T) {
	assert := require.New(t)

	d := NewDomain(16)
	c := randomVector(16)

	var one fr.Element
	one.SetOne()
	expected := evalDomainNaive(c, d.Generator, one)

	got := make([]fr.Element, 16)
	copy(got, c)
	d.FFT(got, DIF)
	BitReverse(got)

	for i := range expected {
		assert.True(expected[i].Equal(&got[i]), "FFT disagrees with naive DFT at index %d", i)
	}
}

func TestFFTCosetAgainstNaive(t *testing.T) {
	assert := require.New(t)

	d := NewDomain(16)
	c := randomVector(16)

	expected := evalDomainNaive(c, d.Generator, d.FrMultiplicativeGen)

	got := make([]fr.Element, 16)
	copy(got, c)
	d.FFT(got, DIF, true)
	BitReverse(got)

	for i := range expected {
		assert.True(expected[i].Equal(&got[i]), "coset FFT disagrees with naive DFT at index %d", i)
	}
}

func TestFFTRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	sizes := []uint64{4, 64, 512}
	for _, size := range sizes {
		d := NewDomain(size)

		properties.Property("FFTInverse(FFT(p)) == p", prop.ForAll(
			func(seed uint64) bool {
				a := pseudoRandomVector(int(size), seed)
				backup := make([]fr.Element, size)
				copy(backup, a)

				d.FFT(a, DIF)
				d.FFTInverse(a, DIT)
				return vectorsEqual(a, backup)
			},
			gen.UInt64(),
		))

		properties.Property("coset FFTInverse(FFT(p)) == p", prop.ForAll(
			func(seed uint64) bool {
				a := pseudoRandomVector(int(size), seed)
				backup := make([]fr.Element, size)
				copy(backup, a)

				d.FFT(a, DIF, true)
				d.FFTInverse(a, DIT, true)
				return vectorsEqual(a, backup)
			},
			gen.UInt64(),
		))

		properties.Property("DIT after DIF round trip through bit-reversed order", prop.ForAll(
			func(seed uint64) bool {
				a := pseudoRandomVector(int(size), seed)
				backup := make([]fr.Element, size)
				copy(backup, a)

				d.FFTInverse(a, DIF)
				BitReverse(a)
				d.FFT(a, DIF)
				BitReverse(a)
				return vectorsEqual(a, backup)
			},
			gen.UInt64(),
		))
	}

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestBitReverse(t *testing.T) {
	assert := require.New(t)

	a := make([]fr.Element, 8)
	for i := range a {
		a[i].SetUint64(uint64(i))
	}
	BitReverse(a)

	expected := []uint64{0, 4, 2, 6, 1, 5, 3, 7}
	for i := range a {
		var e fr.Element
		e.SetUint64(expected[i])
		assert.True(a[i].Equal(&e))
	}
}

func TestFFTLengthMismatch(t *testing.T) {
	assert := require.New(t)
	d := NewDomain(8)
	assert.Panics(func() {
		d.FFT(make([]fr.Element, 4), DIF)
	})
}

// deterministic vector so gopter shrinking stays meaningful
func pseudoRandomVector(n int, seed uint64) []fr.Element {
	v := make([]fr.Element, n)
	var acc fr.Element
	acc.SetUint64(seed | 1)
	for i := range v {
		acc.Square(&acc)
		var t fr.Element
		t.SetUint64(uint64(i) + 1)
		acc.Add(&acc, &t)
		v[i] = acc
	}
	return v
}

func vectorsEqual(a, b []fr.Element) bool {
	for i := range a {
		if !a[i].Equal(&b[i]) {
			return false
		}
	}
	return true
}

func BenchmarkFFT(b *testing.B) {
	d := NewDomain(1 << 16)
	a := randomVector(1 << 16)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.FFT(a, DIF)
	}
}
