// Package fft provides radix-2 discrete Fourier transforms over the BN254
// scalar field, on multiplicative subgroups of roots of unity.
package fft

import (
	"math/big"
	"math/bits"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// maxOrderRoot is the 2-adicity of the BN254 scalar field: r-1 = 2^28 * m
// with m odd, so subgroups of roots of unity exist up to size 2^28.
const maxOrderRoot uint64 = 28

// Domain is a multiplicative subgroup of roots of unity of power-of-two
// cardinality. It is immutable once built and safe for concurrent use.
type Domain struct {
	Cardinality    uint64
	CardinalityInv fr.Element
	Generator      fr.Element
	GeneratorInv   fr.Element

	// FrMultiplicativeGen generates the full multiplicative group of the
	// scalar field; its cosets of the domain are pairwise disjoint.
	FrMultiplicativeGen    fr.Element
	FrMultiplicativeGenInv fr.Element

	cosetTable    []fr.Element
	cosetTableInv []fr.Element
}

// NewDomain returns a domain of cardinality the next power of two >= m.
//
// It panics if m exceeds the largest power-of-two subgroup of the scalar
// field (2^28), which is a programming error, not a runtime condition.
func NewDomain(m uint64) *Domain {
	d := &Domain{}

	x := ecc.NextPowerOfTwo(m)
	d.Cardinality = x

	if uint64(bits.TrailingZeros64(x)) > maxOrderRoot {
		panic("fft: domain cardinality exceeds the 2-adicity of the scalar field")
	}

	// 5 is the smallest generator of the multiplicative group of Fr
	d.FrMultiplicativeGen.SetUint64(5)
	d.FrMultiplicativeGenInv.Inverse(&d.FrMultiplicativeGen)

	// the domain generator is g^((r-1)/x), g the multiplicative generator:
	// an element of order exactly x
	var expo big.Int
	expo.Sub(fr.Modulus(), big.NewInt(1))
	expo.Div(&expo, new(big.Int).SetUint64(x))
	d.Generator.Exp(d.FrMultiplicativeGen, &expo)
	d.GeneratorInv.Inverse(&d.Generator)

	d.CardinalityInv.SetUint64(x).Inverse(&d.CardinalityInv)

	d.cosetTable = make([]fr.Element, x)
	d.cosetTableInv = make([]fr.Element, x)
	d.cosetTable[0].SetOne()
	d.cosetTableInv[0].SetOne()
	for i := uint64(1); i < x; i++ {
		d.cosetTable[i].Mul(&d.cosetTable[i-1], &d.FrMultiplicativeGen)
		d.cosetTableInv[i].Mul(&d.cosetTableInv[i-1], &d.FrMultiplicativeGenInv)
	}

	return d
}
