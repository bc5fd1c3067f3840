// Package polynomial provides dense univariate polynomials over the BN254
// scalar field, in coefficient form (index i holds the coefficient of X^i).
package polynomial

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkforge/plonk/fft"
)

// ErrDivisionByZero is returned when dividing by the zero polynomial.
var ErrDivisionByZero = errors.New("polynomial: division by zero polynomial")

// Polynomial is a dense polynomial, coefficients in ascending degree order.
// The representation is not normalized: leading zero coefficients may be
// present, Degree ignores them.
type Polynomial []fr.Element

// New returns the zero polynomial with capacity for degree < n.
func New(n int) Polynomial {
	return make(Polynomial, n)
}

// Clone returns a copy of p.
func (p Polynomial) Clone() Polynomial {
	r := make(Polynomial, len(p))
	copy(r, p)
	return r
}

// Degree returns the degree of p, ignoring leading zeros.
// The zero polynomial has degree -1.
func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsZero() {
			return i
		}
	}
	return -1
}

// Eval evaluates p at v using Horner's method.
func (p Polynomial) Eval(v *fr.Element) fr.Element {
	var res fr.Element
	if len(p) == 0 {
		return res
	}
	res.Set(&p[len(p)-1])
	for i := len(p) - 2; i >= 0; i-- {
		res.Mul(&res, v).Add(&res, &p[i])
	}
	return res
}

// Equal reports whether p and q define the same polynomial, leading zeros
// notwithstanding.
func (p Polynomial) Equal(q Polynomial) bool {
	dp, dq := p.Degree(), q.Degree()
	if dp != dq {
		return false
	}
	for i := 0; i <= dp; i++ {
		if !p[i].Equal(&q[i]) {
			return false
		}
	}
	return true
}

// Add sets p to p1+p2 and returns p. p is reused if large enough.
func (p *Polynomial) Add(p1, p2 Polynomial) *Polynomial {
	bigger, smaller := p1, p2
	if len(bigger) < len(smaller) {
		bigger, smaller = smaller, bigger
	}

	if len(*p) < len(bigger) {
		*p = make(Polynomial, len(bigger))
	} else {
		*p = (*p)[:len(bigger)]
	}

	for i := range smaller {
		(*p)[i].Add(&bigger[i], &smaller[i])
	}
	copy((*p)[len(smaller):], bigger[len(smaller):])

	return p
}

// Sub sets p to p1-p2 and returns p.
func (p *Polynomial) Sub(p1, p2 Polynomial) *Polynomial {
	n := len(p1)
	if len(p2) > n {
		n = len(p2)
	}
	if len(*p) < n {
		*p = make(Polynomial, n)
	} else {
		*p = (*p)[:n]
	}

	for i := range *p {
		var a, b fr.Element
		if i < len(p1) {
			a = p1[i]
		}
		if i < len(p2) {
			b = p2[i]
		}
		(*p)[i].Sub(&a, &b)
	}
	return p
}

// ScalarMul multiplies p by a in place.
func (p Polynomial) ScalarMul(a *fr.Element) {
	for i := range p {
		p[i].Mul(&p[i], a)
	}
}

// schoolbook multiplication stays cheaper than two FFTs up to this size
const mulFFTThreshold = 64

// Mul returns p1*p2. Small operands are multiplied with the schoolbook
// algorithm; larger ones go through an FFT on a domain covering the
// product degree.
func Mul(p1, p2 Polynomial) Polynomial {
	d1, d2 := p1.Degree(), p2.Degree()
	if d1 < 0 || d2 < 0 {
		return Polynomial{}
	}

	if d1 < mulFFTThreshold || d2 < mulFFTThreshold {
		return mulNaive(p1[:d1+1], p2[:d2+1])
	}

	d := fft.NewDomain(uint64(d1 + d2 + 1))
	n := int(d.Cardinality)

	a := make(Polynomial, n)
	b := make(Polynomial, n)
	copy(a, p1[:d1+1])
	copy(b, p2[:d2+1])

	d.FFT(a, fft.DIF)
	d.FFT(b, fft.DIF)
	// both sides are bit-reversed, pointwise product is order-agnostic
	for i := 0; i < n; i++ {
		a[i].Mul(&a[i], &b[i])
	}
	d.FFTInverse(a, fft.DIT)

	return a[:d1+d2+1]
}

func mulNaive(p1, p2 Polynomial) Polynomial {
	res := make(Polynomial, len(p1)+len(p2)-1)
	for i := range p1 {
		if p1[i].IsZero() {
			continue
		}
		for j := range p2 {
			var t fr.Element
			t.Mul(&p1[i], &p2[j])
			res[i+j].Add(&res[i+j], &t)
		}
	}
	return res
}

// QuoRem returns the quotient and remainder of the Euclidean division of p
// by q. It errors if q is the zero polynomial.
func QuoRem(p, q Polynomial) (quo, rem Polynomial, err error) {
	dq := q.Degree()
	if dq < 0 {
		return nil, nil, ErrDivisionByZero
	}
	dp := p.Degree()
	if dp < dq {
		return Polynomial{}, p.Clone(), nil
	}

	var leadInv fr.Element
	leadInv.Inverse(&q[dq])

	rem = p[:dp+1].Clone()
	quo = make(Polynomial, dp-dq+1)

	for i := dp; i >= dq; i-- {
		if rem[i].IsZero() {
			continue
		}
		var c fr.Element
		c.Mul(&rem[i], &leadInv)
		quo[i-dq] = c
		for j := 0; j <= dq; j++ {
			var t fr.Element
			t.Mul(&c, &q[j])
			rem[i-dq+j].Sub(&rem[i-dq+j], &t)
		}
	}

	return quo, rem[:dq], nil
}

// DividePolyByXminusA computes p/(X-a) in place and returns the quotient,
// assuming the division is exact (p(a)==0). The result aliases p.
func DividePolyByXminusA(p Polynomial, a fr.Element) Polynomial {
	// Horner's scheme, synthetic division
	var t fr.Element
	for i := len(p) - 2; i >= 0; i-- {
		t.Mul(&p[i+1], &a)
		p[i].Add(&p[i], &t)
	}
	return p[1:]
}

// Interpolate returns the unique polynomial of degree < n taking value
// evals[i] on the i-th root of unity of d. len(evals) must equal the
// domain cardinality.
func Interpolate(d *fft.Domain, evals []fr.Element) Polynomial {
	res := make(Polynomial, len(evals))
	copy(res, evals)
	d.FFTInverse(res, fft.DIF)
	fft.BitReverse(res)
	return res
}

// Vanishing returns X^n - 1, the vanishing polynomial of the subgroup of
// order n.
func Vanishing(n uint64) Polynomial {
	res := make(Polynomial, n+1)
	var minusOne fr.Element
	minusOne.SetOne().Neg(&minusOne)
	res[0] = minusOne
	res[n].SetOne()
	return res
}
