package fft

import (
	"math/bits"
	"sync"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Decimation tells the FFT kernels in which order they consume and produce
// their input: DIF maps natural order to bit-reversed order, DIT maps
// bit-reversed order to natural order.
type Decimation uint8

const (
	DIT Decimation = iota
	DIF
)

// below this size the recursive kernels stop spawning goroutines
const parallelThreshold = 256

// FFT computes the discrete Fourier transform of a in place.
// len(a) must equal the domain cardinality (fatal otherwise).
// If coset is set, the transform evaluates on the coset g*H instead of H.
func (d *Domain) FFT(a []fr.Element, decimation Decimation, coset ...bool) {
	d.mustMatch(a)

	onCoset := len(coset) > 0 && coset[0]
	if onCoset {
		d.scale(a, d.cosetTable, decimation == DIT)
	}

	switch decimation {
	case DIF:
		difFFT(a, d.Generator)
	case DIT:
		ditFFT(a, d.Generator)
	}
}

// FFTInverse computes the inverse transform of a in place, including the
// division by the domain cardinality. Ordering semantics follow FFT: with
// DIF the input is in natural order, with DIT in bit-reversed order.
func (d *Domain) FFTInverse(a []fr.Element, decimation Decimation, coset ...bool) {
	d.mustMatch(a)

	switch decimation {
	case DIF:
		difFFT(a, d.GeneratorInv)
	case DIT:
		ditFFT(a, d.GeneratorInv)
	}

	onCoset := len(coset) > 0 && coset[0]

	// scale by 1/n, and undo the coset shift on the coefficients
	for i := range a {
		a[i].Mul(&a[i], &d.CardinalityInv)
	}
	if onCoset {
		// after a DIF inverse the coefficients are bit-reversed
		d.scale(a, d.cosetTableInv, decimation == DIF)
	}
}

// scale multiplies a[i] by table[i], or by table[bitReverse(i)] when the
// slice is in bit-reversed order.
func (d *Domain) scale(a, table []fr.Element, bitReversed bool) {
	if !bitReversed {
		for i := range a {
			a[i].Mul(&a[i], &table[i])
		}
		return
	}
	nn := uint64(64 - bits.TrailingZeros64(uint64(len(a))))
	for i := range a {
		irev := bits.Reverse64(uint64(i)) >> nn
		a[i].Mul(&a[i], &table[irev])
	}
}

func (d *Domain) mustMatch(a []fr.Element) {
	if uint64(len(a)) != d.Cardinality {
		panic("fft: slice length does not match domain cardinality")
	}
}

// difFFT is the recursive decimation-in-frequency kernel; input in natural
// order, output in bit-reversed order. w must be a len(a)-th root of unity.
func difFFT(a []fr.Element, w fr.Element) {
	n := len(a)
	if n == 1 {
		return
	}
	m := n / 2

	wPow := w

	// i == 0
	tmp := a[0]
	a[0].Add(&a[0], &a[m])
	a[m].Sub(&tmp, &a[m])

	for i := 1; i < m; i++ {
		tmp = a[i]
		a[i].Add(&a[i], &a[i+m])
		a[i+m].
			Sub(&tmp, &a[i+m]).
			Mul(&a[i+m], &wPow)
		wPow.Mul(&wPow, &w)
	}

	// w is passed by value
	w.Square(&w)

	if m < parallelThreshold {
		difFFT(a[:m], w)
		difFFT(a[m:], w)
		return
	}
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		difFFT(a[:m], w)
		wg.Done()
	}()
	difFFT(a[m:], w)
	wg.Wait()
}

// ditFFT is the recursive decimation-in-time kernel; input in bit-reversed
// order, output in natural order.
func ditFFT(a []fr.Element, w fr.Element) {
	n := len(a)
	if n == 1 {
		return
	}
	m := n / 2

	var wSq fr.Element
	wSq.Square(&w)

	if m < parallelThreshold {
		ditFFT(a[:m], wSq)
		ditFFT(a[m:], wSq)
	} else {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			ditFFT(a[:m], wSq)
			wg.Done()
		}()
		ditFFT(a[m:], wSq)
		wg.Wait()
	}

	// i == 0
	var t fr.Element
	t = a[m]
	a[m].Sub(&a[0], &t)
	a[0].Add(&a[0], &t)

	wPow := w
	for i := 1; i < m; i++ {
		t.Mul(&a[i+m], &wPow)
		a[i+m].Sub(&a[i], &t)
		a[i].Add(&a[i], &t)
		wPow.Mul(&wPow, &w)
	}
}

// BitReverse applies the bit-reversal permutation to a.
// len(a) must be a power of 2.
func BitReverse(a []fr.Element) {
	n := uint64(len(a))
	nn := uint64(64 - bits.TrailingZeros64(n))

	for i := uint64(0); i < n; i++ {
		irev := bits.Reverse64(i) >> nn
		if irev > i {
			a[i], a[irev] = a[irev], a[i]
		}
	}
}
