package plonk

import (
	"crypto/sha256"
	"math/big"
	"math/bits"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/zkforge/plonk/circuit"
	"github.com/zkforge/plonk/fft"
	"github.com/zkforge/plonk/fiatshamir"
	"github.com/zkforge/plonk/internal/parallel"
	"github.com/zkforge/plonk/kzg"
	"github.com/zkforge/plonk/logger"
)

// Proof is a PLONK proof: commitments to the wire polynomials, the
// permutation accumulator and the quotient chunks, plus the KZG openings at
// the evaluation point and its shift.
type Proof struct {
	// commitments to the blinded l, r, o wire polynomials
	LRO [3]kzg.Digest

	// commitment to the blinded permutation accumulator
	Z kzg.Digest

	// commitments to the quotient chunks h1, h2, h3
	H [3]kzg.Digest

	// batch opening at zeta: folded quotient, linearization, l, r, o, s1, s2
	BatchedProof kzg.BatchOpeningProof

	// opening of Z at ω·zeta
	ZShiftedOpening kzg.OpeningProof
}

// Prove generates a proof that fullWitness satisfies spr, with the public
// part of the witness as statement. It fails with ErrInvalidWitness when
// the witness does not satisfy the constraints.
func Prove(spr *circuit.Circuit, pk *ProvingKey, fullWitness circuit.Witness) (*Proof, error) {
	log := logger.Logger().With().Str("curve", "bn254").Int("nbConstraints", len(spr.Gates)).Str("backend", "plonk").Logger()
	start := time.Now()

	if len(fullWitness) != spr.NbWires {
		return nil, ErrInvalidWitnessSize
	}
	if !fullWitness.Check(spr) {
		return nil, ErrInvalidWitness
	}

	var proof Proof
	n := int(pk.DomainSmall.Cardinality)

	// wire values in lagrange basis, zero-padded to the domain
	ll, lr, lo := evaluateLROSmallDomain(spr, pk, fullWitness)

	// qk completed with the public inputs, lagrange then canonical
	qkCompleted := make([]fr.Element, n)
	copy(qkCompleted, pk.LQk)
	for i := 0; i < spr.NbPublic; i++ {
		qkCompleted[i].Set(&fullWitness[i])
	}
	toCanonical(pk.DomainSmall, qkCompleted)

	// blinded wire polynomials in canonical basis
	bcl, bcr, bco := computeBlindedLROCanonical(ll, lr, lo, pk.DomainSmall)

	var g errgroup.Group
	g.Go(func() (err error) { proof.LRO[0], err = kzg.Commit(bcl, pk.Kzg); return })
	g.Go(func() (err error) { proof.LRO[1], err = kzg.Commit(bcr, pk.Kzg); return })
	g.Go(func() (err error) { proof.LRO[2], err = kzg.Commit(bco, pk.Kzg); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fs := fiatshamir.NewTranscript(sha256.New(), "gamma", "beta", "alpha", "zeta")
	if err := bindPublicData(fs, "gamma", pk.Vk, fullWitness.Public(spr)); err != nil {
		return nil, err
	}
	gamma, err := deriveRandomness(fs, "gamma", &proof.LRO[0], &proof.LRO[1], &proof.LRO[2])
	if err != nil {
		return nil, err
	}
	beta, err := deriveRandomness(fs, "beta")
	if err != nil {
		return nil, err
	}

	// permutation accumulator, blinded, canonical
	bcz := computeBlindedZCanonical(ll, lr, lo, pk, beta, gamma)
	if proof.Z, err = kzg.Commit(bcz, pk.Kzg); err != nil {
		return nil, err
	}

	alpha, err := deriveRandomness(fs, "alpha", &proof.Z)
	if err != nil {
		return nil, err
	}

	// quotient polynomial, canonical, split in three chunks
	h := computeQuotientCanonical(pk, bcl, bcr, bco, bcz, qkCompleted, alpha, beta, gamma)
	h1, h2, h3 := h[:n+2], h[n+2:2*(n+2)], h[2*(n+2):3*(n+2)]

	var gh errgroup.Group
	gh.Go(func() (err error) { proof.H[0], err = kzg.Commit(h1, pk.Kzg); return })
	gh.Go(func() (err error) { proof.H[1], err = kzg.Commit(h2, pk.Kzg); return })
	gh.Go(func() (err error) { proof.H[2], err = kzg.Commit(h3, pk.Kzg); return })
	if err := gh.Wait(); err != nil {
		return nil, err
	}

	zeta, err := deriveRandomness(fs, "zeta", &proof.H[0], &proof.H[1], &proof.H[2])
	if err != nil {
		return nil, err
	}

	// open Z at ω·zeta
	var zetaShifted fr.Element
	zetaShifted.Mul(&zeta, &pk.DomainSmall.Generator)
	if proof.ZShiftedOpening, err = kzg.Open(bcz, zetaShifted, pk.Kzg); err != nil {
		return nil, err
	}
	zu := proof.ZShiftedOpening.ClaimedValue

	lZeta := eval(bcl, zeta)
	rZeta := eval(bcr, zeta)
	oZeta := eval(bco, zeta)
	s1Zeta := eval(pk.CS1, zeta)
	s2Zeta := eval(pk.CS2, zeta)

	linearizedPolynomial := computeLinearizedPolynomial(
		lZeta, rZeta, oZeta, s1Zeta, s2Zeta, zu,
		alpha, beta, gamma, zeta,
		bcz, pk,
	)
	linearizedPolynomialDigest, err := kzg.Commit(linearizedPolynomial, pk.Kzg)
	if err != nil {
		return nil, err
	}

	// fold the quotient: h1 + ζ^{n+2}·h2 + ζ^{2(n+2)}·h3
	var zetaPowerM fr.Element
	var bMExp big.Int
	bMExp.SetUint64(uint64(n) + 2)
	zetaPowerM.Exp(zeta, &bMExp)
	foldedH := make([]fr.Element, n+2)
	for i := range foldedH {
		foldedH[i].Mul(&h3[i], &zetaPowerM)
		foldedH[i].Add(&foldedH[i], &h2[i])
		foldedH[i].Mul(&foldedH[i], &zetaPowerM)
		foldedH[i].Add(&foldedH[i], &h1[i])
	}
	var foldedHDigest kzg.Digest
	var bZetaPowerM big.Int
	zetaPowerM.BigInt(&bZetaPowerM)
	foldedHDigest.ScalarMultiplication(&proof.H[2], &bZetaPowerM)
	foldedHDigest.Add(&foldedHDigest, &proof.H[1])
	foldedHDigest.ScalarMultiplication(&foldedHDigest, &bZetaPowerM)
	foldedHDigest.Add(&foldedHDigest, &proof.H[0])

	proof.BatchedProof, err = kzg.BatchOpenSinglePoint(
		[][]fr.Element{
			foldedH,
			linearizedPolynomial,
			bcl,
			bcr,
			bco,
			pk.CS1,
			pk.CS2,
		},
		[]kzg.Digest{
			foldedHDigest,
			linearizedPolynomialDigest,
			proof.LRO[0],
			proof.LRO[1],
			proof.LRO[2],
			pk.Vk.S[0],
			pk.Vk.S[1],
		},
		zeta,
		sha256.New(),
		pk.Kzg,
		zu.Marshal(),
	)
	if err != nil {
		return nil, err
	}

	log.Debug().Dur("took", time.Since(start)).Msg("prover done")
	return &proof, nil
}

// evaluateLROSmallDomain returns the wire columns in lagrange basis on the
// small domain, padded with zeros past the constraints.
func evaluateLROSmallDomain(spr *circuit.Circuit, pk *ProvingKey, w circuit.Witness) ([]fr.Element, []fr.Element, []fr.Element) {
	n := int(pk.DomainSmall.Cardinality)
	ll := make([]fr.Element, n)
	lr := make([]fr.Element, n)
	lo := make([]fr.Element, n)
	for i, gate := range spr.Gates {
		ll[i].Set(&w[gate.L])
		lr[i].Set(&w[gate.R])
		lo[i].Set(&w[gate.O])
	}
	return ll, lr, lo
}

// computeBlindedLROCanonical interpolates the wire columns and blinds each
// with a degree-1 multiple of Xⁿ-1.
func computeBlindedLROCanonical(ll, lr, lo []fr.Element, domain *fft.Domain) (bcl, bcr, bco []fr.Element) {
	cl := make([]fr.Element, len(ll))
	cr := make([]fr.Element, len(lr))
	co := make([]fr.Element, len(lo))
	copy(cl, ll)
	copy(cr, lr)
	copy(co, lo)
	toCanonical(domain, cl)
	toCanonical(domain, cr)
	toCanonical(domain, co)
	bcl = blindPoly(cl, domain.Cardinality, 1)
	bcr = blindPoly(cr, domain.Cardinality, 1)
	bco = blindPoly(co, domain.Cardinality, 1)
	return
}

// blindPoly returns cp + b(X)·(Xⁿ-1) with b random of degree bo: the
// polynomial keeps its values on the domain but leaks nothing through bo+1
// openings.
func blindPoly(cp []fr.Element, rou, bo uint64) []fr.Element {
	res := make([]fr.Element, rou+bo+1)
	copy(res, cp)

	for i := uint64(0); i <= bo; i++ {
		var bi fr.Element
		bi.SetRandom()
		res[i].Sub(&res[i], &bi)
		res[rou+i].Add(&res[rou+i], &bi)
	}

	return res
}

// computeBlindedZCanonical builds the permutation accumulator
//
//	z(ω^(i+1)) = z(ω^i) · ∏ (w+β·id+γ)/(w+β·σ+γ)
//
// on the small domain, then interpolates and blinds it at order 2.
func computeBlindedZCanonical(ll, lr, lo []fr.Element, pk *ProvingKey, beta, gamma fr.Element) []fr.Element {
	n := int(pk.DomainSmall.Cardinality)
	k := pk.DomainSmall.FrMultiplicativeGen

	z := make([]fr.Element, n)
	nums := make([]fr.Element, n)
	dens := make([]fr.Element, n)

	parallel.Execute(n, func(start, end int) {
		var u, t, f fr.Element
		u.Exp(pk.DomainSmall.Generator, big.NewInt(int64(start)))
		for i := start; i < end; i++ {
			// numerator: identity labels ω^i, k·ω^i, k²·ω^i
			t.Mul(&beta, &u)
			f.Add(&ll[i], &t).Add(&f, &gamma)
			nums[i].Set(&f)
			t.Mul(&t, &k)
			f.Add(&lr[i], &t).Add(&f, &gamma)
			nums[i].Mul(&nums[i], &f)
			t.Mul(&t, &k)
			f.Add(&lo[i], &t).Add(&f, &gamma)
			nums[i].Mul(&nums[i], &f)

			// denominator: sigma labels
			t.Mul(&beta, &pk.LS1[i])
			f.Add(&ll[i], &t).Add(&f, &gamma)
			dens[i].Set(&f)
			t.Mul(&beta, &pk.LS2[i])
			f.Add(&lr[i], &t).Add(&f, &gamma)
			dens[i].Mul(&dens[i], &f)
			t.Mul(&beta, &pk.LS3[i])
			f.Add(&lo[i], &t).Add(&f, &gamma)
			dens[i].Mul(&dens[i], &f)

			u.Mul(&u, &pk.DomainSmall.Generator)
		}
	})

	invDens := fr.BatchInvert(dens)

	z[0].SetOne()
	for i := 1; i < n; i++ {
		z[i].Mul(&z[i-1], &nums[i-1])
		z[i].Mul(&z[i], &invDens[i-1])
	}

	toCanonical(pk.DomainSmall, z)
	return blindPoly(z, pk.DomainSmall.Cardinality, 2)
}

// computeQuotientCanonical evaluates the full constraint on a coset of the
// big domain, divides by Xⁿ-1 and returns the quotient in canonical basis.
func computeQuotientCanonical(pk *ProvingKey, bcl, bcr, bco, bcz, qkCompleted []fr.Element, alpha, beta, gamma fr.Element) []fr.Element {
	N := pk.DomainBig.Cardinality
	n := pk.DomainSmall.Cardinality
	ratio := int(N / n)

	evalBig := func(cp []fr.Element) []fr.Element {
		res := make([]fr.Element, N)
		copy(res, cp)
		pk.DomainBig.FFT(res, fft.DIF, true)
		return res
	}

	var lBig, rBig, oBig, zBig []fr.Element
	var qlBig, qrBig, qmBig, qoBig, qkBig []fr.Element
	var s1Big, s2Big, s3Big, l1Big []fr.Element

	var wg sync.WaitGroup
	spawn := func(f func()) {
		wg.Add(1)
		go func() {
			f()
			wg.Done()
		}()
	}
	spawn(func() { lBig = evalBig(bcl) })
	spawn(func() { rBig = evalBig(bcr) })
	spawn(func() { oBig = evalBig(bco) })
	spawn(func() { zBig = evalBig(bcz) })
	spawn(func() { qlBig = evalBig(pk.Ql) })
	spawn(func() { qrBig = evalBig(pk.Qr) })
	spawn(func() { qmBig = evalBig(pk.Qm) })
	spawn(func() { qoBig = evalBig(pk.Qo) })
	spawn(func() { qkBig = evalBig(qkCompleted) })
	spawn(func() { s1Big = evalBig(pk.CS1) })
	spawn(func() { s2Big = evalBig(pk.CS2) })
	spawn(func() { s3Big = evalBig(pk.CS3) })
	spawn(func() {
		// L1 = (1/n)·(1 + X + ... + X^{n-1})
		l1 := make([]fr.Element, n)
		for i := range l1 {
			l1[i].Set(&pk.DomainSmall.CardinalityInv)
		}
		l1Big = evalBig(l1)
	})
	wg.Wait()

	// coset points in natural order
	ids := make([]fr.Element, N)
	ids[0].Set(&pk.DomainBig.FrMultiplicativeGen)
	for i := uint64(1); i < N; i++ {
		ids[i].Mul(&ids[i-1], &pk.DomainBig.Generator)
	}

	xnMinusOneInv := evaluateXnMinusOneDomainBigCoset(pk.DomainBig, pk.DomainSmall)
	xnMinusOneInv = fr.BatchInvert(xnMinusOneInv)

	var alphaSq fr.Element
	alphaSq.Square(&alpha)
	k := pk.DomainSmall.FrMultiplicativeGen

	h := make([]fr.Element, N)
	nn := uint64(64 - bits.TrailingZeros64(N))

	parallel.Execute(int(N), func(start, end int) {
		var t, acc, f1, f2, f3, g1, g2, g3, gate, ordering, lone fr.Element
		var one fr.Element
		one.SetOne()
		for i := start; i < end; i++ {
			irev := bits.Reverse64(uint64(i)) >> nn

			// gate constraint
			gate.Mul(&qlBig[i], &lBig[i])
			t.Mul(&qrBig[i], &rBig[i])
			gate.Add(&gate, &t)
			t.Mul(&lBig[i], &rBig[i]).Mul(&t, &qmBig[i])
			gate.Add(&gate, &t)
			t.Mul(&qoBig[i], &oBig[i])
			gate.Add(&gate, &t)
			gate.Add(&gate, &qkBig[i])

			// ordering constraint: f uses the sigmas, g the identities
			t.Mul(&beta, &s1Big[i])
			f1.Add(&lBig[i], &t).Add(&f1, &gamma)
			t.Mul(&beta, &s2Big[i])
			f2.Add(&rBig[i], &t).Add(&f2, &gamma)
			t.Mul(&beta, &s3Big[i])
			f3.Add(&oBig[i], &t).Add(&f3, &gamma)

			t.Mul(&beta, &ids[irev])
			g1.Add(&lBig[i], &t).Add(&g1, &gamma)
			t.Mul(&t, &k)
			g2.Add(&rBig[i], &t).Add(&g2, &gamma)
			t.Mul(&t, &k)
			g3.Add(&oBig[i], &t).Add(&g3, &gamma)

			// z(ω·x): shift by ratio positions in natural order
			is := bits.Reverse64((irev+uint64(ratio))%N) >> nn
			ordering.Mul(&f1, &f2).Mul(&ordering, &f3).Mul(&ordering, &zBig[is])
			acc.Mul(&g1, &g2).Mul(&acc, &g3).Mul(&acc, &zBig[i])
			ordering.Sub(&ordering, &acc)

			// accumulator starts at one
			lone.Sub(&zBig[i], &one).Mul(&lone, &l1Big[i])

			h[i].Mul(&ordering, &alpha)
			t.Mul(&lone, &alphaSq)
			h[i].Add(&h[i], &t).Add(&h[i], &gate)
			h[i].Mul(&h[i], &xnMinusOneInv[irev%uint64(ratio)])
		}
	})

	pk.DomainBig.FFTInverse(h, fft.DIT, true)
	return h
}

// evaluateXnMinusOneDomainBigCoset returns the (ratio distinct) values of
// Xⁿ-1 on the coset of the big domain, in natural order.
func evaluateXnMinusOneDomainBigCoset(domainBig, domainSmall *fft.Domain) []fr.Element {
	ratio := domainBig.Cardinality / domainSmall.Cardinality

	res := make([]fr.Element, ratio)

	var g, u fr.Element
	var expo big.Int
	expo.SetUint64(domainSmall.Cardinality)
	g.Exp(domainBig.FrMultiplicativeGen, &expo)
	u.Exp(domainBig.Generator, &expo)

	var one fr.Element
	one.SetOne()

	res[0].Set(&g)
	for i := uint64(1); i < ratio; i++ {
		res[i].Mul(&res[i-1], &u)
	}
	for i := range res {
		res[i].Sub(&res[i], &one)
	}

	return res
}

// computeLinearizedPolynomial assembles the canonical linearization of the
// full constraint at zeta:
//
//	l·Ql + r·Qr + l·r·Qm + o·Qo + Qk
//	+ α·( β·zu·(l+βs1+γ)(r+βs2+γ)·S3 - (l+βζ+γ)(r+βkζ+γ)(o+βk²ζ+γ)·Z )
//	+ α²·L1(ζ)·Z
func computeLinearizedPolynomial(lZeta, rZeta, oZeta, s1Zeta, s2Zeta, zu, alpha, beta, gamma, zeta fr.Element, bcz []fr.Element, pk *ProvingKey) []fr.Element {
	n := int(pk.DomainSmall.Cardinality)
	k := pk.DomainSmall.FrMultiplicativeGen

	// coefficient of S3
	var coefS3, t fr.Element
	t.Mul(&beta, &s1Zeta)
	coefS3.Add(&lZeta, &t).Add(&coefS3, &gamma)
	t.Mul(&beta, &s2Zeta)
	t.Add(&rZeta, &t).Add(&t, &gamma)
	coefS3.Mul(&coefS3, &t)
	coefS3.Mul(&coefS3, &beta).Mul(&coefS3, &zu).Mul(&coefS3, &alpha)

	// coefficient of Z: α²·L1(ζ) - α·(l+βζ+γ)(r+βkζ+γ)(o+βk²ζ+γ)
	var coefZ, u fr.Element
	u.Mul(&beta, &zeta)
	coefZ.Add(&lZeta, &u).Add(&coefZ, &gamma)
	u.Mul(&u, &k)
	t.Add(&rZeta, &u).Add(&t, &gamma)
	coefZ.Mul(&coefZ, &t)
	u.Mul(&u, &k)
	t.Add(&oZeta, &u).Add(&t, &gamma)
	coefZ.Mul(&coefZ, &t).Mul(&coefZ, &alpha)

	lagrangeOne := evalLagrangeOne(zeta, pk.DomainSmall)
	var t2 fr.Element
	t2.Square(&alpha).Mul(&t2, &lagrangeOne)
	coefZ.Sub(&t2, &coefZ)

	var lrZeta fr.Element
	lrZeta.Mul(&lZeta, &rZeta)

	res := make([]fr.Element, len(bcz)) // n+3
	parallel.Execute(len(res), func(start, end int) {
		var v fr.Element
		for i := start; i < end; i++ {
			res[i].Mul(&bcz[i], &coefZ)
			if i < n {
				v.Mul(&pk.Ql[i], &lZeta)
				res[i].Add(&res[i], &v)
				v.Mul(&pk.Qr[i], &rZeta)
				res[i].Add(&res[i], &v)
				v.Mul(&pk.Qm[i], &lrZeta)
				res[i].Add(&res[i], &v)
				v.Mul(&pk.Qo[i], &oZeta)
				res[i].Add(&res[i], &v)
				res[i].Add(&res[i], &pk.CQk[i])
				v.Mul(&pk.CS3[i], &coefS3)
				res[i].Add(&res[i], &v)
			}
		}
	})

	return res
}

// evalLagrangeOne returns L1(x) = (xⁿ-1)/(n·(x-1)).
func evalLagrangeOne(x fr.Element, domain *fft.Domain) fr.Element {
	var num, den fr.Element
	var one fr.Element
	one.SetOne()

	var expo big.Int
	expo.SetUint64(domain.Cardinality)
	num.Exp(x, &expo)
	num.Sub(&num, &one)

	den.Sub(&x, &one)
	den.Inverse(&den)

	num.Mul(&num, &den).Mul(&num, &domain.CardinalityInv)
	return num
}

func toCanonical(domain *fft.Domain, p []fr.Element) {
	domain.FFTInverse(p, fft.DIF)
	fft.BitReverse(p)
}

// eval evaluates a polynomial in coefficient form.
func eval(p []fr.Element, x fr.Element) fr.Element {
	var res fr.Element
	for i := len(p) - 1; i >= 0; i-- {
		res.Mul(&res, &x).Add(&res, &p[i])
	}
	return res
}
