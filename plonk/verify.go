package plonk

import (
	"crypto/sha256"
	"errors"
	"math/big"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkforge/plonk/fiatshamir"
	"github.com/zkforge/plonk/kzg"
	"github.com/zkforge/plonk/logger"
)

var (
	// ErrMalformedProof is returned when the proof does not carry the
	// expected number of claimed values.
	ErrMalformedProof = errors.New("plonk: malformed proof")

	errAlgebraicRelation = errors.New("plonk: algebraic relation does not hold")
)

// Verify checks a proof against a verifying key and the public inputs. A
// nil error means the proof is valid for this statement.
func Verify(proof *Proof, vk *VerifyingKey, publicWitness []fr.Element) error {
	log := logger.Logger().With().Str("curve", "bn254").Str("backend", "plonk").Logger()
	start := time.Now()

	// the batch opens exactly foldedH, lin, l, r, o, s1, s2
	if len(proof.BatchedProof.ClaimedValues) != 7 {
		return ErrMalformedProof
	}
	if uint64(len(publicWitness)) != vk.NbPublicVariables {
		return ErrInvalidWitnessSize
	}

	fs := fiatshamir.NewTranscript(sha256.New(), "gamma", "beta", "alpha", "zeta")
	if err := bindPublicData(fs, "gamma", vk, publicWitness); err != nil {
		return err
	}
	gamma, err := deriveRandomness(fs, "gamma", &proof.LRO[0], &proof.LRO[1], &proof.LRO[2])
	if err != nil {
		return err
	}
	beta, err := deriveRandomness(fs, "beta")
	if err != nil {
		return err
	}
	alpha, err := deriveRandomness(fs, "alpha", &proof.Z)
	if err != nil {
		return err
	}
	zeta, err := deriveRandomness(fs, "zeta", &proof.H[0], &proof.H[1], &proof.H[2])
	if err != nil {
		return err
	}

	// ζⁿ-1
	var one fr.Element
	one.SetOne()
	var bExpo big.Int
	bExpo.SetUint64(vk.Size)
	var zetaPowerN, zhZeta fr.Element
	zetaPowerN.Exp(zeta, &bExpo)
	zhZeta.Sub(&zetaPowerN, &one)

	// L1(ζ) = (ζⁿ-1)/(n·(ζ-1))
	var lagrangeOne, den fr.Element
	den.Sub(&zeta, &one)
	lagrangeOne.Inverse(&den).
		Mul(&lagrangeOne, &zhZeta).
		Mul(&lagrangeOne, &vk.SizeInv)

	// pi = ∑ wᵢ·Lᵢ(ζ), Lᵢ(ζ) = ωⁱ·(ζⁿ-1)/(n·(ζ-ωⁱ))
	var pi fr.Element
	if len(publicWitness) > 0 {
		dens := make([]fr.Element, len(publicWitness))
		var wPower fr.Element
		wPower.SetOne()
		for i := range dens {
			dens[i].Sub(&zeta, &wPower)
			wPower.Mul(&wPower, &vk.Generator)
		}
		invDens := fr.BatchInvert(dens)

		var t, accw fr.Element
		accw.SetOne()
		for i := range publicWitness {
			t.Mul(&invDens[i], &accw).
				Mul(&t, &zhZeta).
				Mul(&t, &vk.SizeInv).
				Mul(&t, &publicWitness[i])
			pi.Add(&pi, &t)
			accw.Mul(&accw, &vk.Generator)
		}
	}

	foldedHZeta := proof.BatchedProof.ClaimedValues[0]
	linZeta := proof.BatchedProof.ClaimedValues[1]
	l := proof.BatchedProof.ClaimedValues[2]
	r := proof.BatchedProof.ClaimedValues[3]
	o := proof.BatchedProof.ClaimedValues[4]
	s1 := proof.BatchedProof.ClaimedValues[5]
	s2 := proof.BatchedProof.ClaimedValues[6]
	zu := proof.ZShiftedOpening.ClaimedValue

	// lin(ζ) + pi + α·zu·(l+βs1+γ)(r+βs2+γ)(o+γ) - α²·L1(ζ) == foldedH(ζ)·(ζⁿ-1)
	var t, f1, f2, f3, lhs, rhs fr.Element
	t.Mul(&beta, &s1)
	f1.Add(&l, &t).Add(&f1, &gamma)
	t.Mul(&beta, &s2)
	f2.Add(&r, &t).Add(&f2, &gamma)
	f3.Add(&o, &gamma)

	lhs.Mul(&f1, &f2).Mul(&lhs, &f3).Mul(&lhs, &zu).Mul(&lhs, &alpha)
	lhs.Add(&lhs, &linZeta).Add(&lhs, &pi)
	t.Square(&alpha).Mul(&t, &lagrangeOne)
	lhs.Sub(&lhs, &t)

	rhs.Mul(&foldedHZeta, &zhZeta)
	if !lhs.Equal(&rhs) {
		return errAlgebraicRelation
	}

	// reconstruct the linearization digest from the commitments
	var coefS3, coefZ, u fr.Element
	coefS3.Mul(&f1, &f2).Mul(&coefS3, &beta).Mul(&coefS3, &zu).Mul(&coefS3, &alpha)

	u.Mul(&beta, &zeta)
	coefZ.Add(&l, &u).Add(&coefZ, &gamma)
	u.Mul(&u, &vk.CosetShift)
	t.Add(&r, &u).Add(&t, &gamma)
	coefZ.Mul(&coefZ, &t)
	u.Mul(&u, &vk.CosetShift)
	t.Add(&o, &u).Add(&t, &gamma)
	coefZ.Mul(&coefZ, &t).Mul(&coefZ, &alpha)
	t.Square(&alpha).Mul(&t, &lagrangeOne)
	coefZ.Sub(&t, &coefZ)

	var lr fr.Element
	lr.Mul(&l, &r)

	points := []curve.G1Affine{
		vk.Ql, vk.Qr, vk.Qm, vk.Qo, vk.Qk,
		vk.S[2],
		proof.Z,
	}
	scalars := []fr.Element{
		l, r, lr, o, one,
		coefS3,
		coefZ,
	}
	var linDigest kzg.Digest
	if _, err := linDigest.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return err
	}

	// fold the quotient commitments at ζ
	var zetaPowerM fr.Element
	var bM big.Int
	bM.SetUint64(vk.Size + 2)
	zetaPowerM.Exp(zeta, &bM)
	var bZetaPowerM big.Int
	zetaPowerM.BigInt(&bZetaPowerM)

	var foldedHDigest kzg.Digest
	foldedHDigest.ScalarMultiplication(&proof.H[2], &bZetaPowerM)
	foldedHDigest.Add(&foldedHDigest, &proof.H[1])
	foldedHDigest.ScalarMultiplication(&foldedHDigest, &bZetaPowerM)
	foldedHDigest.Add(&foldedHDigest, &proof.H[0])

	digestsToFold := []kzg.Digest{
		foldedHDigest,
		linDigest,
		proof.LRO[0],
		proof.LRO[1],
		proof.LRO[2],
		vk.S[0],
		vk.S[1],
	}
	foldedProof, foldedDigest, err := kzg.FoldProof(
		digestsToFold,
		&proof.BatchedProof,
		zeta,
		sha256.New(),
		zu.Marshal(),
	)
	if err != nil {
		return err
	}

	var shiftedZeta fr.Element
	shiftedZeta.Mul(&zeta, &vk.Generator)
	err = kzg.BatchVerifyMultiPoints(
		[]kzg.Digest{foldedDigest, proof.Z},
		[]kzg.OpeningProof{foldedProof, proof.ZShiftedOpening},
		[]fr.Element{zeta, shiftedZeta},
		vk.Kzg,
	)
	if err != nil {
		return err
	}

	log.Debug().Dur("took", time.Since(start)).Msg("verifier done")
	return nil
}

// bindPublicData binds the verifying key digests and the public inputs to a
// transcript challenge, fixing the statement before any randomness is drawn.
func bindPublicData(fs *fiatshamir.Transcript, challenge string, vk *VerifyingKey, publicInputs []fr.Element) error {
	for _, p := range []*kzg.Digest{
		&vk.S[0], &vk.S[1], &vk.S[2],
		&vk.Ql, &vk.Qr, &vk.Qm, &vk.Qo, &vk.Qk,
	} {
		if err := fs.Bind(challenge, p.Marshal()); err != nil {
			return err
		}
	}
	for i := range publicInputs {
		if err := fs.Bind(challenge, publicInputs[i].Marshal()); err != nil {
			return err
		}
	}
	return nil
}

// deriveRandomness binds the given points to a challenge and samples it as
// a field element.
func deriveRandomness(fs *fiatshamir.Transcript, challenge string, points ...*kzg.Digest) (fr.Element, error) {
	var r fr.Element

	for _, p := range points {
		buf := p.RawBytes()
		if err := fs.Bind(challenge, buf[:]); err != nil {
			return r, err
		}
	}

	b, err := fs.ComputeChallenge(challenge)
	if err != nil {
		return r, err
	}
	r.SetBytes(b)
	return r, nil
}
