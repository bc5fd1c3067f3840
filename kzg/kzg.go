// Package kzg implements the KZG polynomial commitment scheme over BN254:
// commitments are single G1 points, openings are verified with one pairing
// check against a structured reference string.
package kzg

import (
	"errors"
	"hash"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/zkforge/plonk/fiatshamir"
)

var (
	ErrInvalidNbDigests      = errors.New("kzg: number of digests does not match number of polynomials")
	ErrZeroNbDigests         = errors.New("kzg: number of digests is zero")
	ErrInvalidPolynomialSize = errors.New("kzg: invalid polynomial size, larger than the SRS or equal to 0")
	ErrVerifyOpeningProof    = errors.New("kzg: can't verify opening proof")
	ErrInvalidNbPoints       = errors.New("kzg: number of points does not match number of proofs")
)

// Digest is a KZG commitment to a polynomial.
type Digest = curve.G1Affine

// ProvingKey is the G1 part of the SRS: powers of the secret scalar times
// the G1 generator.
type ProvingKey struct {
	G1 []curve.G1Affine // [G1, [α]G1, [α²]G1, ...]
}

// VerifyingKey is the part of the SRS needed to verify openings.
type VerifyingKey struct {
	G2 [2]curve.G2Affine // [G2, [α]G2]
	G1 curve.G1Affine
}

// SRS is the full structured reference string.
type SRS struct {
	Pk ProvingKey
	Vk VerifyingKey
}

// NewSRS returns a new SRS of the given size, using bAlpha as the secret
// scalar. Production systems obtain the SRS from a trusted setup ceremony
// and never see alpha; this constructor exists for tests and development.
func NewSRS(size uint64, bAlpha *big.Int) (*SRS, error) {
	if size < 2 {
		return nil, ErrInvalidPolynomialSize
	}

	var srs SRS
	srs.Pk.G1 = make([]curve.G1Affine, size)

	var alpha fr.Element
	alpha.SetBigInt(bAlpha)

	_, _, gen1Aff, gen2Aff := curve.Generators()
	srs.Pk.G1[0] = gen1Aff
	srs.Vk.G1 = gen1Aff
	srs.Vk.G2[0] = gen2Aff
	srs.Vk.G2[1].ScalarMultiplication(&gen2Aff, bAlpha)

	alphas := make([]fr.Element, size-1)
	alphas[0] = alpha
	for i := 1; i < len(alphas); i++ {
		alphas[i].Mul(&alphas[i-1], &alpha)
	}
	g1s := curve.BatchScalarMultiplicationG1(&gen1Aff, alphas)
	copy(srs.Pk.G1[1:], g1s)

	return &srs, nil
}

// OpeningProof attests that a committed polynomial takes ClaimedValue at a
// point.
type OpeningProof struct {
	// H is a commitment to (p(X)-p(a))/(X-a)
	H curve.G1Affine

	ClaimedValue fr.Element
}

// BatchOpeningProof opens several polynomials at the same point.
type BatchOpeningProof struct {
	// H is a commitment to the folded quotient (∑ γⁱ(pᵢ(X)-pᵢ(a)))/(X-a)
	H curve.G1Affine

	ClaimedValues []fr.Element
}

// Commit commits to a polynomial in coefficient form using a multi
// exponentiation against the proving key.
func Commit(p []fr.Element, pk ProvingKey, nbTasks ...int) (Digest, error) {
	if len(p) == 0 || len(p) > len(pk.G1) {
		return Digest{}, ErrInvalidPolynomialSize
	}

	var res curve.G1Affine

	config := ecc.MultiExpConfig{}
	if len(nbTasks) > 0 {
		config.NbTasks = nbTasks[0]
	}
	if _, err := res.MultiExp(pk.G1[:len(p)], p, config); err != nil {
		return Digest{}, err
	}

	return res, nil
}

// Open computes an opening proof of p at point.
func Open(p []fr.Element, point fr.Element, pk ProvingKey) (OpeningProof, error) {
	if len(p) == 0 || len(p) > len(pk.G1) {
		return OpeningProof{}, ErrInvalidPolynomialSize
	}

	res := OpeningProof{
		ClaimedValue: eval(p, point),
	}

	// (p(X)-p(a))/(X-a)
	_p := make([]fr.Element, len(p))
	copy(_p, p)
	_p[0].Sub(&_p[0], &res.ClaimedValue)
	h := dividePolyByXminusA(_p, point)

	commit, err := Commit(h, pk)
	if err != nil {
		return OpeningProof{}, err
	}
	res.H.Set(&commit)

	return res, nil
}

// Verify checks a single opening proof against a commitment.
func Verify(commitment *Digest, proof *OpeningProof, point fr.Element, vk VerifyingKey) error {

	// [f(a)]G1
	var claimedValueG1 curve.G1Affine
	var claimedValueBigInt big.Int
	proof.ClaimedValue.BigInt(&claimedValueBigInt)
	claimedValueG1.ScalarMultiplication(&vk.G1, &claimedValueBigInt)

	// [f(α) - f(a)]G1
	var fminusfa curve.G1Affine
	fminusfa.Sub(commitment, &claimedValueG1)

	// [-H(α)]G1
	var negH curve.G1Affine
	negH.Neg(&proof.H)

	// [f(α) - f(a) + a*H(α)]G1
	var total curve.G1Affine
	var pointBigInt big.Int
	point.BigInt(&pointBigInt)
	total.ScalarMultiplication(&proof.H, &pointBigInt)
	total.Add(&total, &fminusfa)

	// e([f(α)-f(a)+aH(α)]G1, G2) == e([H(α)]G1, [α]G2)
	check, err := curve.PairingCheck(
		[]curve.G1Affine{total, negH},
		[]curve.G2Affine{vk.G2[0], vk.G2[1]},
	)
	if err != nil {
		return err
	}
	if !check {
		return ErrVerifyOpeningProof
	}
	return nil
}

// BatchOpenSinglePoint opens the given polynomials at a single point: the
// polynomials are folded with a challenge derived from the transcript
// (point, digests, claimed values, then dataTranscript) and a single
// quotient is committed.
func BatchOpenSinglePoint(polynomials [][]fr.Element, digests []Digest, point fr.Element, hf hash.Hash, pk ProvingKey, dataTranscript ...[]byte) (BatchOpeningProof, error) {

	nbDigests := len(digests)
	if nbDigests != len(polynomials) {
		return BatchOpeningProof{}, ErrInvalidNbDigests
	}

	var res BatchOpeningProof

	res.ClaimedValues = make([]fr.Element, len(polynomials))
	var wg sync.WaitGroup
	wg.Add(len(polynomials))
	for i := 0; i < len(polynomials); i++ {
		go func(_i int) {
			res.ClaimedValues[_i] = eval(polynomials[_i], point)
			wg.Done()
		}(i)
	}
	wg.Wait()

	gamma, err := deriveGamma(point, digests, res.ClaimedValues, hf, dataTranscript...)
	if err != nil {
		return BatchOpeningProof{}, err
	}

	// fold the polynomials: ∑ᵢ γⁱ (pᵢ(X) - pᵢ(a))
	largest := 0
	for _, p := range polynomials {
		if len(p) > largest {
			largest = len(p)
		}
	}
	foldedPolynomial := make([]fr.Element, largest)
	copy(foldedPolynomial, polynomials[0])

	gammas := make([]fr.Element, len(polynomials))
	gammas[0].SetOne()
	for i := 1; i < len(polynomials); i++ {
		gammas[i].Mul(&gammas[i-1], &gamma)
	}

	for i := 1; i < len(polynomials); i++ {
		for j := range polynomials[i] {
			var t fr.Element
			t.Mul(&polynomials[i][j], &gammas[i])
			foldedPolynomial[j].Add(&foldedPolynomial[j], &t)
		}
	}

	var foldedEval fr.Element
	for i := len(res.ClaimedValues) - 1; i >= 0; i-- {
		foldedEval.Mul(&foldedEval, &gamma)
		foldedEval.Add(&foldedEval, &res.ClaimedValues[i])
	}
	foldedPolynomial[0].Sub(&foldedPolynomial[0], &foldedEval)

	h := dividePolyByXminusA(foldedPolynomial, point)

	commit, err := Commit(h, pk)
	if err != nil {
		return BatchOpeningProof{}, err
	}
	res.H.Set(&commit)

	return res, nil
}

// FoldProof folds a batch opening proof and its digests into a single
// (digest, opening proof) pair, so that a batch opened at one point can be
// verified like a single opening. The same transcript data must be supplied
// as at opening time.
func FoldProof(digests []Digest, batchOpeningProof *BatchOpeningProof, point fr.Element, hf hash.Hash, dataTranscript ...[]byte) (OpeningProof, Digest, error) {

	nbDigests := len(digests)
	if nbDigests != len(batchOpeningProof.ClaimedValues) {
		return OpeningProof{}, Digest{}, ErrInvalidNbDigests
	}

	gamma, err := deriveGamma(point, digests, batchOpeningProof.ClaimedValues, hf, dataTranscript...)
	if err != nil {
		return OpeningProof{}, Digest{}, err
	}

	gammai := make([]fr.Element, nbDigests)
	gammai[0].SetOne()
	for i := 1; i < nbDigests; i++ {
		gammai[i].Mul(&gammai[i-1], &gamma)
	}

	foldedDigest, foldedEval, err := fold(digests, batchOpeningProof.ClaimedValues, gammai)
	if err != nil {
		return OpeningProof{}, Digest{}, err
	}

	var res OpeningProof
	res.ClaimedValue.Set(&foldedEval)
	res.H.Set(&batchOpeningProof.H)

	return res, foldedDigest, nil
}

// BatchVerifySinglePoint verifies a batch opening proof at a single point.
func BatchVerifySinglePoint(digests []Digest, batchOpeningProof *BatchOpeningProof, point fr.Element, hf hash.Hash, vk VerifyingKey, dataTranscript ...[]byte) error {
	proof, foldedDigest, err := FoldProof(digests, batchOpeningProof, point, hf, dataTranscript...)
	if err != nil {
		return err
	}
	return Verify(&foldedDigest, &proof, point, vk)
}

// BatchVerifyMultiPoints verifies proofs of openings at distinct points
// with a single pairing check, folding the proofs with verifier-local
// randomness.
func BatchVerifyMultiPoints(digests []Digest, proofs []OpeningProof, points []fr.Element, vk VerifyingKey) error {

	if len(digests) != len(proofs) || len(digests) != len(points) {
		return ErrInvalidNbPoints
	}
	if len(digests) == 0 {
		return ErrZeroNbDigests
	}

	// no need to fold a single proof
	if len(digests) == 1 {
		return Verify(&digests[0], &proofs[0], points[0], vk)
	}

	// sample random numbers λᵢ for sampling, λ₀ = 1
	randomNumbers := make([]fr.Element, len(digests))
	randomNumbers[0].SetOne()
	for i := 1; i < len(randomNumbers); i++ {
		if _, err := randomNumbers[i].SetRandom(); err != nil {
			return err
		}
	}

	// fold the committed quotients: ∑ᵢ λᵢ [Hᵢ(α)]G1
	var foldedQuotients curve.G1Affine
	quotients := make([]curve.G1Affine, len(proofs))
	for i := 0; i < len(proofs); i++ {
		quotients[i].Set(&proofs[i].H)
	}
	config := ecc.MultiExpConfig{}
	if _, err := foldedQuotients.MultiExp(quotients, randomNumbers, config); err != nil {
		return err
	}

	// fold digests and evals
	evals := make([]fr.Element, len(digests))
	for i := 0; i < len(digests); i++ {
		evals[i].Set(&proofs[i].ClaimedValue)
	}
	foldedDigests, foldedEvals, err := fold(digests, evals, randomNumbers)
	if err != nil {
		return err
	}

	// [∑ᵢλᵢfᵢ(aᵢ)]G1
	var foldedEvalsCommit curve.G1Affine
	var foldedEvalsBigInt big.Int
	foldedEvals.BigInt(&foldedEvalsBigInt)
	foldedEvalsCommit.ScalarMultiplication(&vk.G1, &foldedEvalsBigInt)

	// [∑ᵢλᵢ(fᵢ(α) - fᵢ(aᵢ))]G1
	foldedDigests.Sub(&foldedDigests, &foldedEvalsCommit)

	// add [∑ᵢλᵢaᵢ[Hᵢ(α)]]G1
	var foldedPointsQuotients curve.G1Affine
	for i := 0; i < len(randomNumbers); i++ {
		randomNumbers[i].Mul(&randomNumbers[i], &points[i])
	}
	if _, err := foldedPointsQuotients.MultiExp(quotients, randomNumbers, config); err != nil {
		return err
	}
	foldedDigests.Add(&foldedDigests, &foldedPointsQuotients)

	// -∑ᵢλᵢ[Hᵢ(α)]G1
	foldedQuotients.Neg(&foldedQuotients)

	// e(∑ᵢλᵢ(fᵢ(α) - fᵢ(aᵢ) + aᵢHᵢ(α))G1, G2) == e(∑ᵢλᵢ[Hᵢ(α)]G1, [α]G2)
	check, err := curve.PairingCheck(
		[]curve.G1Affine{foldedDigests, foldedQuotients},
		[]curve.G2Affine{vk.G2[0], vk.G2[1]},
	)
	if err != nil {
		return err
	}
	if !check {
		return ErrVerifyOpeningProof
	}
	return nil
}

// fold returns ∑ᵢ cᵢdᵢ (in G1) and ∑ᵢ cᵢeᵢ.
func fold(digests []Digest, evaluations, factors []fr.Element) (Digest, fr.Element, error) {

	nbDigests := len(digests)

	var foldedEvaluations fr.Element
	for i := 0; i < nbDigests; i++ {
		var tmp fr.Element
		tmp.Mul(&evaluations[i], &factors[i])
		foldedEvaluations.Add(&foldedEvaluations, &tmp)
	}

	var foldedDigests Digest
	if _, err := foldedDigests.MultiExp(digests, factors, ecc.MultiExpConfig{}); err != nil {
		return foldedDigests, foldedEvaluations, err
	}

	return foldedDigests, foldedEvaluations, nil
}

// deriveGamma derives the folding challenge from the opening point, the
// digests and the claimed values, plus caller-supplied transcript data.
func deriveGamma(point fr.Element, digests []Digest, claimedValues []fr.Element, hf hash.Hash, dataTranscript ...[]byte) (fr.Element, error) {

	if len(digests) == 0 {
		return fr.Element{}, ErrZeroNbDigests
	}

	fs := fiatshamir.NewTranscript(hf, "gamma")
	if err := fs.Bind("gamma", point.Marshal()); err != nil {
		return fr.Element{}, err
	}
	for i := range digests {
		if err := fs.Bind("gamma", digests[i].Marshal()); err != nil {
			return fr.Element{}, err
		}
	}
	for i := range claimedValues {
		if err := fs.Bind("gamma", claimedValues[i].Marshal()); err != nil {
			return fr.Element{}, err
		}
	}
	for i := range dataTranscript {
		if err := fs.Bind("gamma", dataTranscript[i]); err != nil {
			return fr.Element{}, err
		}
	}

	gammaByte, err := fs.ComputeChallenge("gamma")
	if err != nil {
		return fr.Element{}, err
	}
	var gamma fr.Element
	gamma.SetBytes(gammaByte)

	return gamma, nil
}

// eval evaluates a polynomial in coefficient form at point.
func eval(p []fr.Element, point fr.Element) fr.Element {
	var res fr.Element
	n := len(p)
	res.Set(&p[n-1])
	for i := n - 2; i >= 0; i-- {
		res.Mul(&res, &point).Add(&res, &p[i])
	}
	return res
}

// dividePolyByXminusA computes (in place) the quotient of f by X-a, f(a)
// being zero by construction. The result aliases f.
func dividePolyByXminusA(f []fr.Element, a fr.Element) []fr.Element {
	var t fr.Element
	for i := len(f) - 2; i >= 0; i-- {
		t.Mul(&f[i+1], &a)
		f[i].Add(&f[i], &t)
	}
	return f[1:]
}
