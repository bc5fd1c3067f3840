package kzg

import (
	"bytes"
	"crypto/sha256"
	"math/big"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

const srsSize = 230

var testSRS *SRS

func init() {
	var err error
	testSRS, err = NewSRS(srsSize, new(big.Int).SetInt64(42))
	if err != nil {
		panic(err)
	}
}

func randomPolynomial(size int) []fr.Element {
	f := make([]fr.Element, size)
	for i := range f {
		f[i].SetRandom()
	}
	return f
}

func TestCommitErrors(t *testing.T) {
	assert := require.New(t)

	_, err := Commit(nil, testSRS.Pk)
	assert.ErrorIs(err, ErrInvalidPolynomialSize)

	_, err = Commit(randomPolynomial(srsSize+1), testSRS.Pk)
	assert.ErrorIs(err, ErrInvalidPolynomialSize)
}

func TestCommitLinearity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10

	properties := gopter.NewProperties(parameters)

	properties.Property("Commit(f + g) == Commit(f) + Commit(g)", prop.ForAll(
		func(seed uint8) bool {
			f := randomPolynomial(40)
			g := randomPolynomial(60)

			cf, err := Commit(f, testSRS.Pk)
			if err != nil {
				return false
			}
			cg, err := Commit(g, testSRS.Pk)
			if err != nil {
				return false
			}

			sum := make([]fr.Element, 60)
			copy(sum, g)
			for i := range f {
				sum[i].Add(&sum[i], &f[i])
			}
			csum, err := Commit(sum, testSRS.Pk)
			if err != nil {
				return false
			}

			var expected curve.G1Affine
			expected.Add(&cf, &cg)
			return csum.Equal(&expected)
		},
		gen.UInt8(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestOpenVerify(t *testing.T) {
	assert := require.New(t)

	f := randomPolynomial(60)
	digest, err := Commit(f, testSRS.Pk)
	assert.NoError(err)

	var point fr.Element
	point.SetRandom()

	proof, err := Open(f, point, testSRS.Pk)
	assert.NoError(err)

	expected := eval(f, point)
	assert.True(proof.ClaimedValue.Equal(&expected))

	assert.NoError(Verify(&digest, &proof, point, testSRS.Vk))
}

func TestOpenVerifyEdgePoints(t *testing.T) {
	assert := require.New(t)

	// opening at zero: the a·H term of the check degenerates to infinity
	f := randomPolynomial(60)
	digest, err := Commit(f, testSRS.Pk)
	assert.NoError(err)

	var zero fr.Element
	proof, err := Open(f, zero, testSRS.Pk)
	assert.NoError(err)
	assert.True(proof.ClaimedValue.Equal(&f[0]))
	assert.NoError(Verify(&digest, &proof, zero, testSRS.Vk))

	// zero claimed value: [f(a)]G1 degenerates to infinity
	var point fr.Element
	point.SetRandom()
	fa := eval(f, point)
	f[0].Sub(&f[0], &fa)
	digest, err = Commit(f, testSRS.Pk)
	assert.NoError(err)
	proof, err = Open(f, point, testSRS.Pk)
	assert.NoError(err)
	assert.True(proof.ClaimedValue.IsZero())
	assert.NoError(Verify(&digest, &proof, point, testSRS.Vk))
}

func TestVerifyRejectsTamperedProof(t *testing.T) {
	assert := require.New(t)

	f := randomPolynomial(60)
	digest, err := Commit(f, testSRS.Pk)
	assert.NoError(err)

	var point fr.Element
	point.SetRandom()
	proof, err := Open(f, point, testSRS.Pk)
	assert.NoError(err)

	// tampered claimed value
	tampered := proof
	tampered.ClaimedValue.Add(&tampered.ClaimedValue, &point)
	assert.ErrorIs(Verify(&digest, &tampered, point, testSRS.Vk), ErrVerifyOpeningProof)

	// wrong commitment
	g := randomPolynomial(60)
	wrongDigest, err := Commit(g, testSRS.Pk)
	assert.NoError(err)
	assert.ErrorIs(Verify(&wrongDigest, &proof, point, testSRS.Vk), ErrVerifyOpeningProof)

	// wrong point
	var otherPoint fr.Element
	otherPoint.SetRandom()
	assert.ErrorIs(Verify(&digest, &proof, otherPoint, testSRS.Vk), ErrVerifyOpeningProof)
}

func TestBatchOpenSinglePoint(t *testing.T) {
	assert := require.New(t)

	nbPolys := 5
	polys := make([][]fr.Element, nbPolys)
	digests := make([]Digest, nbPolys)
	for i := range polys {
		polys[i] = randomPolynomial(20 + 5*i)
		var err error
		digests[i], err = Commit(polys[i], testSRS.Pk)
		assert.NoError(err)
	}

	var point fr.Element
	point.SetRandom()

	proof, err := BatchOpenSinglePoint(polys, digests, point, sha256.New(), testSRS.Pk)
	assert.NoError(err)

	for i := range polys {
		expected := eval(polys[i], point)
		assert.True(proof.ClaimedValues[i].Equal(&expected))
	}

	assert.NoError(BatchVerifySinglePoint(digests, &proof, point, sha256.New(), testSRS.Vk))

	// a different hash function derives a different folding challenge
	h, err := blake2b.New256(nil)
	assert.NoError(err)
	assert.Error(BatchVerifySinglePoint(digests, &proof, point, h, testSRS.Vk))

	// tampered claimed value
	proof.ClaimedValues[2].Add(&proof.ClaimedValues[2], &point)
	assert.Error(BatchVerifySinglePoint(digests, &proof, point, sha256.New(), testSRS.Vk))
}

func TestBatchVerifyMultiPoints(t *testing.T) {
	assert := require.New(t)

	nb := 4
	digests := make([]Digest, nb)
	proofs := make([]OpeningProof, nb)
	points := make([]fr.Element, nb)
	for i := 0; i < nb; i++ {
		f := randomPolynomial(30 + i)
		var err error
		digests[i], err = Commit(f, testSRS.Pk)
		assert.NoError(err)
		points[i].SetRandom()
		proofs[i], err = Open(f, points[i], testSRS.Pk)
		assert.NoError(err)
	}

	assert.NoError(BatchVerifyMultiPoints(digests, proofs, points, testSRS.Vk))

	// size mismatch
	assert.ErrorIs(BatchVerifyMultiPoints(digests[1:], proofs, points, testSRS.Vk), ErrInvalidNbPoints)

	// empty batch
	assert.ErrorIs(BatchVerifyMultiPoints(nil, nil, nil, testSRS.Vk), ErrZeroNbDigests)

	// one bad proof poisons the batch
	proofs[1].ClaimedValue.Add(&proofs[1].ClaimedValue, &points[0])
	assert.ErrorIs(BatchVerifyMultiPoints(digests, proofs, points, testSRS.Vk), ErrVerifyOpeningProof)
}

func TestSRSSerialization(t *testing.T) {
	assert := require.New(t)

	var buf bytes.Buffer
	_, err := testSRS.WriteTo(&buf)
	assert.NoError(err)

	var srs SRS
	_, err = srs.ReadFrom(&buf)
	assert.NoError(err)

	assert.Equal(len(testSRS.Pk.G1), len(srs.Pk.G1))
	assert.True(srs.Vk.G2[0].Equal(&testSRS.Vk.G2[0]))
	assert.True(srs.Vk.G2[1].Equal(&testSRS.Vk.G2[1]))
	assert.True(srs.Vk.G1.Equal(&testSRS.Vk.G1))

	// the deserialized SRS must still verify proofs
	f := randomPolynomial(10)
	digest, err := Commit(f, srs.Pk)
	assert.NoError(err)
	var point fr.Element
	point.SetRandom()
	proof, err := Open(f, point, srs.Pk)
	assert.NoError(err)
	assert.NoError(Verify(&digest, &proof, point, srs.Vk))
}

func BenchmarkKZGCommit(b *testing.B) {
	f := randomPolynomial(srsSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Commit(f, testSRS.Pk)
	}
}

func BenchmarkKZGOpen(b *testing.B) {
	f := randomPolynomial(srsSize)
	var point fr.Element
	point.SetRandom()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Open(f, point, testSRS.Pk)
	}
}

func BenchmarkKZGVerify(b *testing.B) {
	f := randomPolynomial(srsSize)
	digest, _ := Commit(f, testSRS.Pk)
	var point fr.Element
	point.SetRandom()
	proof, _ := Open(f, point, testSRS.Pk)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Verify(&digest, &proof, point, testSRS.Vk)
	}
}
