package fiatshamir

import (
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func TestTranscriptDeterminism(t *testing.T) {
	assert := require.New(t)

	run := func() [][]byte {
		fs := NewTranscript(mimc.NewMiMC(), "alpha", "beta", "gamma")
		assert.NoError(fs.Bind("alpha", []byte{1, 2, 3}))
		assert.NoError(fs.Bind("beta", []byte{4}))

		var out [][]byte
		for _, id := range []string{"alpha", "beta", "gamma"} {
			v, err := fs.ComputeChallenge(id)
			assert.NoError(err)
			out = append(out, v)
		}
		return out
	}

	a := run()
	b := run()
	for i := range a {
		assert.True(bytes.Equal(a[i], b[i]), "identical transcripts must give identical challenges")
	}
	assert.False(bytes.Equal(a[0], a[1]), "distinct challenges must differ")
}

func TestTranscriptDivergence(t *testing.T) {
	assert := require.New(t)

	fs1 := NewTranscript(mimc.NewMiMC(), "alpha", "beta")
	fs2 := NewTranscript(mimc.NewMiMC(), "alpha", "beta")

	assert.NoError(fs1.Bind("alpha", []byte{0xaa}))
	assert.NoError(fs2.Bind("alpha", []byte{0xab}))

	a1, err := fs1.ComputeChallenge("alpha")
	assert.NoError(err)
	a2, err := fs2.ComputeChallenge("alpha")
	assert.NoError(err)
	assert.False(bytes.Equal(a1, a2), "binding different data must change the challenge")

	// divergence propagates to later challenges through the chaining
	b1, err := fs1.ComputeChallenge("beta")
	assert.NoError(err)
	b2, err := fs2.ComputeChallenge("beta")
	assert.NoError(err)
	assert.False(bytes.Equal(b1, b2))
}

func TestTranscriptOrdering(t *testing.T) {
	assert := require.New(t)

	fs := NewTranscript(mimc.NewMiMC(), "alpha", "beta", "gamma")

	// beta before alpha
	_, err := fs.ComputeChallenge("beta")
	assert.ErrorIs(err, errPreviousChallengeNotComputed)

	_, err = fs.ComputeChallenge("alpha")
	assert.NoError(err)

	// gamma before beta
	_, err = fs.ComputeChallenge("gamma")
	assert.ErrorIs(err, errPreviousChallengeNotComputed)

	_, err = fs.ComputeChallenge("beta")
	assert.NoError(err)
	_, err = fs.ComputeChallenge("gamma")
	assert.NoError(err)
}

func TestTranscriptErrors(t *testing.T) {
	assert := require.New(t)

	fs := NewTranscript(mimc.NewMiMC(), "alpha")

	assert.ErrorIs(fs.Bind("nope", nil), errChallengeNotFound)
	_, err := fs.ComputeChallenge("nope")
	assert.ErrorIs(err, errChallengeNotFound)

	v1, err := fs.ComputeChallenge("alpha")
	assert.NoError(err)

	// locked after computation
	assert.ErrorIs(fs.Bind("alpha", []byte{1}), errChallengeAlreadyComputed)

	// recomputing returns the cached value
	v2, err := fs.ComputeChallenge("alpha")
	assert.NoError(err)
	assert.True(bytes.Equal(v1, v2))
}

func TestTranscriptWithBlake2b(t *testing.T) {
	assert := require.New(t)

	h, err := blake2b.New256(nil)
	assert.NoError(err)

	fs := NewTranscript(h, "alpha", "beta")
	assert.NoError(fs.Bind("alpha", []byte("data")))

	a, err := fs.ComputeChallenge("alpha")
	assert.NoError(err)
	assert.Len(a, 32)

	b, err := fs.ComputeChallenge("beta")
	assert.NoError(err)
	assert.False(bytes.Equal(a, b))
}
