// Package fiatshamir implements the Fiat-Shamir transform over a duplex-like
// transcript: challenges are declared upfront, in order, and each challenge
// hashes its own bindings together with the previous challenge's value.
package fiatshamir

import (
	"errors"
	"hash"
)

var (
	errChallengeNotFound            = errors.New("fiatshamir: challenge not recorded in the transcript")
	errChallengeAlreadyComputed     = errors.New("fiatshamir: challenge already computed, cannot bind more data")
	errPreviousChallengeNotComputed = errors.New("fiatshamir: the previous challenge is needed and has not been computed")
)

type challenge struct {
	position   int
	bindings   []byte
	value      []byte
	isComputed bool
}

// Transcript handles the creation of challenges for the Fiat-Shamir transform.
// It is stateful: computing a challenge locks it, and a challenge can only be
// computed once all preceding challenges have been.
type Transcript struct {
	h hash.Hash

	challengeOrder []string
	challenges     map[string]*challenge
	previous       *challenge
}

// NewTranscript returns a new transcript whose challenges are, in order,
// the given ids. h is reset between challenge computations.
func NewTranscript(h hash.Hash, challengesID ...string) *Transcript {
	t := &Transcript{
		h:              h,
		challengeOrder: challengesID,
		challenges:     make(map[string]*challenge, len(challengesID)),
	}
	for i, id := range challengesID {
		t.challenges[id] = &challenge{position: i}
	}
	return t
}

// Bind binds bValue to the challenge named challengeID. The same challenge
// can bind several values; their order matters. Binding fails once the
// challenge has been computed.
func (t *Transcript) Bind(challengeID string, bValue []byte) error {
	c, ok := t.challenges[challengeID]
	if !ok {
		return errChallengeNotFound
	}
	if c.isComputed {
		return errChallengeAlreadyComputed
	}
	c.bindings = append(c.bindings, bValue...)
	return nil
}

// ComputeChallenge computes the challenge named challengeID as
// h(challengeID || previousChallenge || bindings). The first challenge of
// the transcript has no previous term. Once computed, the value is cached
// and returned as is on subsequent calls.
func (t *Transcript) ComputeChallenge(challengeID string) ([]byte, error) {
	c, ok := t.challenges[challengeID]
	if !ok {
		return nil, errChallengeNotFound
	}

	if c.isComputed {
		return c.value, nil
	}

	// enforce the declared ordering
	if c.position != 0 {
		if t.previous == nil || t.previous.position != c.position-1 {
			return nil, errPreviousChallengeNotComputed
		}
	}

	t.h.Reset()
	defer t.h.Reset()

	if _, err := t.h.Write([]byte(challengeID)); err != nil {
		return nil, err
	}
	if c.position != 0 {
		if _, err := t.h.Write(t.previous.value); err != nil {
			return nil, err
		}
	}
	if _, err := t.h.Write(c.bindings); err != nil {
		return nil, err
	}

	c.value = t.h.Sum(nil)
	c.isComputed = true
	t.previous = c

	return c.value, nil
}
