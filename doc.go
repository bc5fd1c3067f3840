// Package zkplonk implements the PLONK zero-knowledge proving scheme over
// the BN254 curve: circuit arithmetization, a KZG polynomial commitment
// scheme, a Fiat-Shamir transcript and the multi-round prover and verifier
// built on top of them.
//
// The entry points live in the plonk subpackage (Setup, Prove, Verify);
// circuits are described with the minimal gate/wire interface of the
// circuit subpackage.
package zkplonk

import (
	"github.com/blang/semver/v4"
)

// Version of the library, recorded in serialized artifacts and checked on
// deserialization.
var Version = semver.MustParse("0.1.0")
