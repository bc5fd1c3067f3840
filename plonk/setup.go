// Package plonk implements a PLONK prover and verifier over BN254 for
// circuits built with the circuit package: 3-wire gates with copy
// constraints, KZG polynomial commitments and a Fiat-Shamir transcript.
package plonk

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/sync/errgroup"

	"github.com/zkforge/plonk/circuit"
	"github.com/zkforge/plonk/fft"
	"github.com/zkforge/plonk/kzg"
)

var (
	// ErrSRSSize is returned by Setup when the SRS has fewer G1 powers than
	// the circuit requires (domain cardinality plus blinding headroom).
	ErrSRSSize = errors.New("plonk: SRS size too small for the circuit")

	// ErrInvalidWitnessSize is returned when the witness does not assign
	// every wire of the circuit.
	ErrInvalidWitnessSize = errors.New("plonk: witness length does not match the number of wires")

	// ErrInvalidWitness is returned by Prove when the witness does not
	// satisfy the constraint system.
	ErrInvalidWitness = errors.New("plonk: witness does not satisfy the constraints")
)

// ProvingKey holds the precomputed prover material for one circuit.
type ProvingKey struct {
	Vk *VerifyingKey

	DomainSmall, DomainBig *fft.Domain

	Kzg kzg.ProvingKey

	// selectors in canonical basis, except qk which stays incomplete: the
	// public rows are zero until the prover injects the public inputs
	Ql, Qr, Qm, Qo []fr.Element
	CQk, LQk       []fr.Element

	// sigma permutation polynomials, lagrange and canonical basis
	LS1, LS2, LS3 []fr.Element
	CS1, CS2, CS3 []fr.Element

	// position i of the wire column stack maps to position Permutation[i]
	Permutation []int64
}

// VerifyingKey holds what the verifier needs: the selector and sigma
// commitments plus domain data.
type VerifyingKey struct {
	Size              uint64
	SizeInv           fr.Element
	Generator         fr.Element
	NbPublicVariables uint64

	Kzg kzg.VerifyingKey

	// CosetShift generates the wire column cosets id, k·id, k²·id
	CosetShift fr.Element

	S [3]kzg.Digest

	Ql, Qr, Qm, Qo, Qk kzg.Digest
}

// Setup derives the proving and verifying keys for spr from an SRS. The SRS
// must hold at least n+3 G1 powers, n the domain cardinality, to leave room
// for the blinded accumulator.
func Setup(spr *circuit.Circuit, srs *kzg.SRS) (*ProvingKey, *VerifyingKey, error) {
	var pk ProvingKey
	var vk VerifyingKey

	nbConstraints := len(spr.Gates)

	// fft domains
	sizeSystem := uint64(nbConstraints)
	pk.DomainSmall = fft.NewDomain(sizeSystem)

	// the quotient has 3(n+2) coefficients, split in three chunks of n+2:
	// the big domain is 4n, except for tiny systems where 4n < 3n+6
	if n := pk.DomainSmall.Cardinality; n < 6 {
		pk.DomainBig = fft.NewDomain(3 * (n + 2))
	} else {
		pk.DomainBig = fft.NewDomain(4 * n)
	}

	if uint64(len(srs.Pk.G1)) < pk.DomainSmall.Cardinality+3 {
		return nil, nil, ErrSRSSize
	}

	vk.Size = pk.DomainSmall.Cardinality
	vk.SizeInv.SetUint64(vk.Size).Inverse(&vk.SizeInv)
	vk.Generator.Set(&pk.DomainSmall.Generator)
	vk.NbPublicVariables = uint64(spr.NbPublic)
	vk.CosetShift.Set(&pk.DomainSmall.FrMultiplicativeGen)
	vk.Kzg = srs.Vk
	pk.Kzg = srs.Pk

	// selectors in lagrange basis, zero-padded to the domain
	n := int(pk.DomainSmall.Cardinality)
	pk.Ql = make([]fr.Element, n)
	pk.Qr = make([]fr.Element, n)
	pk.Qm = make([]fr.Element, n)
	pk.Qo = make([]fr.Element, n)
	pk.LQk = make([]fr.Element, n)
	for i, g := range spr.Gates {
		pk.Ql[i].Set(&g.QL)
		pk.Qr[i].Set(&g.QR)
		pk.Qm[i].Set(&g.QM)
		pk.Qo[i].Set(&g.QO)
		if i >= spr.NbPublic {
			pk.LQk[i].Set(&g.QC)
		}
		// public rows keep qk == 0, the prover completes them
	}
	pk.CQk = make([]fr.Element, n)
	copy(pk.CQk, pk.LQk)

	toCanonical(pk.DomainSmall, pk.Ql)
	toCanonical(pk.DomainSmall, pk.Qr)
	toCanonical(pk.DomainSmall, pk.Qm)
	toCanonical(pk.DomainSmall, pk.Qo)
	toCanonical(pk.DomainSmall, pk.CQk)

	buildPermutation(spr, &pk)
	computePermutationPolynomials(&pk)

	// commit the selectors and the sigmas
	var g errgroup.Group
	g.Go(func() (err error) { vk.Ql, err = kzg.Commit(pk.Ql, pk.Kzg); return })
	g.Go(func() (err error) { vk.Qr, err = kzg.Commit(pk.Qr, pk.Kzg); return })
	g.Go(func() (err error) { vk.Qm, err = kzg.Commit(pk.Qm, pk.Kzg); return })
	g.Go(func() (err error) { vk.Qo, err = kzg.Commit(pk.Qo, pk.Kzg); return })
	g.Go(func() (err error) { vk.Qk, err = kzg.Commit(pk.CQk, pk.Kzg); return })
	g.Go(func() (err error) { vk.S[0], err = kzg.Commit(pk.CS1, pk.Kzg); return })
	g.Go(func() (err error) { vk.S[1], err = kzg.Commit(pk.CS2, pk.Kzg); return })
	g.Go(func() (err error) { vk.S[2], err = kzg.Commit(pk.CS3, pk.Kzg); return })
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	pk.Vk = &vk
	return &pk, &vk, nil
}

// buildPermutation builds the copy constraint permutation on the stacked
// wire columns l‖r‖o (3n positions): positions holding the same wire form a
// cycle. Explicit equalities merge the cycles of their two wires.
func buildPermutation(spr *circuit.Circuit, pk *ProvingKey) {
	n := int(pk.DomainSmall.Cardinality)

	// union-find over wire ids, so that explicitly equal wires share a cycle
	parent := make([]int, spr.NbWires)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range spr.Equalities {
		ra, rb := find(e[0]), find(e[1])
		if ra != rb {
			parent[ra] = rb
		}
	}

	// wire id (canonicalized) at each of the 3n column positions; padding
	// rows reuse a dummy id per position so they stay fixed points
	lro := make([]int, 3*n)
	for i := range lro {
		lro[i] = -1
	}
	for i, g := range spr.Gates {
		lro[i] = find(g.L)
		lro[i+n] = find(g.R)
		lro[i+2*n] = find(g.O)
	}

	pk.Permutation = make([]int64, 3*n)
	for i := range pk.Permutation {
		pk.Permutation[i] = -1
	}

	// cycle[w] is the last position seen holding wire w
	cycle := make([]int64, spr.NbWires)
	for i := range cycle {
		cycle[i] = -1
	}
	for i := 0; i < len(lro); i++ {
		w := lro[i]
		if w == -1 {
			// padding row, fixed point
			pk.Permutation[i] = int64(i)
			continue
		}
		if cycle[w] != -1 {
			pk.Permutation[i] = cycle[w]
		}
		cycle[w] = int64(i)
	}

	// close the cycles: the first position of each wire points to the last
	for i := 0; i < len(lro); i++ {
		if pk.Permutation[i] == -1 {
			pk.Permutation[i] = cycle[lro[i]]
		}
	}
}

// computePermutationPolynomials builds the sigma polynomials from the
// permutation: position p maps to the field element ω^p, k·ω^(p-n) or
// k²·ω^(p-2n) depending on the column p falls in.
func computePermutationPolynomials(pk *ProvingKey) {
	n := int(pk.DomainSmall.Cardinality)

	// evaluations of id, k·id, k²·id on the domain, stacked
	sID := make([]fr.Element, 3*n)
	sID[0].SetOne()
	sID[n].Set(&pk.DomainSmall.FrMultiplicativeGen)
	sID[2*n].Square(&pk.DomainSmall.FrMultiplicativeGen)
	for i := 1; i < n; i++ {
		sID[i].Mul(&sID[i-1], &pk.DomainSmall.Generator)
		sID[i+n].Mul(&sID[i+n-1], &pk.DomainSmall.Generator)
		sID[i+2*n].Mul(&sID[i+2*n-1], &pk.DomainSmall.Generator)
	}

	pk.LS1 = make([]fr.Element, n)
	pk.LS2 = make([]fr.Element, n)
	pk.LS3 = make([]fr.Element, n)
	for i := 0; i < n; i++ {
		pk.LS1[i].Set(&sID[pk.Permutation[i]])
		pk.LS2[i].Set(&sID[pk.Permutation[i+n]])
		pk.LS3[i].Set(&sID[pk.Permutation[i+2*n]])
	}

	pk.CS1 = make([]fr.Element, n)
	pk.CS2 = make([]fr.Element, n)
	pk.CS3 = make([]fr.Element, n)
	copy(pk.CS1, pk.LS1)
	copy(pk.CS2, pk.LS2)
	copy(pk.CS3, pk.LS3)
	for _, p := range [][]fr.Element{pk.CS1, pk.CS2, pk.CS3} {
		toCanonical(pk.DomainSmall, p)
	}
}
