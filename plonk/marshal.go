package plonk

import (
	"encoding/binary"
	"io"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/zkforge/plonk/fft"
)

// WriteTo writes binary encoding of the proof
func (proof *Proof) WriteTo(w io.Writer) (int64, error) {
	enc := curve.NewEncoder(w)

	toEncode := []interface{}{
		&proof.LRO[0],
		&proof.LRO[1],
		&proof.LRO[2],
		&proof.Z,
		&proof.H[0],
		&proof.H[1],
		&proof.H[2],
		&proof.BatchedProof.H,
		proof.BatchedProof.ClaimedValues,
		&proof.ZShiftedOpening.H,
		&proof.ZShiftedOpening.ClaimedValue,
	}

	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}

	return enc.BytesWritten(), nil
}

// ReadFrom decodes a proof from reader.
func (proof *Proof) ReadFrom(r io.Reader) (int64, error) {
	dec := curve.NewDecoder(r)

	toDecode := []interface{}{
		&proof.LRO[0],
		&proof.LRO[1],
		&proof.LRO[2],
		&proof.Z,
		&proof.H[0],
		&proof.H[1],
		&proof.H[2],
		&proof.BatchedProof.H,
		&proof.BatchedProof.ClaimedValues,
		&proof.ZShiftedOpening.H,
		&proof.ZShiftedOpening.ClaimedValue,
	}

	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}

	return dec.BytesRead(), nil
}

// WriteTo writes binary encoding of the verifying key
func (vk *VerifyingKey) WriteTo(w io.Writer) (int64, error) {
	enc := curve.NewEncoder(w)

	toEncode := []interface{}{
		vk.Size,
		&vk.SizeInv,
		&vk.Generator,
		vk.NbPublicVariables,
		&vk.CosetShift,
		&vk.S[0],
		&vk.S[1],
		&vk.S[2],
		&vk.Ql,
		&vk.Qr,
		&vk.Qm,
		&vk.Qo,
		&vk.Qk,
	}

	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}

	n, err := vk.Kzg.WriteTo(w)
	return enc.BytesWritten() + n, err
}

// ReadFrom decodes verifying key data from reader.
func (vk *VerifyingKey) ReadFrom(r io.Reader) (int64, error) {
	dec := curve.NewDecoder(r)

	toDecode := []interface{}{
		&vk.Size,
		&vk.SizeInv,
		&vk.Generator,
		&vk.NbPublicVariables,
		&vk.CosetShift,
		&vk.S[0],
		&vk.S[1],
		&vk.S[2],
		&vk.Ql,
		&vk.Qr,
		&vk.Qm,
		&vk.Qo,
		&vk.Qk,
	}

	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), err
		}
	}

	n, err := vk.Kzg.ReadFrom(r)
	return dec.BytesRead() + n, err
}

// WriteTo writes binary encoding of the proving key. The attached
// verifying key is not included: serialize it separately and reattach it
// after ReadFrom.
func (pk *ProvingKey) WriteTo(w io.Writer) (int64, error) {
	var written int64

	// domain sizes are enough to rebuild the domains
	var sizes [2]uint64
	sizes[0] = pk.DomainSmall.Cardinality
	sizes[1] = pk.DomainBig.Cardinality
	if err := binary.Write(w, binary.BigEndian, sizes[:]); err != nil {
		return written, err
	}
	written += 16

	enc := curve.NewEncoder(w)
	toEncode := []interface{}{
		pk.Ql, pk.Qr, pk.Qm, pk.Qo,
		pk.CQk, pk.LQk,
		pk.LS1, pk.LS2, pk.LS3,
		pk.CS1, pk.CS2, pk.CS3,
	}
	for _, v := range toEncode {
		if err := enc.Encode(v); err != nil {
			return written + enc.BytesWritten(), err
		}
	}
	written += enc.BytesWritten()

	if err := binary.Write(w, binary.BigEndian, uint64(len(pk.Permutation))); err != nil {
		return written, err
	}
	written += 8
	if err := binary.Write(w, binary.BigEndian, pk.Permutation); err != nil {
		return written, err
	}
	written += int64(8 * len(pk.Permutation))

	n, err := pk.Kzg.WriteTo(w)
	return written + n, err
}

// ReadFrom decodes proving key data from reader. The verifying key is not
// part of the encoding; reattach it afterwards.
func (pk *ProvingKey) ReadFrom(r io.Reader) (int64, error) {
	var read int64

	var sizes [2]uint64
	if err := binary.Read(r, binary.BigEndian, sizes[:]); err != nil {
		return read, err
	}
	read += 16
	pk.DomainSmall = fft.NewDomain(sizes[0])
	pk.DomainBig = fft.NewDomain(sizes[1])

	dec := curve.NewDecoder(r)
	toDecode := []interface{}{
		&pk.Ql, &pk.Qr, &pk.Qm, &pk.Qo,
		&pk.CQk, &pk.LQk,
		&pk.LS1, &pk.LS2, &pk.LS3,
		&pk.CS1, &pk.CS2, &pk.CS3,
	}
	for _, v := range toDecode {
		if err := dec.Decode(v); err != nil {
			return read + dec.BytesRead(), err
		}
	}
	read += dec.BytesRead()

	var permLen uint64
	if err := binary.Read(r, binary.BigEndian, &permLen); err != nil {
		return read, err
	}
	read += 8
	pk.Permutation = make([]int64, permLen)
	if err := binary.Read(r, binary.BigEndian, pk.Permutation); err != nil {
		return read, err
	}
	read += int64(8 * permLen)

	n, err := pk.Kzg.ReadFrom(r)
	return read + n, err
}
