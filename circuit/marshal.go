package circuit

import (
	"fmt"
	"io"

	"github.com/blang/semver/v4"
	"github.com/fxamacker/cbor/v2"

	zkplonk "github.com/zkforge/plonk"
)

type serializedCircuit struct {
	Version    string
	NbPublic   int
	NbWires    int
	Gates      []Gate
	Equalities [][2]int
}

// WriteTo encodes the circuit to w in cbor, tagged with the library version.
func (c *Circuit) WriteTo(w io.Writer) (int64, error) {
	opts := cbor.CoreDetEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: w}
	enc := em.NewEncoder(cw)

	s := serializedCircuit{
		Version:    zkplonk.Version.String(),
		NbPublic:   c.NbPublic,
		NbWires:    c.NbWires,
		Gates:      c.Gates,
		Equalities: c.Equalities,
	}
	if err := enc.Encode(&s); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

// ReadFrom decodes a circuit from r. It fails if the data was written by an
// incompatible library version (different major or minor).
func (c *Circuit) ReadFrom(r io.Reader) (int64, error) {
	dm, err := cbor.DecOptions{MaxArrayElements: 134217728}.DecMode()
	if err != nil {
		return 0, err
	}
	dec := dm.NewDecoder(r)

	var s serializedCircuit
	if err := dec.Decode(&s); err != nil {
		return int64(dec.NumBytesRead()), err
	}

	if err := checkSerializationVersion(s.Version); err != nil {
		return int64(dec.NumBytesRead()), err
	}

	c.NbPublic = s.NbPublic
	c.NbWires = s.NbWires
	c.Gates = s.Gates
	c.Equalities = s.Equalities

	return int64(dec.NumBytesRead()), c.validate()
}

func checkSerializationVersion(v string) error {
	read, err := semver.Parse(v)
	if err != nil {
		return fmt.Errorf("circuit: invalid serialization version: %w", err)
	}
	if read.Major != zkplonk.Version.Major || read.Minor != zkplonk.Version.Minor {
		return fmt.Errorf("circuit: data serialized with version %s, current version is %s", read, zkplonk.Version)
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
