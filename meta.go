package jotdb

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

const metaFileName = "meta.jot"

// indexDef is the persisted form of an index definition; definitions are
// keyed by index name in the metadata artifact.
type indexDef struct {
	Field string    `msgpack:"field"`
	Kind  IndexKind `msgpack:"kind"`
}

type metadata struct {
	Indexes map[string]indexDef `msgpack:"indexes"`
}

func newMetadata() *metadata {
	return &metadata{Indexes: make(map[string]indexDef)}
}

// loadMetadata reads the metadata artifact: a msgpack body followed by an
// 8-byte big-endian xxhash64 of the body. A missing file yields empty
// metadata; a bad checksum or undecodable body is MetaCorruptError.
func loadMetadata(path string) (*metadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return newMetadata(), nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, &MetaCorruptError{path, fmt.Errorf("truncated: %d bytes", len(data))}
	}
	body, trailer := data[:len(data)-8], data[len(data)-8:]
	if sum := xxhash.Sum64(body); sum != binary.BigEndian.Uint64(trailer) {
		return nil, &MetaCorruptError{path, fmt.Errorf("checksum mismatch")}
	}

	m := newMetadata()
	if err := msgpack.Unmarshal(body, m); err != nil {
		return nil, &MetaCorruptError{path, err}
	}
	if m.Indexes == nil {
		m.Indexes = make(map[string]indexDef)
	}
	return m, nil
}

func (m *metadata) save(path string) error {
	body, err := msgpack.Marshal(m)
	if err != nil {
		return err
	}
	data := binary.BigEndian.AppendUint64(body, xxhash.Sum64(body))

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0666); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
