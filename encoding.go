package jotdb

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// Stored document values carry a one-byte flag: raw msgpack, or msgpack
// compressed with zstd when the encoded body crosses the threshold.
const (
	rawValueFlag  = 0x00
	zstdValueFlag = 0x01

	compressThreshold = 512
)

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	zstdEncoder = must(zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)))
	zstdDecoder = must(zstd.NewReader(nil))
}

func encodeDoc(doc Document, compress bool) ([]byte, error) {
	var bb bytes.Buffer
	bb.WriteByte(rawValueFlag)
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.Encode(doc)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}

	data := bb.Bytes()
	if compress && len(data) > compressThreshold {
		out := make([]byte, 1, len(data))
		out[0] = zstdValueFlag
		return zstdEncoder.EncodeAll(data[1:], out), nil
	}
	return data, nil
}

func decodeDoc(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, dataErrf(data, nil, "empty document value")
	}
	body := data[1:]
	switch data[0] {
	case rawValueFlag:
	case zstdValueFlag:
		var err error
		body, err = zstdDecoder.DecodeAll(body, nil)
		if err != nil {
			return nil, dataErrf(data, err, "failed to decompress document")
		}
	default:
		return nil, dataErrf(data, nil, "unknown document value flag %#x", data[0])
	}

	var doc Document
	if err := msgpack.Unmarshal(body, &doc); err != nil {
		return nil, dataErrf(data, err, "failed to decode document")
	}
	return doc, nil
}

// Posting lists are msgpack arrays of primary keys; order is first-appearance
// order and must survive the round trip.
func encodePostings(keys []string) ([]byte, error) {
	return msgpack.Marshal(keys)
}

func decodePostings(data []byte) ([]string, error) {
	if data == nil {
		return nil, nil // posting miss recovers as an empty list
	}
	var keys []string
	if err := msgpack.Unmarshal(data, &keys); err != nil {
		return nil, dataErrf(data, err, "failed to decode posting list")
	}
	return keys, nil
}
