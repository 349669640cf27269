package store

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/roach88/t3ns/internal/ir"
)

// Codec names the compression applied to dataset payloads.
type Codec string

const (
	// CodecNone stores payloads as raw little-endian words.
	CodecNone Codec = "none"
	// CodecLZ4 uses LZ4 block compression (fast).
	CodecLZ4 Codec = "lz4"
	// CodecZstd uses zstd (better ratio). Default.
	CodecZstd Codec = "zstd"
)

// ParseCodec resolves a codec name. The empty string selects zstd.
func ParseCodec(name string) (Codec, error) {
	switch Codec(name) {
	case "":
		return CodecZstd, nil
	case CodecNone, CodecLZ4, CodecZstd:
		return Codec(name), nil
	}
	return "", fmt.Errorf("unknown codec %q (want none, lz4 or zstd)", name)
}

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// Payload header: [UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the data is stored as is.
const headerSize = 8

// compress frames data with the header, falling back to raw storage when
// compression does not reach a 0.9 ratio.
func compress(data []byte, codec Codec) ([]byte, error) {
	var packed []byte
	switch {
	case len(data) == 0:
	case codec == CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		packed = buf[:n]
	case codec == CodecZstd:
		enc := getZstdEncoder()
		packed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	}

	if len(packed) == 0 || float64(len(packed)) > float64(len(data))*0.9 {
		out := make([]byte, headerSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[headerSize:], data)
		return out, nil
	}
	out := make([]byte, headerSize+len(packed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(packed)))
	copy(out[headerSize:], packed)
	return out, nil
}

func decompress(data []byte, codec Codec) ([]byte, error) {
	if len(data) < headerSize {
		return nil, errors.New("payload too small for header")
	}
	size := binary.LittleEndian.Uint32(data[0:])
	packedSize := binary.LittleEndian.Uint32(data[4:])
	body := data[headerSize:]

	if packedSize == 0 {
		if uint32(len(body)) != size {
			return nil, errors.New("raw payload size mismatch")
		}
		return body, nil
	}
	if uint32(len(body)) != packedSize {
		return nil, errors.New("compressed payload size mismatch")
	}

	out := make([]byte, size)
	switch codec {
	case CodecLZ4:
		n, err := lz4.UncompressBlock(body, out)
		if err != nil {
			return nil, fmt.Errorf("lz4: %w", err)
		}
		if uint32(n) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return out, nil
	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		decoded, err := dec.DecodeAll(body, out[:0])
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		if uint32(len(decoded)) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil
	}
	return nil, fmt.Errorf("payload compressed with unknown codec %q", codec)
}

// Values are stored as 8-byte little-endian words: ints as int64, floats by
// their IEEE-754 bits, so round trips are exact.

func encodeInts(v []int) []byte {
	out := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[8*i:], uint64(int64(x)))
	}
	return out
}

func encodeFloats(v []float64) []byte {
	out := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(x))
	}
	return out
}

func checkWords(raw []byte, n int) error {
	if len(raw) != 8*n {
		return ir.Errorf(ir.ErrCodeSizeMismatch,
			"payload holds %d bytes, %d values declared", len(raw), n)
	}
	return nil
}

func decodeInts(raw []byte, n int) ([]int, error) {
	if err := checkWords(raw, n); err != nil {
		return nil, err
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(int64(binary.LittleEndian.Uint64(raw[8*i:])))
	}
	return out, nil
}

func decodeFloats(raw []byte, n int) ([]float64, error) {
	if err := checkWords(raw, n); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:]))
	}
	return out, nil
}
