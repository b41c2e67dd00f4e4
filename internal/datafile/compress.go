// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies the codec applied to the packed entries.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionS2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionS2:
		return "s2"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

// ParseCompression is the inverse of Compression.String.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

func (c Compression) valid() bool {
	return c <= CompressionS2
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderMaxMemory(maxPayloadLen),
		)
		if err != nil {
			panic(fmt.Sprintf("zstd.NewReader: %v", err))
		}
		return decoder
	},
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBestCompression),
			zstd.WithEncoderCRC(false), // the file carries its own checksum
		)
		if err != nil {
			panic(fmt.Sprintf("zstd.NewWriter: %v", err))
		}
		return encoder
	},
}

func (c Compression) encode(src []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return src, nil
	case CompressionZstd:
		encoder := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(encoder)
		return encoder.EncodeAll(src, nil), nil
	case CompressionS2:
		return s2.EncodeBetter(nil, src), nil
	default:
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

func (c Compression) decode(src []byte, rawLen uint64) ([]byte, error) {
	switch c {
	case CompressionNone:
		return src, nil
	case CompressionZstd:
		decoder := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(decoder)
		out, err := decoder.DecodeAll(src, make([]byte, 0, min(rawLen, maxPayloadLen)))
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		return out, nil
	case CompressionS2:
		n, err := s2.DecodedLen(src)
		if err != nil {
			return nil, fmt.Errorf("s2: %w", err)
		}
		if uint64(n) != rawLen {
			return nil, fmt.Errorf("s2: decoded length %d, header says %d", n, rawLen)
		}
		out, err := s2.Decode(nil, src)
		if err != nil {
			return nil, fmt.Errorf("s2: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}
