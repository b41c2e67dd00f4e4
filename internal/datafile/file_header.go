// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/bpowers/uniprop/internal/varint"
)

const (
	magicDataHeader   = 0x554e4950 // "PINU" on disk, little-endian "UNIP"
	fileFormatVersion = 1
	fileHeaderSize    = 64

	maxNameLen = (1 << 16) - 1

	// at most one entry per code point, each at most one varint
	maxEntryCount = 0x110000
	maxPayloadLen = maxEntryCount * varint.MaxLen
)

type fileHeader struct {
	magic         uint32
	formatVersion uint32
	bits          uint8
	compression   Compression
	nameLen       uint16
	valueCount    uint32
	entryCount    uint64
	codeSpan      uint32
	valuesLen     uint64
	payloadLen    uint64
	storedLen     uint64
	checksum      uint64
}

func newFileHeader() *fileHeader {
	return &fileHeader{
		magic:         magicDataHeader,
		formatVersion: fileFormatVersion,
	}
}

func (h *fileHeader) MarshalTo(buf []byte) error {
	if len(buf) < fileHeaderSize {
		return errors.New("buffer too small for header")
	}
	buf = buf[:fileHeaderSize]
	binary.LittleEndian.PutUint32(buf[0:4], h.magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.formatVersion)
	buf[8] = h.bits
	buf[9] = uint8(h.compression)
	binary.LittleEndian.PutUint16(buf[10:12], h.nameLen)
	binary.LittleEndian.PutUint32(buf[12:16], h.valueCount)
	binary.LittleEndian.PutUint64(buf[16:24], h.entryCount)
	binary.LittleEndian.PutUint32(buf[24:28], h.codeSpan)
	binary.LittleEndian.PutUint32(buf[28:32], 0)
	binary.LittleEndian.PutUint64(buf[32:40], h.valuesLen)
	binary.LittleEndian.PutUint64(buf[40:48], h.payloadLen)
	binary.LittleEndian.PutUint64(buf[48:56], h.storedLen)
	binary.LittleEndian.PutUint64(buf[56:64], h.checksum)
	return nil
}

func (h *fileHeader) WriteTo(w io.Writer) (n int64, err error) {
	var headerBuf [fileHeaderSize]byte
	if err = h.MarshalTo(headerBuf[:]); err != nil {
		return 0, err
	}
	if _, err = w.Write(headerBuf[:]); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return int64(fileHeaderSize), nil
}

// Update rewrites the header in place at the start of the file.
func (h *fileHeader) Update(w io.WriterAt) error {
	var headerBuf [fileHeaderSize]byte
	if err := h.MarshalTo(headerBuf[:]); err != nil {
		return err
	}
	if _, err := w.WriteAt(headerBuf[:], 0); err != nil {
		return fmt.Errorf("f.WriteAt: %w", err)
	}
	return nil
}

func (h *fileHeader) UnmarshalBytes(headerBytes []byte) error {
	if len(headerBytes) < fileHeaderSize {
		return fmt.Errorf("headerBytes too short: %d < %d", len(headerBytes), fileHeaderSize)
	}

	headerBytes = headerBytes[:fileHeaderSize]

	h.magic = binary.LittleEndian.Uint32(headerBytes[0:4])
	if h.magic != magicDataHeader {
		return fmt.Errorf("bad magic number on data file (%x) -- not a uniprop datafile or corrupted", h.magic)
	}

	h.formatVersion = binary.LittleEndian.Uint32(headerBytes[4:8])
	if h.formatVersion != fileFormatVersion {
		return fmt.Errorf("this version of the uniprop library can only read v%d data files; found v%d", fileFormatVersion, h.formatVersion)
	}

	h.bits = headerBytes[8]
	h.compression = Compression(headerBytes[9])
	h.nameLen = binary.LittleEndian.Uint16(headerBytes[10:12])
	h.valueCount = binary.LittleEndian.Uint32(headerBytes[12:16])
	h.entryCount = binary.LittleEndian.Uint64(headerBytes[16:24])
	h.codeSpan = binary.LittleEndian.Uint32(headerBytes[24:28])
	h.valuesLen = binary.LittleEndian.Uint64(headerBytes[32:40])
	h.payloadLen = binary.LittleEndian.Uint64(headerBytes[40:48])
	h.storedLen = binary.LittleEndian.Uint64(headerBytes[48:56])
	h.checksum = binary.LittleEndian.Uint64(headerBytes[56:64])

	return nil
}

// dataLen is the expected file length.
func (h *fileHeader) dataLen() uint64 {
	return fileHeaderSize + uint64(h.nameLen) + h.valuesLen + h.storedLen
}
