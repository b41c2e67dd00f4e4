// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package datafile reads and writes packed property table files.
//
// A datafile looks like:
//
//	┌───────────────────┐
//	│ file header       │
//	├───────────────────┤
//	│ table name        │
//	├───────────────────┤
//	│ value list        │
//	├───────────────────┤
//	│ packed entries    │
//	│ (maybe compressed)│
//	└───────────────────┘
//
// The header is a fixed 64 bytes, little-endian:
//
//	 0    4    8    9   10   12   16        24   28   32
//	+----+----+----+----+----+----+---------+----+----+
//	|magc|vers|bits|comp|nlen|vcnt| entries |span|rsvd|
//	+----+----+----+----+----+----+---------+----+----+
//	| values len | payload len | stored len | checksum |
//	+------------+-------------+------------+----------+
//	 32           40            48           56       64
//
// Each value is a varint length followed by that many bytes.  The packed
// entries are the headerless varint stream produced by the compressor; the
// checksum covers them before compression, so corruption is detected
// (with high probability) whichever codec was used.
package datafile
