// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package ucd splits Unicode Character Database text files into records.
//
// A data line looks like:
//
//	0041..005A    ; Lu # Latin capital letters
//
// The first field is a hex code point or an inclusive MIN..MAX range, the
// remaining `;`-separated fields are handed to the caller untouched (apart
// from whitespace trimming).  Trailing `#` comments are reported through an
// optional CommentFunc before the line is split.
package ucd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxCodePoint is the largest valid Unicode code point.
const MaxCodePoint = 0x10FFFF

var ErrMalformedLine = errors.New("malformed line")

// MalformedLineError describes a data line that could not be parsed.
type MalformedLineError struct {
	Line   int // 1-based
	Text   string
	Reason string
}

func (e *MalformedLineError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

func (e *MalformedLineError) Is(target error) bool {
	return target == ErrMalformedLine
}

// Record is one data line.
type Record struct {
	Line   int
	Min    rune
	Max    rune
	Fields []string // every field after the code point column
}

// CommentFunc receives the text of a trailing comment (with the leading `#`
// and surrounding whitespace removed) and the column the comment started at.
// A column of 0 means the whole line is a comment.
type CommentFunc func(comment string, col int) error

// Option configures a Parser.
type Option func(*Parser)

// WithCommentFunc registers a handler for comments.
func WithCommentFunc(fn CommentFunc) Option {
	return func(p *Parser) {
		p.comment = fn
	}
}

// Parser iterates over the records in a set of lines.  It is not restartable;
// create a new Parser to scan the same lines again.
type Parser struct {
	lines   []string
	next    int
	rec     Record
	err     error
	comment CommentFunc
}

// NewParser returns a Parser over lines.  Lines may carry trailing newlines.
func NewParser(lines []string, opts ...Option) *Parser {
	p := &Parser{lines: lines}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Next advances to the next record, returning false when the input is
// exhausted or an error occurred.
func (p *Parser) Next() bool {
	for p.err == nil && p.next < len(p.lines) {
		lineNo := p.next + 1
		line := strings.TrimRight(p.lines[p.next], " \t\r\n")
		p.next++

		if start, text, ok := findComment(line); ok {
			if p.comment != nil {
				if err := p.comment(text, start); err != nil {
					p.err = fmt.Errorf("line %d: comment: %w", lineNo, err)
					return false
				}
			}
			line = line[:start]
		}
		if line == "" {
			continue
		}

		rec, err := parseRecord(line, lineNo)
		if err != nil {
			p.err = err
			return false
		}
		p.rec = rec
		return true
	}
	return false
}

// Record returns the record found by the last call to Next.
func (p *Parser) Record() Record {
	return p.rec
}

// Err returns the first error encountered.
func (p *Parser) Err() error {
	return p.err
}

// findComment locates a `#` comment.  start includes any whitespace before
// the `#`, so that stripping line[start:] also drops it.
func findComment(line string) (start int, text string, ok bool) {
	i := strings.IndexByte(line, '#')
	if i < 0 {
		return 0, "", false
	}
	start = len(strings.TrimRight(line[:i], " \t"))
	text = strings.TrimLeft(line[i+1:], " \t")
	return start, text, true
}

func parseRecord(line string, lineNo int) (Record, error) {
	columns := strings.Split(line, ";")
	if len(columns) < 2 {
		return Record{}, &MalformedLineError{Line: lineNo, Text: line, Reason: "expected at least 2 fields"}
	}
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}

	min, max, err := ParseRange(columns[0])
	if err != nil {
		return Record{}, &MalformedLineError{Line: lineNo, Text: line, Reason: err.Error()}
	}
	return Record{
		Line:   lineNo,
		Min:    min,
		Max:    max,
		Fields: columns[1:],
	}, nil
}

// ParseRange parses a hex code point ("0041") or an inclusive range
// ("0041..005A").
func ParseRange(s string) (min, max rune, err error) {
	lo, hi, isRange := strings.Cut(s, "..")
	if min, err = ParseCode(lo); err != nil {
		return 0, 0, err
	}
	if !isRange {
		return min, min, nil
	}
	if max, err = ParseCode(hi); err != nil {
		return 0, 0, err
	}
	if min > max {
		return 0, 0, fmt.Errorf("range %s: min > max", s)
	}
	return min, max, nil
}

// ParseCode parses a single hex code point.
func ParseCode(s string) (rune, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty code point")
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("code point %q: %w", s, err)
	}
	if n > MaxCodePoint {
		return 0, fmt.Errorf("code point %q beyond U+10FFFF", s)
	}
	return rune(n), nil
}
