// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bpowers/uniprop/internal/ucd"
	"github.com/bpowers/uniprop/source"
)

// Source file names, relative to the UCD root.
const (
	SourceBidiBrackets        = "BidiBrackets"
	SourceBlocks              = "Blocks"
	SourceEastAsianWidth      = "EastAsianWidth"
	SourceEmoji               = "emoji/emoji-data"
	SourceGeneralCategory     = "extracted/DerivedGeneralCategory"
	SourceLineBreak           = "LineBreak"
	SourceName                = "extracted/DerivedName"
	SourceScripts             = "Scripts"
	SourceScriptExtensions    = "ScriptExtensions"
	SourceVerticalOrientation = "VerticalOrientation"
)

func loadFrom[V comparable](ctx context.Context, r source.Reader, file, name string, convert Converter[V], opts []Option[V]) (*Table[V], error) {
	lines, err := r.ReadLines(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("ReadLines(%s): %w", file, err)
	}
	return Load(name, lines, convert, opts...)
}

func Blocks(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	return loadFrom(ctx, r, SourceBlocks, "Blocks", StringValue, opts)
}

func EastAsianWidth(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	return loadFrom(ctx, r, SourceEastAsianWidth, "EastAsianWidth", StringValue, opts)
}

// GeneralCategory loads DerivedGeneralCategory.txt, which groups lines by
// category rather than by code point, so the result is sorted.
func GeneralCategory(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	t, err := loadFrom(ctx, r, SourceGeneralCategory, "GeneralCategory", StringValue, opts)
	if err != nil {
		return nil, err
	}
	t.Sort()
	return t, nil
}

// LineBreak loads LineBreak.txt, including the default values its header
// describes in prose.
func LineBreak(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	opts = append([]Option[string]{WithGrammar[string](NewLineBreakGrammar())}, opts...)
	return loadFrom(ctx, r, SourceLineBreak, "LineBreak", StringValue, opts)
}

func Name(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	return loadFrom(ctx, r, SourceName, "Name", StringValue, opts)
}

func Scripts(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	return loadFrom(ctx, r, SourceScripts, "Scripts", StringValue, opts)
}

// VerticalOrientation loads VerticalOrientation.txt, where the header lists
// the ranges that default to "U".
func VerticalOrientation(ctx context.Context, r source.Reader, opts ...Option[string]) (*Table[string], error) {
	opts = append([]Option[string]{WithGrammar[string](VerticalOrientationGrammar{})}, opts...)
	return loadFrom(ctx, r, SourceVerticalOrientation, "VerticalOrientation", StringValue, opts)
}

// ScriptSet is a space-separated list of script codes, e.g. "Hira Kana".
type ScriptSet string

// ScriptSetValue normalizes the whitespace of a ScriptExtensions value.
func ScriptSetValue(fields []string) (ScriptSet, error) {
	if len(fields) != 1 {
		return "", fmt.Errorf("expected 1 value field, got %d", len(fields))
	}
	return ScriptSet(strings.Join(strings.Fields(fields[0]), " ")), nil
}

// Scripts returns the individual script codes.
func (s ScriptSet) Scripts() []string {
	return strings.Fields(string(s))
}

// Has reports whether script is in the set.
func (s ScriptSet) Has(script string) bool {
	return slices.Contains(s.Scripts(), script)
}

func ScriptExtensions(ctx context.Context, r source.Reader, opts ...Option[ScriptSet]) (*Table[ScriptSet], error) {
	return loadFrom(ctx, r, SourceScriptExtensions, "ScriptExtensions", ScriptSetValue, opts)
}

// BidiBracket is a BidiBrackets.txt value: the paired bracket and whether
// this one opens ("o") or closes ("c").
type BidiBracket struct {
	Pair rune
	Type string
}

func (b BidiBracket) String() string {
	return UHex(b.Pair) + " " + b.Type
}

func BidiBracketValue(fields []string) (BidiBracket, error) {
	if len(fields) != 2 {
		return BidiBracket{}, fmt.Errorf("expected 2 value fields, got %d", len(fields))
	}
	pair, err := ucd.ParseCode(fields[0])
	if err != nil {
		return BidiBracket{}, err
	}
	return BidiBracket{Pair: pair, Type: fields[1]}, nil
}

func BidiBrackets(ctx context.Context, r source.Reader, opts ...Option[BidiBracket]) (*Table[BidiBracket], error) {
	return loadFrom(ctx, r, SourceBidiBrackets, "BidiBrackets", BidiBracketValue, opts)
}

// EmojiType is a set of emoji properties.
type EmojiType uint8

const (
	// EmojiProperty is the Emoji property itself.
	EmojiProperty EmojiType = 1 << iota
	EmojiPresentation
	EmojiModifier
	EmojiModifierBase
	EmojiComponent
	ExtendedPictographic
)

var emojiTypeNames = []struct {
	t    EmojiType
	name string
}{
	{EmojiProperty, "Emoji"},
	{EmojiPresentation, "Emoji_Presentation"},
	{EmojiModifier, "Emoji_Modifier"},
	{EmojiModifierBase, "Emoji_Modifier_Base"},
	{EmojiComponent, "Emoji_Component"},
	{ExtendedPictographic, "Extended_Pictographic"},
}

func (t EmojiType) String() string {
	var names []string
	for _, n := range emojiTypeNames {
		if t&n.t != 0 {
			names = append(names, n.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

func EmojiTypeValue(fields []string) (EmojiType, error) {
	if len(fields) != 1 {
		return 0, fmt.Errorf("expected 1 value field, got %d", len(fields))
	}
	for _, n := range emojiTypeNames {
		if n.name == fields[0] {
			return n.t, nil
		}
	}
	return 0, fmt.Errorf("unknown emoji property %q", fields[0])
}

// Emoji loads emoji-data.txt.  The file lists each property separately;
// the table unites them into one EmojiType per code point, and code points
// with no properties have the value 0.
func Emoji(ctx context.Context, r source.Reader, opts ...Option[EmojiType]) (*Table[EmojiType], error) {
	// the file's `@missing` line describes the per-property "No" default,
	// which doesn't apply to the united value
	loadOpts := append([]Option[EmojiType]{WithGrammar[EmojiType](IgnoreComments[EmojiType]{})}, opts...)
	t, err := loadFrom(ctx, r, SourceEmoji, "Emoji", EmojiTypeValue, loadOpts)
	if err != nil {
		return nil, err
	}

	united := make(map[rune]EmojiType)
	for _, e := range t.entries {
		for code := range e.Codes() {
			united[code] |= e.Value
		}
	}
	pairs := make([]Pair[EmojiType], 0, len(united))
	for code, value := range united {
		pairs = append(pairs, Pair[EmojiType]{Code: code, Value: value})
	}
	slices.SortFunc(pairs, func(a, b Pair[EmojiType]) int {
		return int(a.Code) - int(b.Code)
	})
	entries, err := FromPairs(pairs)
	if err != nil {
		return nil, err
	}

	newOpts := append([]Option[EmojiType]{WithMissing[EmojiType](func(rune) (EmojiType, bool) {
		return 0, true
	})}, opts...)
	return New("Emoji", entries, newOpts...), nil
}
