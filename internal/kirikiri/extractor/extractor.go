// Package extractor wires the scanner and pattern recognizer into a single
// per-file pass: it extends each candidate the scanner finds into a
// terminated byte range, decodes it, validates it, classifies it, and
// hands a model.Entry back to the scanner to append at the current line.
package extractor

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/classifier"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/pattern"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/scanner"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/textutil"
)

// handler implements scanner.Handler. It carries no state of its own; the
// scanner's cursor and line counter are the only state in the pipeline.
type handler struct{}

// ExtractFile runs the full scan over data and returns a FileRecord with
// metadata filled in.
func ExtractFile(data []byte, filename string) *model.FileRecord {
	record := scanner.Scan(data, handler{})
	record.Metadata.File = filename

	translatable := 0
	for _, entries := range record.Lines {
		for _, e := range entries {
			if e.Type.Translatable() {
				translatable++
			}
		}
	}
	record.Metadata.Translatable = translatable
	return record
}

func (handler) HandleSJIS(data []byte, pos int) (int, *model.Entry, bool) {
	start := backScanASCIIPrefix(data, pos)
	end := forwardBodySJISMode(data, start)
	next := terminatorAdvance(data, end)

	raw := data[start:end]
	if len(raw) < 2 {
		return next, nil, false
	}

	decoded, err := decodeSJIS(raw)
	if err != nil {
		return next, nil, false
	}

	clean := cleanControlChars(decoded)
	if len([]rune(clean)) < 2 || !textutil.ContainsCJK(clean) {
		return next, nil, false
	}

	typ := classifier.Classify(clean, "")
	entry := &model.Entry{
		Type:    typ,
		Original: clean,
		Offset:  start,
		ByteLen: end - start,
	}
	return next, entry, true
}

func (handler) HandlePattern(data []byte, pos int, kind pattern.Kind) (int, *model.Entry, bool) {
	stemStart := pos
	if kind == pattern.SpriteFusion {
		stemStart = backScanFusionStem(data, pos)
	}

	end := forwardBodyASCIIMode(data, pos)
	next := terminatorAdvance(data, end)

	raw := data[stemStart:end]
	if len(raw) < 2 {
		return next, nil, false
	}

	decoded, err := decodeSJIS(raw)
	if err != nil {
		return next, nil, false
	}

	clean := cleanControlChars(decoded)
	if clean == "" {
		return next, nil, false
	}

	declared := declaredType(kind)
	if declared == model.HashtagLabel {
		clean = strings.TrimRight(clean, "!?.,。、・")
		if clean == "" {
			return next, nil, false
		}
	}

	entry := &model.Entry{
		Type:    classifier.Classify(clean, declared),
		Original: clean,
		Offset:  stemStart,
		ByteLen: end - stemStart,
	}
	return next, entry, true
}

func declaredType(kind pattern.Kind) model.Taxonomy {
	switch kind {
	case pattern.SpritePrefix, pattern.SpriteFusion:
		return model.SpriteReference
	case pattern.Sound:
		return model.SoundEffect
	case pattern.Hashtag:
		return model.HashtagLabel
	case pattern.Effect:
		return model.EffectReference
	case pattern.Background:
		return model.BackgroundReference
	default:
		return ""
	}
}

// backScanASCIIPrefix scans backward up to 10 bytes from pos, extending
// the start leftward over printable ASCII, stopping at a delimiter or a
// non-printable byte (§4.2, SJIS mode only).
func backScanASCIIPrefix(data []byte, pos int) int {
	start := pos
	limit := pos - 10
	for scanBack := pos - 1; scanBack >= 0 && scanBack >= limit; scanBack-- {
		b := data[scanBack]
		if scanner.IsBackscanStop(b) {
			break
		}
		if scanner.IsASCIIPrintable(b) {
			start = scanBack
			continue
		}
		break
	}
	return start
}

// backScanFusionStem recovers the sprite-name stem preceding a "_・"
// fusion marker. The `scanBack > 0` bound (not >= 0) is deliberate: it
// mirrors the original extractor's behavior, which never inspects byte 0
// of the file when recovering a stem that starts at the very beginning.
func backScanFusionStem(data []byte, pos int) int {
	scanBack := pos - 1
	for scanBack > 0 && data[scanBack] != scanner.Null && data[scanBack] != scanner.LF && data[scanBack] != scanner.CR {
		if scanner.IsASCIIPrintable(data[scanBack]) {
			scanBack--
			continue
		}
		break
	}
	return scanBack + 1
}

// forwardBodySJISMode walks forward from start, stopping at a terminator
// or at any other byte that is not printable ASCII, halfwidth katakana, or
// an SJIS lead byte with a successor.
func forwardBodySJISMode(data []byte, start int) int {
	pos := start
	for pos < len(data) {
		b := data[pos]
		if scanner.IsSJISLead(b) {
			if pos+1 < len(data) {
				pos += 2
				continue
			}
			break
		}
		if scanner.IsASCIIPrintable(b) || (b >= scanner.HalfwidthKatakanaMin && b <= scanner.HalfwidthKatakanaMax) {
			pos++
			continue
		}
		break
	}
	return pos
}

// forwardBodyASCIIMode walks forward from start, consuming any non-
// terminator byte (two bytes for an SJIS lead with a successor), with no
// CJK or printable-ASCII requirement — it exists to capture pure-ASCII
// asset paths that may still contain embedded SJIS (sprite+position
// fusion names).
func forwardBodyASCIIMode(data []byte, start int) int {
	pos := start
	for pos < len(data) && !scanner.IsBodyDelimiter(data[pos]) {
		if scanner.IsSJISLead(data[pos]) {
			if pos+1 < len(data) {
				pos += 2
				continue
			}
			break
		}
		pos++
	}
	return pos
}

// terminatorAdvance computes where the scanner should resume: past a
// 0x00 terminator, but at (not past) 0x09/0x0A/0x0D so the newline handler
// still sees it.
func terminatorAdvance(data []byte, end int) int {
	if end >= len(data) {
		return end
	}
	if data[end] == scanner.Null {
		return end + 1
	}
	return end
}

func decodeSJIS(raw []byte) (string, error) {
	reader := transform.NewReader(bytes.NewReader(raw), japanese.ShiftJIS.NewDecoder())
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// cleanControlChars drops control characters decoding can surface, except
// the newline and tab bytes that may legitimately appear.
func cleanControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 32 || r == '\n' || r == '\t' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
