package scanner

import (
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/pattern"
)

// Handler is implemented by the extractor: given a candidate position, it
// extends the candidate into a full string, decodes and classifies it, and
// reports the offset the scanner should resume from. ok is false when the
// candidate was discarded (decode failure, no CJK content, etc); the
// scanner still resumes at the returned offset.
type Handler interface {
	HandleSJIS(data []byte, pos int) (nextPos int, entry *model.Entry, ok bool)
	HandlePattern(data []byte, pos int, kind pattern.Kind) (nextPos int, entry *model.Entry, ok bool)
}

// Scan walks data with a cursor and a line counter, handing off string
// candidates to h and grouping the entries it returns by line number. The
// scanner never decodes text itself — it only classifies candidacy.
func Scan(data []byte, h Handler) *model.FileRecord {
	record := model.NewFileRecord("")
	cursor := 0
	line := 1

	for cursor < len(data) {
		b := data[cursor]

		if IsNewline(b) {
			line++
			cursor++
			for cursor < len(data) && IsNewline(data[cursor]) {
				cursor++
			}
			cursor = skipControlSequence(data, cursor)
			continue
		}

		if kind, ok := pattern.Recognize(data, cursor); ok {
			next, entry, matched := h.HandlePattern(data, cursor, kind)
			if matched {
				record.Append(line, entry)
			}
			cursor = advance(cursor, next)
			continue
		}

		if IsSJISLead(b) {
			next, entry, matched := h.HandleSJIS(data, cursor)
			if matched {
				record.Append(line, entry)
			}
			cursor = advance(cursor, next)
			continue
		}

		cursor++
	}

	record.Metadata.TotalLines = line
	return record
}

// skipControlSequence consumes a "0x01 0x01 ... 0x1A" run starting at pos,
// if present. Bytes that don't open a control sequence are left untouched.
func skipControlSequence(data []byte, pos int) int {
	if pos+1 >= len(data) || data[pos] != ControlSequenceOpener[0] || data[pos+1] != ControlSequenceOpener[1] {
		return pos
	}
	for pos < len(data) && data[pos] != EOT && data[pos] != Null && data[pos] != LF && data[pos] != CR {
		pos++
	}
	if pos < len(data) && data[pos] == EOT {
		pos++
	}
	return pos
}

// advance guards against a handler reporting no forward progress — an
// OutOfBoundsCandidate (a lead byte with no successor at true EOF) must
// still move the cursor so the scan terminates.
func advance(cursor, next int) int {
	if next <= cursor {
		return cursor + 1
	}
	return next
}
