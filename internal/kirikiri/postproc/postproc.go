// Package postproc runs the ordered repair passes over a file's per-line
// entry lists: dropping scanner garbage, promoting speaker labels, and
// resolving name-placeholder entries. The order across passes is load-
// bearing and must not change.
package postproc

import (
	"strings"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/classifier"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

const terminalPunctuation = "。．…！？、，"
const bracketChars = "「」『』＜＞"

// Process runs P1 through P4 over every line of record, in place. P5
// (the translation slot) is not a transform — it is a property of the
// output encoding, handled by model.Entry's MarshalJSON.
func Process(record *model.FileRecord) {
	for line, entries := range record.Lines {
		entries = dropShortNarrationOnDialogueLines(entries)
		entries = promoteSpeakers(entries)
		entries = resolvePlaceholders(entries)
		record.Lines[line] = entries
	}
}

// dropShortNarrationOnDialogueLines is P1: a Narration of at most two
// characters is a scanner artifact once real dialogue exists on the line.
func dropShortNarrationOnDialogueLines(entries []*model.Entry) []*model.Entry {
	hasDialogue := false
	for _, e := range entries {
		if e.Type == model.Dialogue {
			hasDialogue = true
			break
		}
	}
	if !hasDialogue {
		return entries
	}

	out := make([]*model.Entry, 0, len(entries))
	for _, e := range entries {
		if e.Type == model.Narration && len([]rune(e.Original)) <= 2 {
			continue
		}
		out = append(out, e)
	}
	return out
}

// promoteSpeakers is P2: a Narration immediately followed by a Dialogue on
// the same line, with no terminal punctuation or brackets of its own, is a
// speaker label rather than prose.
func promoteSpeakers(entries []*model.Entry) []*model.Entry {
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Type != model.Narration || entries[i+1].Type != model.Dialogue {
			continue
		}
		text := entries[i].Original
		if strings.ContainsAny(text, terminalPunctuation) || strings.ContainsAny(text, bracketChars) {
			continue
		}
		entries[i].Type = model.CharacterName
	}
	return entries
}

// resolvePlaceholders is P3+P4: a NamePlaceholder that precedes every
// Dialogue on its line is a speaker label and gets promoted; any other
// NamePlaceholder is merged into the nearest adjacent Dialogue, preferring
// the one before it.
func resolvePlaceholders(entries []*model.Entry) []*model.Entry {
	i := 0
	for i < len(entries) {
		if entries[i].Type != model.NamePlaceholder {
			i++
			continue
		}

		firstDialogue := -1
		for j, e := range entries {
			if e.Type == model.Dialogue {
				firstDialogue = j
				break
			}
		}

		if firstDialogue != -1 && i < firstDialogue {
			entries[i].Type = model.CharacterName
			i++
			continue
		}

		merged := false
		switch {
		case i > 0 && entries[i-1].Type == model.Dialogue:
			entries[i-1].Original += entries[i].Original
			entries = append(entries[:i], entries[i+1:]...)
			merged = true
		case i+1 < len(entries) && entries[i+1].Type == model.Dialogue:
			entries[i+1].Original = entries[i].Original + entries[i+1].Original
			entries = append(entries[:i], entries[i+1:]...)
			merged = true
		}
		if !merged {
			i++
		}
	}
	return entries
}

// ValidatePlaceholder reports whether text, if classified as
// NamePlaceholder, satisfies the exactness invariant (§3 invariant 4): no
// emitted NamePlaceholder may carry anything beyond the literal token.
func ValidatePlaceholder(text string) bool {
	return text == classifier.PlaceholderToken
}
