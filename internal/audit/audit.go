// Package audit re-applies the extraction invariants as a linter over
// already-produced FileRecords, catching regressions in the scanner,
// classifier, or post-processor that would otherwise only surface as
// subtly wrong translator-facing output.
package audit

import (
	"sort"
	"strings"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

const punctuation = "！？、。」』―"

// Issue is one potential problem found in a file's entries.
type Issue struct {
	File string
	Line int
	Kind string
	Text string
	Detail string
}

// Check runs every rule (placeholder, character-name and short-narration
// checks) over record's entries.
func Check(file string, record *model.FileRecord) []Issue {
	var issues []Issue

	lines := make([]int, 0, len(record.Lines))
	for l := range record.Lines {
		lines = append(lines, l)
	}
	sort.Ints(lines)

	for _, line := range lines {
		entries := record.Lines[line]
		hasDialogue := false
		hasQuotedDialogue := false
		for _, e := range entries {
			if e.Type == model.Dialogue {
				hasDialogue = true
				if strings.HasPrefix(e.Original, "「") {
					hasQuotedDialogue = true
				}
			}
		}

		for _, e := range entries {
			switch e.Type {
			case model.NamePlaceholder:
				issues = append(issues, checkPlaceholder(file, line, e, hasQuotedDialogue)...)
			case model.CharacterName:
				issues = append(issues, checkCharacterName(file, line, e)...)
			case model.Narration:
				if hasDialogue && len([]rune(e.Original)) <= 2 {
					issues = append(issues, Issue{
						File: file, Line: line, Kind: "ShortNarrationOnDialogueLine",
						Text: e.Original, Detail: "very short narration on a line with dialogue",
					})
				}
			}
		}
	}

	return issues
}

func checkPlaceholder(file string, line int, e *model.Entry, hasQuotedDialogue bool) []Issue {
	var issues []Issue
	runeLen := len([]rune(e.Original))

	if runeLen > 4 {
		issues = append(issues, Issue{
			File: file, Line: line, Kind: "NamePlaceholderTooLong",
			Text: e.Original, Detail: "placeholder should be at most 4 characters",
		})
	}
	if strings.ContainsAny(e.Original, punctuation) {
		issues = append(issues, Issue{
			File: file, Line: line, Kind: "NamePlaceholderHasPunctuation",
			Text: e.Original, Detail: "placeholder should carry no punctuation",
		})
	}
	if runeLen <= 4 && hasQuotedDialogue && !strings.ContainsAny(e.Original, punctuation) {
		issues = append(issues, Issue{
			File: file, Line: line, Kind: "NamePlaceholderNotConverted",
			Text: e.Original, Detail: "clean placeholder on a dialogue line should have been promoted to CharacterName",
		})
	}
	return issues
}

func checkCharacterName(file string, line int, e *model.Entry) []Issue {
	var issues []Issue
	if len([]rune(e.Original)) > 12 {
		issues = append(issues, Issue{
			File: file, Line: line, Kind: "CharacterNameTooLong",
			Text: e.Original, Detail: "character name should be at most 12 characters",
		})
	}
	if strings.ContainsAny(e.Original, punctuation) {
		issues = append(issues, Issue{
			File: file, Line: line, Kind: "CharacterNameHasPunctuation",
			Text: e.Original, Detail: "character name should carry no punctuation",
		})
	}
	return issues
}
