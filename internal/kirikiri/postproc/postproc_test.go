package postproc

import (
	"testing"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/classifier"
	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

func newRecord(entries []*model.Entry) *model.FileRecord {
	r := model.NewFileRecord("test.ks")
	r.Lines[1] = entries
	return r
}

func TestProcessDropsShortNarrationOnDialogueLine(t *testing.T) {
	entries := []*model.Entry{
		{Type: model.Narration, Original: "ふ"},
		{Type: model.Dialogue, Original: "「やあ」"},
	}
	record := newRecord(entries)
	Process(record)

	got := record.Lines[1]
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Type != model.Dialogue {
		t.Fatalf("remaining entry type = %v, want Dialogue", got[0].Type)
	}
}

func TestProcessPromotesSpeakerLabel(t *testing.T) {
	entries := []*model.Entry{
		{Type: model.Narration, Original: "ハルカ"},
		{Type: model.Dialogue, Original: "「おはよう」"},
	}
	record := newRecord(entries)
	Process(record)

	got := record.Lines[1]
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Type != model.CharacterName {
		t.Fatalf("first entry type = %v, want CharacterName", got[0].Type)
	}
}

func TestProcessDoesNotPromoteSpeakerLabelWithPunctuation(t *testing.T) {
	entries := []*model.Entry{
		{Type: model.Narration, Original: "ハルカ。"},
		{Type: model.Dialogue, Original: "「おはよう」"},
	}
	record := newRecord(entries)
	Process(record)

	got := record.Lines[1]
	if got[0].Type != model.Narration {
		t.Fatalf("first entry type = %v, want Narration (unpromoted)", got[0].Type)
	}
}

func TestProcessPromotesLeadingPlaceholder(t *testing.T) {
	entries := []*model.Entry{
		{Type: model.NamePlaceholder, Original: classifier.PlaceholderToken},
		{Type: model.Dialogue, Original: "「おはよう」"},
	}
	record := newRecord(entries)
	Process(record)

	got := record.Lines[1]
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Type != model.CharacterName {
		t.Fatalf("leading placeholder type = %v, want CharacterName", got[0].Type)
	}
}

func TestProcessMergesInteriorPlaceholderIntoPrecedingDialogue(t *testing.T) {
	// A placeholder sandwiched between two dialogue lines is not a speaker
	// label (dialogue already precedes it on the line) — it merges into
	// the dialogue before it rather than being promoted.
	entries := []*model.Entry{
		{Type: model.Dialogue, Original: "「まず」"},
		{Type: model.NamePlaceholder, Original: classifier.PlaceholderToken},
		{Type: model.Dialogue, Original: "「次」"},
	}
	record := newRecord(entries)
	Process(record)

	got := record.Lines[1]
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	want := "「まず」" + classifier.PlaceholderToken
	if got[0].Original != want {
		t.Fatalf("merged original = %q, want %q", got[0].Original, want)
	}
	if got[0].Type != model.Dialogue || got[1].Type != model.Dialogue {
		t.Fatalf("both remaining entries should stay Dialogue, got %v / %v", got[0].Type, got[1].Type)
	}
}

func TestValidatePlaceholderRejectsExtraText(t *testing.T) {
	if !ValidatePlaceholder(classifier.PlaceholderToken) {
		t.Fatal("exact token must validate")
	}
	if ValidatePlaceholder(classifier.PlaceholderToken + "さん") {
		t.Fatal("token plus trailing text must not validate")
	}
}
