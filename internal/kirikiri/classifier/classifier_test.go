package classifier

import (
	"testing"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

func TestClassifyDeclaredTypeWins(t *testing.T) {
	got := Classify("ST_N\\foo", model.SpriteReference)
	if got != model.SpriteReference {
		t.Fatalf("got %v, want %v", got, model.SpriteReference)
	}
}

func TestClassifyContentRules(t *testing.T) {
	cases := []struct {
		name string
		text string
		want model.Taxonomy
	}{
		{"sprite_fusion_marker", "太郎_・立ち", model.SpriteReference},
		{"position_code", "・上手", model.PositionCode},
		{"placeholder_exact", PlaceholderToken, model.NamePlaceholder},
		{"dialogue_open_quote", "「おはよう", model.Dialogue},
		{"dialogue_close_quote", "おはよう」", model.Dialogue},
		{"email_message", "『お久しぶりです』", model.EmailMessage},
		{"inner_thought", "＜これは本当か＞", model.InnerThought},
		{"season_date_marker", "春日部：0401", model.SeasonDateMarker},
		{"ui_marker", "選択パネル", model.UIMarker},
		{"system_code", "常：001", model.SystemCode},
		{"default_narration", "ただの地の文です", model.Narration},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.text, "")
			if got != c.want {
				t.Fatalf("Classify(%q) = %v, want %v", c.text, got, c.want)
			}
		})
	}
}

func TestClassifyPlaceholderRequiresExactMatch(t *testing.T) {
	// A full sentence that happens to contain the placeholder token is not
	// a placeholder itself.
	text := PlaceholderToken + "はいないよ"
	got := Classify(text, "")
	if got == model.NamePlaceholder {
		t.Fatalf("Classify(%q) = NamePlaceholder, want something else", text)
	}
}

func TestClassifySystemCodeSingleCharNeverSeasonDate(t *testing.T) {
	// "常" alone is one rune, below the season-date name floor of two, so
	// it can never be misread as a season/date marker's name part.
	got := Classify("常：042", "")
	if got != model.SystemCode {
		t.Fatalf("got %v, want %v", got, model.SystemCode)
	}
}

func TestClassifySystemCodeRejectsNonDigitRemainder(t *testing.T) {
	got := Classify("常：あ", "")
	if got == model.SystemCode {
		t.Fatal("non-digit remainder must not classify as SystemCode")
	}
}

func TestClassifyUnknownUIStringFallsThroughToNarration(t *testing.T) {
	got := Classify("未知のメニュー", "")
	if got != model.Narration {
		t.Fatalf("got %v, want %v", got, model.Narration)
	}
}
