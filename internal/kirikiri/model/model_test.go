package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTranslatableTypes(t *testing.T) {
	translatable := []Taxonomy{Dialogue, Narration, InnerThought, EmailMessage}
	for _, typ := range translatable {
		if !typ.Translatable() {
			t.Errorf("%v should be translatable", typ)
		}
	}

	notTranslatable := []Taxonomy{
		CharacterName, NamePlaceholder, SpriteReference, SoundEffect,
		HashtagLabel, EffectReference, BackgroundReference, PositionCode,
		UIMarker, SeasonDateMarker, SystemCode,
	}
	for _, typ := range notTranslatable {
		if typ.Translatable() {
			t.Errorf("%v should not be translatable", typ)
		}
	}
}

func TestMarshalJSONIncludesTranslationForTranslatableType(t *testing.T) {
	translation := "hi"
	e := Entry{Type: Dialogue, Original: "やあ", Translation: &translation}
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"translation":"hi"`) {
		t.Fatalf("got %s", s)
	}
}

func TestMarshalJSONOmitsTranslationForPlainType(t *testing.T) {
	e := Entry{Type: SpriteReference, Original: "ST_N\\a"}
	out, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if strings.Contains(s, "translation") {
		t.Fatalf("expected no translation field, got %s", s)
	}
}

func TestUnmarshalJSONRoundTrip(t *testing.T) {
	var e Entry
	err := json.Unmarshal([]byte(`{"type":"Dialogue","original":"やあ","translation":"hi"}`), &e)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Type != Dialogue || e.Original != "やあ" || e.Translation == nil || *e.Translation != "hi" {
		t.Fatalf("got %+v", e)
	}
}

func TestFileRecordAppendPreservesOrder(t *testing.T) {
	r := NewFileRecord("x.ks")
	r.Append(1, &Entry{Original: "a"})
	r.Append(1, &Entry{Original: "b"})
	if len(r.Lines[1]) != 2 || r.Lines[1][0].Original != "a" || r.Lines[1][1].Original != "b" {
		t.Fatalf("got %+v", r.Lines[1])
	}
}
