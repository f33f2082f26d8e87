package jsonio

import (
	"strings"
	"testing"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

func TestEncodeOrdersLineKeysNumerically(t *testing.T) {
	record := model.NewFileRecord("scene.ks")
	record.Lines[10] = []*model.Entry{{Type: model.Narration, Original: "ten"}}
	record.Lines[2] = []*model.Entry{{Type: model.Narration, Original: "two"}}
	record.Lines[1] = []*model.Entry{{Type: model.Narration, Original: "one"}}

	out, err := Encode(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := string(out)
	i1 := strings.Index(s, `"1":`)
	i2 := strings.Index(s, `"2":`)
	i10 := strings.Index(s, `"10":`)
	if i1 < 0 || i2 < 0 || i10 < 0 {
		t.Fatalf("missing expected line keys in %s", s)
	}
	if !(i1 < i2 && i2 < i10) {
		t.Fatalf("line keys not in ascending numeric order: %s", s)
	}
}

func TestEncodeTranslationFieldPresenceMatchesTaxonomy(t *testing.T) {
	record := model.NewFileRecord("scene.ks")
	record.Lines[1] = []*model.Entry{
		{Type: model.Dialogue, Original: "「やあ」"},
		{Type: model.SpriteReference, Original: "ST_N\\a"},
	}

	out, err := Encode(record)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := string(out)
	if !strings.Contains(s, `"translation":null`) {
		t.Fatalf("expected translation:null for Dialogue entry, got %s", s)
	}
	if strings.Count(s, `"translation"`) != 1 {
		t.Fatalf("expected exactly one translation field (SpriteReference must omit it), got %s", s)
	}
}

func TestDecodeRoundTripsEntriesAndNumericKeys(t *testing.T) {
	record := model.NewFileRecord("scene.ks")
	translated := "hello there"
	record.Lines[1] = []*model.Entry{
		{Type: model.Dialogue, Original: "「やあ」", Translation: &translated},
	}
	record.Lines[3] = []*model.Entry{
		{Type: model.SpriteReference, Original: "ST_N\\a"},
	}
	record.Metadata = model.Metadata{File: "scene.ks", TotalLines: 3, Translatable: 1}

	out, err := Encode(record)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if decoded.Metadata.File != "scene.ks" || decoded.Metadata.TotalLines != 3 {
		t.Fatalf("metadata mismatch: %+v", decoded.Metadata)
	}
	if len(decoded.Lines[1]) != 1 || decoded.Lines[1][0].Original != "「やあ」" {
		t.Fatalf("line 1 mismatch: %+v", decoded.Lines[1])
	}
	if decoded.Lines[1][0].Translation == nil || *decoded.Lines[1][0].Translation != translated {
		t.Fatalf("translation not round-tripped: %+v", decoded.Lines[1][0])
	}
	if len(decoded.Lines[3]) != 1 || decoded.Lines[3][0].Type != model.SpriteReference {
		t.Fatalf("line 3 mismatch: %+v", decoded.Lines[3])
	}
}

func TestDecodeRejectsNonNumericLineKey(t *testing.T) {
	_, err := Decode([]byte(`{"lines":{"abc":[]},"metadata":{"file":"x","total_lines":0,"translatable":0}}`))
	if err == nil {
		t.Fatal("expected error for non-numeric line key")
	}
}
