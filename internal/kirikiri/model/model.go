// Package model defines the taxonomy and record types shared by every
// stage of the extraction pipeline: scanner candidates become Entry values,
// Entry values are grouped into a FileRecord, and the recompiler consumes
// the same Entry.Offset/ByteLen pair back out.
package model

import (
	"encoding/json"
)

// Taxonomy is the closed set of text types a string can be classified as.
type Taxonomy string

const (
	Dialogue     Taxonomy = "Dialogue"
	Narration    Taxonomy = "Narration"
	InnerThought Taxonomy = "InnerThought"
	EmailMessage Taxonomy = "EmailMessage"

	CharacterName       Taxonomy = "CharacterName"
	NamePlaceholder     Taxonomy = "NamePlaceholder"
	SpriteReference     Taxonomy = "SpriteReference"
	SoundEffect         Taxonomy = "SoundEffect"
	HashtagLabel        Taxonomy = "HashtagLabel"
	EffectReference     Taxonomy = "EffectReference"
	BackgroundReference Taxonomy = "BackgroundReference"
	PositionCode        Taxonomy = "PositionCode"
	UIMarker            Taxonomy = "UIMarker"
	SeasonDateMarker    Taxonomy = "SeasonDateMarker"
	SystemCode          Taxonomy = "SystemCode"
)

// Translatable reports whether entries of this type carry a translation
// slot in the output JSON (present-and-null) or omit it entirely.
func (t Taxonomy) Translatable() bool {
	switch t {
	case Dialogue, Narration, InnerThought, EmailMessage:
		return true
	default:
		return false
	}
}

// Entry is one extracted, classified string.
type Entry struct {
	Type Taxonomy

	// Original is the decoded string as it appears in translator-facing
	// output: UTF-8, with any leading ASCII preserved verbatim.
	Original string

	// Offset and ByteLen identify the byte range in the source file this
	// entry was extracted from. Not emitted to JSON; consumed by the
	// recompiler.
	Offset  int
	ByteLen int

	// Translation is nil until a translator fills it in. Only meaningful
	// when Type.Translatable() is true.
	Translation *string
}

// entryTranslatable and entryPlain mirror Entry's public shape for the two
// JSON renderings the taxonomy requires (§6 of the original extraction
// spec: "translation" present-and-null for translatable types, absent
// otherwise).
type entryTranslatable struct {
	Type        Taxonomy `json:"type"`
	Original    string   `json:"original"`
	Translation *string  `json:"translation"`
}

type entryPlain struct {
	Type     Taxonomy `json:"type"`
	Original string   `json:"original"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Type.Translatable() {
		return json.Marshal(entryTranslatable{
			Type:        e.Type,
			Original:    e.Original,
			Translation: e.Translation,
		})
	}
	return json.Marshal(entryPlain{
		Type:     e.Type,
		Original: e.Original,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        Taxonomy `json:"type"`
		Original    string   `json:"original"`
		Translation *string  `json:"translation"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Type = raw.Type
	e.Original = raw.Original
	e.Translation = raw.Translation
	return nil
}

// Metadata describes a single script file's extraction pass.
type Metadata struct {
	File         string `json:"file"`
	TotalLines   int    `json:"total_lines"`
	Translatable int    `json:"translatable"`
}

// FileRecord is the full extraction result for one script file, entries
// grouped by 1-based line number with insertion order preserved within
// each line.
type FileRecord struct {
	Lines    map[int][]*Entry
	Metadata Metadata
}

// NewFileRecord creates an empty record for the given file name.
func NewFileRecord(file string) *FileRecord {
	return &FileRecord{
		Lines:    make(map[int][]*Entry),
		Metadata: Metadata{File: file},
	}
}

// Append adds an entry to the given line, preserving discovery order.
func (r *FileRecord) Append(line int, e *Entry) {
	r.Lines[line] = append(r.Lines[line], e)
}
