// Package jsonio encodes and decodes the per-file JSON shape: line numbers
// as ascending-ordered string keys, entries in discovery order, a
// "translation" slot present-and-null on translatable types and absent
// otherwise (the latter handled by model.Entry itself).
package jsonio

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/Sunnie-Evergale/kurokin-tool/internal/kirikiri/model"
)

// Encode renders record as the canonical JSON document. Go's map
// marshaling sorts string keys lexically ("10" before "2"), which is
// wrong for line numbers, so the lines object is built by hand in
// ascending numeric order.
func Encode(record *model.FileRecord) ([]byte, error) {
	keys := make([]int, 0, len(record.Lines))
	for k := range record.Lines {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"lines":{`)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(strconv.Itoa(k))
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')

		entriesJSON, err := json.Marshal(record.Lines[k])
		if err != nil {
			return nil, fmt.Errorf("marshal line %d: %w", k, err)
		}
		buf.Write(entriesJSON)
	}
	buf.WriteString(`},"metadata":`)

	metaJSON, err := json.Marshal(record.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	buf.Write(metaJSON)
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

type fileDocument struct {
	Lines    map[string][]*model.Entry `json:"lines"`
	Metadata model.Metadata            `json:"metadata"`
}

// Decode parses a JSON document (extracted or translated) back into a
// FileRecord. Offsets are not carried in the JSON shape; callers that need
// them (the recompiler) must re-extract the original binary and match
// entries positionally.
func Decode(data []byte) (*model.FileRecord, error) {
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	record := model.NewFileRecord(doc.Metadata.File)
	record.Metadata = doc.Metadata
	for k, entries := range doc.Lines {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("line key %q is not numeric: %w", k, err)
		}
		record.Lines[n] = entries
	}
	return record, nil
}
