package oracle

import (
	"encoding/json"
	"errors"
	"strings"
)

// ParseCorrections decodes a model reply. Models wrap JSON in markdown fences
// or in an object envelope often enough that both are accepted: the fences
// are stripped, then the content is read as a correction list or as an
// object with a "corrections" field. List entries that do not decode into a
// Correction are dropped; only a reply with no usable list at all is an
// error.
func ParseCorrections(content string) ([]Correction, error) {
	content = stripFences(content)
	if content == "" {
		return nil, errors.New("empty reply")
	}

	if list, ok := decodeList([]byte(content)); ok {
		return list, nil
	}

	var envelope struct {
		Corrections json.RawMessage `json:"corrections"`
	}
	if err := json.Unmarshal([]byte(content), &envelope); err == nil && envelope.Corrections != nil {
		if list, ok := decodeList(envelope.Corrections); ok {
			return list, nil
		}
	}

	return nil, errors.New("reply is neither a correction list nor a corrections object")
}

// decodeList reads a JSON array of corrections, skipping entries that do not
// match the expected shape.
func decodeList(data []byte) ([]Correction, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	list := make([]Correction, 0, len(items))
	for _, raw := range items {
		var c Correction
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		list = append(list, c)
	}
	return list, true
}

// stripFences removes a surrounding markdown code fence, including an
// optional language tag on the opening line.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
