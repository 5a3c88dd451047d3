package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Mapped rewrites the identity of successful results through a label to
// username table. Labels missing from the table pass through unchanged.
type Mapped struct {
	next    Recognizer
	mapping map[string]string
}

func NewMapped(next Recognizer, mapping map[string]string) *Mapped {
	m := make(map[string]string, len(mapping))
	for k, v := range mapping {
		m[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return &Mapped{next: next, mapping: m}
}

// LoadMapping reads a JSON object of {"label": "username"} pairs.
func LoadMapping(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mapping %s: %w", path, err)
	}
	return m, nil
}

func (m *Mapped) Invoke(ctx context.Context, req Request) Result {
	res := m.next.Invoke(ctx, req)
	if res.Kind != KindSuccess {
		return res
	}
	if u, ok := m.mapping[res.Identity]; ok && u != "" {
		res.Identity = u
	}
	return res
}
