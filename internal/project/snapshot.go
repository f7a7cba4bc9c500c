package project

import (
	"encoding/json"
	"fmt"

	"github.com/flowgrid/flowgrid/internal/path"
	"github.com/flowgrid/flowgrid/internal/store"
	"github.com/flowgrid/flowgrid/internal/value"
)

// SaveSnapshot encodes s as the ".fls" format (§4.6): a flat JSON object
// mapping each path's string form to its value.Primitive, using
// Primitive's own self-describing {kind,value} MarshalJSON.
func SaveSnapshot(s *store.Store) ([]byte, error) {
	flat := make(map[string]value.Primitive, s.Len())
	s.Walk(func(p path.Path, v value.Primitive) bool {
		flat[p.String()] = v
		return false
	})
	return json.MarshalIndent(flat, "", "  ")
}

// LoadSnapshot parses the ".fls" format and applies it as a single patch
// from the empty store to the parsed one, per §4.6's load algorithm.
func LoadSnapshot(data []byte) (*store.Store, error) {
	var flat map[string]value.Primitive
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("project: decoding snapshot: %w", err)
	}
	tx := store.New().BeginTransient()
	for k, v := range flat {
		tx.Set(path.FromString(k), v)
	}
	after, _ := tx.Commit()
	return after, nil
}
