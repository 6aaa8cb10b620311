package plan

import (
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/toolplan/domain/state"
	"github.com/felixgeelhaar/toolplan/domain/tool"
)

// Record is the wire form of a plan step: tool name plus argument list.
type Record struct {
	Step int       `json:"step"`
	Tool string    `json:"tool"`
	Args tool.Args `json:"args"`
}

// Records converts p to its wire form.
func (p Plan[S]) Records() []Record {
	out := make([]Record, len(p))
	for i, step := range p {
		out[i] = Record{Step: i, Tool: step.Tool.Name(), Args: step.Args.Clone()}
	}
	return out
}

// MarshalJSON encodes the plan as its record list.
func (p Plan[S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Records())
}

// Resolve rebuilds a plan from records against a registry.
// Unknown tool names and wrong argument counts are rejected.
func Resolve[S state.State](records []Record, registry tool.Registry[S]) (Plan[S], error) {
	p := make(Plan[S], 0, len(records))
	for i, rec := range records {
		t, ok := registry.Get(rec.Tool)
		if !ok {
			return nil, fmt.Errorf("record %d: %s: %w", i, rec.Tool, tool.ErrToolNotFound)
		}
		if len(rec.Args) != tool.Arity(t) {
			return nil, fmt.Errorf("record %d: %s: got %d args, want %d: %w",
				i, rec.Tool, len(rec.Args), tool.Arity(t), tool.ErrArity)
		}
		p = append(p, Step[S]{Tool: t, Args: rec.Args.Clone()})
	}
	return p, nil
}

// DecodeRecords parses a JSON record list.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode plan records: %w", err)
	}
	return records, nil
}
