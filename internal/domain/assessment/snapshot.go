package assessment

import (
	"bytes"
	"encoding/json"

	"gorm.io/datatypes"
)

// RuleLimits are the effective constraints of one category inside a session.
// Required is only present when the rule configures an exact answer count.
type RuleLimits struct {
	Min      int  `json:"min"`
	Max      int  `json:"max"`
	Required *int `json:"required,omitempty"`
}

// RulesSnapshot is the frozen constraint view of a session, keyed by category.
type RulesSnapshot map[CategoryKey]RuleLimits

// Encode renders the snapshot canonically; map keys are emitted sorted.
func (s RulesSnapshot) Encode() (datatypes.JSON, error) {
	if s == nil {
		s = RulesSnapshot{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// Equal compares canonical encodings, so storage-side JSON reformatting
// (e.g. Postgres jsonb) never registers as a rule change.
func (s RulesSnapshot) Equal(other RulesSnapshot) bool {
	a, errA := s.Encode()
	b, errB := other.Encode()
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(a, b)
}

func DecodeRulesSnapshot(raw datatypes.JSON) (RulesSnapshot, error) {
	out := RulesSnapshot{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
