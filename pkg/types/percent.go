package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

const NotApplicable = "N/A"

// OptionalPercent is a percentage that may be not applicable, e.g. GPU figures
// on a host without GPUs. The zero value is N/A.
type OptionalPercent struct {
	Value float64
	Valid bool
}

func Percent(v float64) OptionalPercent {
	return OptionalPercent{Value: v, Valid: true}
}

func (p OptionalPercent) String() string {
	if !p.Valid {
		return NotApplicable
	}
	return strconv.FormatFloat(p.Value, 'f', 1, 64) + "%"
}

func (p OptionalPercent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(p.Value)
}

func (p *OptionalPercent) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = OptionalPercent{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != NotApplicable {
			return fmt.Errorf("percent: unexpected string %q", s)
		}
		*p = OptionalPercent{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}

func (p OptionalPercent) MarshalYAML() (any, error) {
	if !p.Valid {
		return NotApplicable, nil
	}
	return p.Value, nil
}

func (p *OptionalPercent) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == NotApplicable {
		*p = OptionalPercent{}
		return nil
	}
	var v float64
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}
