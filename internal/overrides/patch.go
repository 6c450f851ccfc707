package overrides

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"platter/internal/ingest"
	"platter/internal/services"
)

// Kind is the entity a patch targets.
type Kind string

const (
	KindRelease Kind = "release"
	KindTrack   Kind = "track"
)

type valueType int

const (
	textValue valueType = iota
	integerValue
	durationValue
)

var fields = map[Kind]map[string]valueType{
	KindRelease: {
		"title":        textValue,
		"year":         integerValue,
		"artists_sort": textValue,
		"master_id":    integerValue,
	},
	KindTrack: {
		"title":    textValue,
		"position": textValue,
		"duration": durationValue,
	},
}

// Patch sets one field on one stored entity.
type Patch struct {
	Kind     Kind   `json:"kind"`
	TargetID int64  `json:"target_id"`
	Field    string `json:"field"`
	Value    any    `json:"value"`
	Note     string `json:"note,omitempty"`
}

// Fields lists the patchable field names of kind, sorted.
func Fields(kind Kind) []string {
	var out []string
	for name := range fields[kind] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// column is a validated assignment ready for the store.
type column struct {
	name  string
	value any
}

func (p *Patch) normalize() {
	p.Kind = Kind(strings.ToLower(strings.TrimSpace(string(p.Kind))))
	p.Field = strings.ToLower(strings.TrimSpace(p.Field))
	p.Note = strings.TrimSpace(p.Note)
}

// Validate checks the patch against the whitelist and coerces its value.
func (p Patch) Validate() error {
	_, err := p.columns()
	return err
}

func (p Patch) columns() ([]column, error) {
	allowed, ok := fields[p.Kind]
	if !ok {
		return nil, services.NewValidationError("kind", fmt.Sprintf("unsupported kind %q", p.Kind))
	}
	if p.TargetID <= 0 {
		return nil, services.NewValidationError("target_id", "must be positive")
	}
	typ, ok := allowed[p.Field]
	if !ok {
		return nil, services.NewValidationError("field", fmt.Sprintf("%s field %q is not patchable", p.Kind, p.Field))
	}

	switch typ {
	case integerValue:
		n, err := asInteger(p.Value)
		if err != nil {
			return nil, services.NewValidationError("value", err.Error())
		}
		return []column{{name: p.Field, value: n}}, nil
	case durationValue:
		text, err := asText(p.Value)
		if err != nil {
			return nil, services.NewValidationError("value", err.Error())
		}
		var seconds any
		if parsed := ingest.ParseDuration(text); parsed != nil {
			seconds = *parsed
		}
		return []column{{name: "duration", value: text}, {name: "duration_seconds", value: seconds}}, nil
	default:
		text, err := asText(p.Value)
		if err != nil {
			return nil, services.NewValidationError("value", err.Error())
		}
		if text == "" && p.Field != "artists_sort" {
			return nil, services.NewValidationError("value", "must not be empty")
		}
		return []column{{name: p.Field, value: text}}, nil
	}
}

func asText(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), nil
	case json.Number:
		return val.String(), nil
	case nil:
		return "", fmt.Errorf("value required")
	default:
		return "", fmt.Errorf("expected text, got %T", v)
	}
}

func asInteger(v any) (int64, error) {
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("expected integer, got %v", val)
		}
		return int64(val), nil
	case json.Number:
		return val.Int64()
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %q", val)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("value required")
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}
