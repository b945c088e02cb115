package lsifconvert

import (
	"encoding/json"
	"fmt"

	"github.com/iliakonnov/shatterbird/internal/model"
)

// normalizeHoverContents decodes an LSIF hoverResult's "contents" field, which
// per LSP may be a bare string, a single MarkupContent/MarkedString object, or
// an array of either, into the flat []HoverContent the store keeps.
func normalizeHoverContents(raw json.RawMessage) ([]model.HoverContent, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("lsifconvert: decode hover contents: %w", err)
	}

	switch v := generic.(type) {
	case []any:
		out := make([]model.HoverContent, 0, len(v))
		for _, item := range v {
			c, err := convertHoverItem(item)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	default:
		c, err := convertHoverItem(v)
		if err != nil {
			return nil, err
		}
		return []model.HoverContent{c}, nil
	}
}

func convertHoverItem(v any) (model.HoverContent, error) {
	switch t := v.(type) {
	case string:
		return model.HoverContent{Kind: "plaintext", Value: t}, nil
	case map[string]any:
		if kind, ok := t["kind"].(string); ok {
			value, _ := t["value"].(string)
			return model.HoverContent{Kind: kind, Value: value}, nil
		}
		if lang, ok := t["language"].(string); ok {
			value, _ := t["value"].(string)
			return model.HoverContent{Kind: lang, Value: value}, nil
		}
		return model.HoverContent{}, fmt.Errorf("lsifconvert: unrecognized hover content object %#v", t)
	default:
		return model.HoverContent{}, fmt.Errorf("lsifconvert: unrecognized hover content value %#v", v)
	}
}
