// Package fingerprint computes the deterministic request fingerprint used
// to deduplicate concurrent identical requests.
package fingerprint

import (
	"encoding/json"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Request is the normalized subset of an inbound request the fingerprint
// is computed over. Field order here does not affect the hash: canonical
// encodes as a sorted-key JSON document before hashing, so the fingerprint
// is invariant under the original request's JSON key ordering and
// whitespace.
type Request struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	System      json.RawMessage `json:"system,omitempty"`
	Tools       json.RawMessage `json:"tools,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	TopK        *int            `json:"top_k,omitempty"`
	Stream      bool            `json:"stream"`
	// MaxTokens is only included in the hashed document when the caller
	// sets IncludeMaxTokens (settings.deduplication.include_max_tokens_in_signature).
	MaxTokens *int `json:"max_tokens,omitempty"`
}

// Compute returns the fingerprint for a normalized request. includeMaxTokens
// mirrors the include_max_tokens_in_signature setting: when false,
// MaxTokens is dropped before hashing, so two requests differing only in
// max_tokens collapse onto the same fingerprint.
func Compute(req Request, includeMaxTokens bool) (string, error) {
	if !includeMaxTokens {
		req.MaxTokens = nil
	}

	canonical, err := canonicalize(req)
	if err != nil {
		return "", err
	}

	h := xxhash.New()
	if _, err := h.Write(canonical); err != nil {
		return "", err
	}
	return formatHash(h.Sum64()), nil
}

// canonicalize re-marshals the request through a generic map so JSON
// object keys are emitted in sorted order regardless of how the caller's
// messages/system/tools RawMessage fields were originally formatted.
func canonicalize(req Request) ([]byte, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return marshalSorted(generic)
}

func marshalSorted(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				out = append(out, ',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			out = append(out, kb...)
			out = append(out, ':')
			vb, err := marshalSorted(val[k])
			if err != nil {
				return nil, err
			}
			out = append(out, vb...)
		}
		out = append(out, '}')
		return out, nil

	case []interface{}:
		out := []byte{'['}
		for i, elem := range val {
			if i > 0 {
				out = append(out, ',')
			}
			eb, err := marshalSorted(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, eb...)
		}
		out = append(out, ']')
		return out, nil

	default:
		return json.Marshal(val)
	}
}

const hexDigits = "0123456789abcdef"

func formatHash(v uint64) string {
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[v&0xf]
		v >>= 4
	}
	return string(buf)
}
