package sink

import (
	"encoding/json"
	"sort"
	"strings"
)

// Tags is flat string-keyed metadata attached to a metric row.
type Tags map[string]string

// JSON serializes the tags as a JSON object with sorted keys. Nil and
// empty tags both encode as {}.
func (t Tags) JSON() ([]byte, error) {
	if len(t) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]string(t))
}

// Key returns a stable key=value rendering used in error messages.
func (t Tags) Key() string {
	if len(t) == 0 {
		return ""
	}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+t[k])
	}
	return strings.Join(parts, ",")
}

// Clone returns a copy that does not share storage with t.
func (t Tags) Clone() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
