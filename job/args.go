package job

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xraph/tenantq"
)

// Args is a decoded job payload: the keyword arguments a handler receives.
// Values stay raw so that round-tripping through Args never alters keys
// it does not touch.
type Args map[string]json.RawMessage

// DecodeArgs decodes a payload into Args. An empty or null payload yields
// empty Args. Payloads that are not JSON objects return
// tenantq.ErrPayloadNotObject.
func DecodeArgs(payload []byte) (Args, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Args{}, nil
	}
	if trimmed[0] != '{' {
		return nil, tenantq.ErrPayloadNotObject
	}
	var args Args
	if err := json.Unmarshal(trimmed, &args); err != nil {
		return nil, fmt.Errorf("decode job args: %w", err)
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}

// SetDefault stores v under key unless key is already present. It reports
// whether the value was stored.
func (a Args) SetDefault(key string, v any) (bool, error) {
	if _, ok := a[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("encode job arg %q: %w", key, err)
	}
	a[key] = raw
	return true, nil
}

// Pop removes key and returns its raw value.
func (a Args) Pop(key string) (json.RawMessage, bool) {
	raw, ok := a[key]
	if ok {
		delete(a, key)
	}
	return raw, ok
}

// String decodes the value under key as a string. It reports false when the
// key is absent or does not hold a JSON string.
func (a Args) String(key string) (string, bool) {
	raw, ok := a[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Encode serializes the arguments back into a payload.
func (a Args) Encode() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]json.RawMessage(a))
}
