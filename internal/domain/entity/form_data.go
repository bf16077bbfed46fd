package entity

import (
	"fmt"
	"strings"
)

// FormData is the snapshot of every field the requester submitted.
// Values are strings or booleans as delivered by the form.
type FormData map[string]interface{}

// String returns the value of key as a trimmed string ("" when absent)
func (f FormData) String(key string) string {
	val, ok := f[key]
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return strings.TrimSpace(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Bool returns the value of key interpreted as a checkbox flag
func (f FormData) Bool(key string) bool {
	val, ok := f[key]
	if !ok || val == nil {
		return false
	}
	switch v := val.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "on", "yes", "1":
			return true
		}
	}
	return false
}

// Clone returns a shallow copy so the stored snapshot cannot be mutated through the caller's map
func (f FormData) Clone() FormData {
	if f == nil {
		return FormData{}
	}
	out := make(FormData, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
