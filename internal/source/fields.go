package source

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// aliases lists the candidate keys of one logical field. The first key
// present in the object wins, even when its value is empty.
type aliases []string

// lookup returns the value of the first present key rendered as text.
func (a aliases) lookup(obj map[string]any) string {
	for _, key := range a {
		if v, ok := obj[key]; ok {
			return scalarText(v)
		}
	}
	return ""
}

// scalarText renders a decoded JSON scalar. Objects, arrays and null render
// as the empty string.
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// decodeJSON unmarshals data keeping numbers in their literal form.
func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
