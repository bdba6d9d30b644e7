// Package extract reads values out of decoded JSON documents using dot-delimited paths like
// "classifications.0.segment.name"
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeLayouts are the date formats Time accepts, tried in order
var TimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode decodes a JSON document keeping numbers as json.Number so large IDs do not lose precision
func Decode(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func step(node interface{}, segment string) (interface{}, bool) {
	switch n := node.(type) {
	case map[string]interface{}:
		v, ok := n[segment]
		return v, ok
	case []interface{}:
		idx, err := strconv.Atoi(segment)
		if err != nil || idx < 0 || idx >= len(n) {
			return nil, false
		}
		return n[idx], true
	}
	return nil, false
}

// Has reports whether the path exists in the document - a present null value counts
func Has(doc interface{}, path string) bool {
	node := doc
	for _, segment := range strings.Split(path, ".") {
		var ok bool
		if node, ok = step(node, segment); !ok {
			return false
		}
	}
	return true
}

// Lookup returns the value at the given path. A missing segment, a null value or an empty string all count as absent
func Lookup(doc interface{}, path string) (interface{}, bool) {
	if doc == nil {
		return nil, false
	}
	node := doc
	if path != "" {
		for _, segment := range strings.Split(path, ".") {
			var ok bool
			if node, ok = step(node, segment); !ok || node == nil {
				return nil, false
			}
		}
	}
	if s, ok := node.(string); ok && s == "" {
		return nil, false
	}
	return node, true
}

// String returns the scalar at the given path rendered as string or "" if it is absent or no scalar
func String(doc interface{}, path string) string {
	v, ok := Lookup(doc, path)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}

// Bool returns the boolean at the given path. Strings "true" and "false" are accepted as well as the numbers 0 and 1
func Bool(doc interface{}, path string) (bool, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return false, false
	}
	switch val := v.(type) {
	case bool:
		return val, true
	case string, json.Number:
		b, err := strconv.ParseBool(fmt.Sprint(val))
		return b, err == nil
	case float64:
		if val == 0 || val == 1 {
			return val == 1, true
		}
	}
	return false, false
}

// Float returns the number at the given path. Numeric strings are parsed
func Float(doc interface{}, path string) (float64, bool) {
	v, ok := Lookup(doc, path)
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case float64:
		return val, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns the integer at the given path. Numbers with a fraction are rejected
func Int(doc interface{}, path string) (int, bool) {
	f, ok := Float(doc, path)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Time returns the date at the given path parsed with the first matching layout of TimeLayouts. Values without a
// zone are read as UTC
func Time(doc interface{}, path string) (time.Time, bool) {
	s := String(doc, path)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range TimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Items returns the elements of the array at the given path. A single object is returned as the only element
func Items(doc interface{}, path string) []interface{} {
	v, ok := Lookup(doc, path)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []interface{}:
		return val
	case map[string]interface{}:
		return []interface{}{val}
	}
	return nil
}
