// Package llmjson pulls a JSON object out of free-form model output.
//
// Rules, applied in order:
//   - surrounding whitespace is trimmed;
//   - a leading code fence line (``` or ```json) and a trailing ``` are removed;
//   - if what remains is a valid JSON object it is returned as is;
//   - otherwise the text is scanned for the first balanced {...} span that is valid JSON.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"ticket-triage/internal/common/validation"
)

var (
	ErrNoPayload      = errors.New("NO_JSON_PAYLOAD")
	ErrInvalidJSON    = errors.New("INVALID_JSON")
	ErrSchemaMismatch = errors.New("SCHEMA_MISMATCH")
)

const fence = "```"

// Extract returns the JSON object embedded in raw.
func Extract(raw string) (string, error) {
	s := stripFences(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrNoPayload
	}

	if strings.HasPrefix(s, "{") && json.Valid([]byte(s)) {
		return s, nil
	}

	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end := matchBrace(s, start); end > start {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate, nil
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoPayload
}

// Decode extracts the payload, checks it against schema and unmarshals it into dst.
// Fields already set on dst survive when the payload omits them or sends them
// with a type dst cannot hold.
func Decode(raw string, schema *validation.Schema, dst interface{}) error {
	payload, err := Extract(raw)
	if err != nil {
		return err
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	if schema != nil {
		if result := schema.Validate(doc); !result.Valid {
			if missing := schema.MissingFields(result); len(missing) > 0 {
				return fmt.Errorf("%w: missing %s", ErrSchemaMismatch, strings.Join(missing, ", "))
			}
			return fmt.Errorf("%w: %s", ErrSchemaMismatch, strings.Join(result.GetErrorMessages(), "; "))
		}
	}

	var required []string
	if schema != nil {
		required = schema.Required()
	}
	return mergeFields([]byte(payload), dst, required)
}

// mergeFields unmarshals the payload into dst one top-level key at a time.
// A required key that does not fit dst fails the decode; any other key that
// does not fit is skipped so the value already on dst stays.
func mergeFields(payload []byte, dst interface{}, required []string) error {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Ptr || target.IsNil() || target.Elem().Kind() != reflect.Struct {
		if err := json.Unmarshal(payload, dst); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		single, err := json.Marshal(map[string]json.RawMessage{key: fields[key]})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
		// Trial decode into a scratch value so a half-decoded slice never lands on dst.
		if err := json.Unmarshal(single, reflect.New(target.Elem().Type()).Interface()); err != nil {
			if contains(required, key) {
				return fmt.Errorf("%w: %s: %v", ErrInvalidJSON, key, err)
			}
			continue
		}
		if err := json.Unmarshal(single, dst); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidJSON, key, err)
		}
	}
	return nil
}

func contains(list []string, key string) bool {
	for _, item := range list {
		if item == key {
			return true
		}
	}
	return false
}

func stripFences(s string) string {
	if strings.HasPrefix(s, fence) {
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(strings.TrimPrefix(s, fence), "json")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

// matchBrace returns the index of the brace closing the one at open, or -1.
func matchBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
