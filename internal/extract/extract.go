// Package extract locates JSON payloads inside free-form model output and
// decodes them into typed values.
package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// jsonPattern matches from the first opening bracket to the last closing one.
// At the leftmost match position the object form is tried before the array form.
var jsonPattern = regexp.MustCompile(`(?s)\{.*\}|\[.*\]`)

// ExtractionError is returned when the text contains no JSON-shaped substring.
type ExtractionError struct {
	Raw string
}

func (e *ExtractionError) Error() string {
	return "no json payload found in model output"
}

// MalformedJSONError is returned when the JSON-shaped substring does not parse.
type MalformedJSONError struct {
	Fragment string
	Err      error
}

func (e *MalformedJSONError) Error() string {
	return fmt.Sprintf("malformed json payload: %v", e.Err)
}

func (e *MalformedJSONError) Unwrap() error {
	return e.Err
}

// SchemaError is returned when parsed JSON cannot be coerced into the target type.
type SchemaError struct {
	Target string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("decode into %s: %v", e.Target, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// Find returns the greedy JSON-shaped substring of raw.
func Find(raw string) (string, error) {
	fragment := jsonPattern.FindString(raw)
	if fragment == "" {
		return "", &ExtractionError{Raw: raw}
	}
	return fragment, nil
}

// Parse finds the JSON payload in raw and unmarshals it into generic values.
func Parse(raw string) (any, error) {
	fragment, err := Find(raw)
	if err != nil {
		return nil, err
	}

	var value any
	if err := json.Unmarshal([]byte(fragment), &value); err != nil {
		return nil, &MalformedJSONError{Fragment: fragment, Err: err}
	}

	return value, nil
}

// Decode parses the JSON payload in raw and decodes it into out, which must be a pointer.
func Decode(raw string, out any) error {
	value, err := Parse(raw)
	if err != nil {
		return err
	}
	return Into(value, out)
}

// Into decodes an already parsed value into out. Numeric strings are coerced
// into numbers, floats are rounded into integer fields and scalars are
// wrapped into single-element slices.
func Into(value any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(coerceNumbers),
	})
	if err != nil {
		return &SchemaError{Target: targetName(out), Err: err}
	}

	if err := decoder.Decode(value); err != nil {
		return &SchemaError{Target: targetName(out), Err: err}
	}
	return nil
}

func coerceNumbers(from reflect.Type, to reflect.Type, data any) (any, error) {
	target := to
	optional := false
	if target.Kind() == reflect.Ptr {
		target = target.Elem()
		optional = true
	}

	if !isNumber(target.Kind()) {
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		f, ok := parseNumber(reflect.ValueOf(data).String())
		if !ok {
			if optional {
				return nil, nil
			}
			return float64(0), nil
		}
		return forKind(target, f), nil
	case reflect.Float32, reflect.Float64:
		return forKind(target, reflect.ValueOf(data).Float()), nil
	default:
		return data, nil
	}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "$€£₦")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "_", "")

	multiplier := 1.0
	if lower := strings.ToLower(s); strings.HasSuffix(lower, "k") {
		multiplier = 1000
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f * multiplier, true
}

// forKind rounds f for integer targets and saturates at the target's range,
// since converting an out-of-range float to an integer is undefined.
func forKind(target reflect.Type, f float64) any {
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		maxInt := int64(math.MaxInt64 >> (64 - target.Bits()))
		minInt := -maxInt - 1
		r := math.Round(f)
		switch {
		case r >= float64(maxInt):
			return maxInt
		case r <= float64(minInt):
			return minInt
		}
		return int64(r)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		maxUint := uint64(math.MaxUint64 >> (64 - target.Bits()))
		r := math.Round(f)
		switch {
		case r <= 0:
			return uint64(0)
		case r >= float64(maxUint):
			return maxUint
		}
		return uint64(r)
	default:
		return f
	}
}

func isNumber(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func targetName(out any) string {
	t := reflect.TypeOf(out)
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	return t.Name()
}
