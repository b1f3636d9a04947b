package extract

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "bare object",
			input:  `{"a":1}`,
			expect: `{"a":1}`,
		},
		{
			name:   "object surrounded by prose",
			input:  "Sure! Here you go:\n{\"a\": 1}\nHope it helps.",
			expect: "{\"a\": 1}",
		},
		{
			name:   "markdown fenced object",
			input:  "```json\n{\"a\": [1, 2]}\n```",
			expect: "{\"a\": [1, 2]}",
		},
		{
			name:   "bare array",
			input:  `here: [{"q":"x"}] done`,
			expect: `[{"q":"x"}]`,
		},
		{
			name:   "greedy across two objects",
			input:  `{"a":1} and {"b":2}`,
			expect: `{"a":1} and {"b":2}`,
		},
		{
			name:   "array that starts before an object wins",
			input:  `[1, {"a":2}]`,
			expect: `[1, {"a":2}]`,
		},
		{
			name:   "bracketed prose before an object wins",
			input:  `Filters [parsed]: {"keywords":["go"]}`,
			expect: `[parsed]: {"keywords":["go"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Find(tt.input)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestFindNoPayload(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "I cannot help with that.", "} backwards {"} {
		_, err := Find(input)

		var extractionErr *ExtractionError
		if !errors.As(err, &extractionErr) {
			t.Fatalf("input %q: expected ExtractionError, got %v", input, err)
		}
		if extractionErr.Raw != input {
			t.Fatalf("expected raw %q, got %q", input, extractionErr.Raw)
		}
	}
}

func TestFindIsIdempotent(t *testing.T) {
	t.Parallel()

	first, err := Find("prefix {\"a\": {\"b\": [1]}} suffix")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	second, err := Find(first)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first != second {
		t.Fatalf("expected %q, got %q", first, second)
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		fragment string
	}{
		{input: `{"a":1} and {"b":2}`, fragment: `{"a":1} and {"b":2}`},
		{input: `Filters [parsed]: {"keywords":["go"]}`, fragment: `[parsed]: {"keywords":["go"]`},
	}

	for _, tt := range tests {
		_, err := Parse(tt.input)

		var malformed *MalformedJSONError
		if !errors.As(err, &malformed) {
			t.Fatalf("input %q: expected MalformedJSONError, got %v", tt.input, err)
		}
		if malformed.Fragment != tt.fragment {
			t.Fatalf("expected fragment %q, got %q", tt.fragment, malformed.Fragment)
		}

		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			t.Fatalf("input %q: malformed json must not be reported as missing", tt.input)
		}
	}
}

type scored struct {
	Score    int      `mapstructure:"score"`
	Small    int8     `mapstructure:"small"`
	Count    uint16   `mapstructure:"count"`
	Ratio    float64  `mapstructure:"ratio"`
	Optional *float64 `mapstructure:"optional"`
	Tags     []string `mapstructure:"tags"`
	Name     string   `mapstructure:"name"`
}

func TestDecodeCoercesNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		expect scored
	}{
		{
			name:   "numeric string",
			input:  `{"score": "85"}`,
			expect: scored{Score: 85},
		},
		{
			name:   "float rounds into int",
			input:  `{"score": 85.6}`,
			expect: scored{Score: 86},
		},
		{
			name:   "percent string",
			input:  `{"score": "72%", "ratio": "0.5"}`,
			expect: scored{Score: 72, Ratio: 0.5},
		},
		{
			name:   "unparseable required number falls back to zero",
			input:  `{"score": "high"}`,
			expect: scored{},
		},
		{
			name:   "huge float saturates",
			input:  `{"score": 1e30, "small": 300, "count": 1e9}`,
			expect: scored{Score: math.MaxInt, Small: math.MaxInt8, Count: math.MaxUint16},
		},
		{
			name:   "huge numeric string saturates",
			input:  `{"score": "1e30"}`,
			expect: scored{Score: math.MaxInt},
		},
		{
			name:   "huge negative float saturates",
			input:  `{"score": -1e30, "small": -300, "count": -5}`,
			expect: scored{Score: math.MinInt, Small: math.MinInt8, Count: 0},
		},
		{
			name:   "number into string field",
			input:  `{"name": 2020}`,
			expect: scored{Name: "2020"},
		},
		{
			name:   "scalar wraps into slice",
			input:  `{"tags": "go"}`,
			expect: scored{Tags: []string{"go"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got scored
			if err := Decode(tt.input, &got); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !reflect.DeepEqual(got, tt.expect) {
				t.Fatalf("expected %+v, got %+v", tt.expect, got)
			}
		})
	}
}

func TestDecodeOptionalNumbers(t *testing.T) {
	t.Parallel()

	var withValue scored
	if err := Decode(`{"optional": "$120k"}`, &withValue); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if withValue.Optional == nil || math.Abs(*withValue.Optional-120000) > 0.001 {
		t.Fatalf("expected 120000, got %v", withValue.Optional)
	}

	for _, input := range []string{`{"optional": "negotiable"}`, `{"optional": null}`} {
		var got scored
		if err := Decode(input, &got); err != nil {
			t.Fatalf("input %s: expected no error, got %v", input, err)
		}
		if got.Optional != nil {
			t.Fatalf("input %s: expected nil, got %v", input, *got.Optional)
		}
	}
}

func TestDecodeSchemaError(t *testing.T) {
	t.Parallel()

	var got scored
	err := Decode(`{"tags": {"nested": true}}`, &got)

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if schemaErr.Target != "scored" {
		t.Fatalf("expected target scored, got %q", schemaErr.Target)
	}
}

func TestDecodePropagatesExtractionError(t *testing.T) {
	t.Parallel()

	var got scored
	err := Decode("no json at all", &got)

	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
}
