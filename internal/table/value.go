// Package table holds the in-memory dataset that the
// ingest pipeline produces and every aggregation consumes. Cells are
// typed Values with explicit sentinels so that "column not supplied by
// this year", "present but empty", and "present but failed coercion"
// stay distinguishable all the way through the pipeline.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind classifies a cell value.
type Kind uint8

const (
	// KindMissing marks a column the row's source year did not supply.
	KindMissing Kind = iota
	// KindNull marks a value present in the source but empty.
	KindNull
	// KindUnparseable marks a present value that failed type coercion.
	// The raw text is retained for auditing.
	KindUnparseable
	KindString
	KindInt
	KindFloat
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindNull:
		return "null"
	case KindUnparseable:
		return "unparseable"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	}
	return "invalid"
}

// Value is one cell. The zero Value is the missing sentinel.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

// Missing returns the missing-column sentinel.
func Missing() Value { return Value{kind: KindMissing} }

// Null returns the present-but-empty sentinel.
func Null() Value { return Value{kind: KindNull} }

// Unparseable returns the failed-coercion sentinel, retaining the raw text.
func Unparseable(raw string) Value { return Value{kind: KindUnparseable, s: raw} }

// String wraps a textual value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int wraps an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool wraps a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time wraps a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind reports the value's classification.
func (v Value) Kind() Kind { return v.kind }

// Known reports whether the value carries real data (not a sentinel).
func (v Value) Known() bool {
	switch v.kind {
	case KindMissing, KindNull, KindUnparseable:
		return false
	}
	return true
}

// StringVal returns the textual payload. ok is false unless the value
// is a known string.
func (v Value) StringVal() (s string, ok bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// IntVal returns the integer payload.
func (v Value) IntVal() (i int64, ok bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// FloatVal returns the float payload.
func (v Value) FloatVal() (f float64, ok bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// BoolVal returns the boolean payload.
func (v Value) BoolVal() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// TimeVal returns the timestamp payload.
func (v Value) TimeVal() (t time.Time, ok bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Raw returns the retained raw text of an unparseable value.
func (v Value) Raw() string {
	if v.kind == KindUnparseable {
		return v.s
	}
	return ""
}

// Text renders the value for display and grouping. Sentinels render as
// bracketed markers so they can never collide with real data.
func (v Value) Text() string {
	switch v.kind {
	case KindMissing:
		return "[missing]"
	case KindNull:
		return "[null]"
	case KindUnparseable:
		return "[unparseable]"
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	}
	return "[invalid]"
}

// Encode serializes the value to a compact tagged string used by the
// snapshot stores. Sentinel kinds survive the round-trip.
func (v Value) Encode() string {
	switch v.kind {
	case KindMissing:
		return "m:"
	case KindNull:
		return "n:"
	case KindUnparseable:
		return "u:" + v.s
	case KindString:
		return "s:" + v.s
	case KindInt:
		return "i:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		return "f:" + strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "b:1"
		}
		return "b:0"
	case KindTime:
		return "t:" + v.t.Format(time.RFC3339Nano)
	}
	return "m:"
}

// Decode parses a string produced by Encode.
func Decode(enc string) (Value, error) {
	tag, payload, found := strings.Cut(enc, ":")
	if !found || len(tag) != 1 {
		return Value{}, eris.New(fmt.Sprintf("table: malformed encoded value %q", enc))
	}
	switch tag {
	case "m":
		return Missing(), nil
	case "n":
		return Null(), nil
	case "u":
		return Unparseable(payload), nil
	case "s":
		return String(payload), nil
	case "i":
		i, err := strconv.ParseInt(payload, 10, 64)
		if err != nil {
			return Value{}, eris.Wrap(err, "table: decode int value")
		}
		return Int(i), nil
	case "f":
		f, err := strconv.ParseFloat(payload, 64)
		if err != nil {
			return Value{}, eris.Wrap(err, "table: decode float value")
		}
		return Float(f), nil
	case "b":
		return Bool(payload == "1"), nil
	case "t":
		t, err := time.Parse(time.RFC3339Nano, payload)
		if err != nil {
			return Value{}, eris.Wrap(err, "table: decode time value")
		}
		return Time(t), nil
	}
	return Value{}, eris.New(fmt.Sprintf("table: unknown value tag %q", tag))
}
