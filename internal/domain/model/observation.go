// Package model contains domain models passed between pipeline stages.
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the typed forms a survey answer can take.
type ValueKind int

const (
	// Null marks an absent answer (empty-string sentinel in the source file).
	Null ValueKind = iota
	// Number covers Likert 1-7 scales and binary 0/1 answers.
	Number
	// Text covers free text and time-of-day answers.
	Text
)

// Value is a typed survey answer. The zero Value is Null.
type Value struct {
	Kind ValueKind
	Num  float64
	Raw  string
}

// NullValue returns the explicit missing value.
func NullValue() Value { return Value{Kind: Null} }

// NumberValue wraps a numeric answer.
func NumberValue(n float64) Value { return Value{Kind: Number, Num: n} }

// TextValue wraps a free-text answer.
func TextValue(s string) Value { return Value{Kind: Text, Raw: s} }

// IsNull reports whether the value is missing.
func (v Value) IsNull() bool { return v.Kind == Null }

// String renders the value the way exporters write it: empty string for null.
func (v Value) String() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Text:
		return v.Raw
	default:
		return ""
	}
}

// TimeKey identifies a measurement moment within a participant's protocol.
// Day and Point are the numeric pair used for chronological ordering; the
// composite string form keeps the source file's day.timepoint semantics.
type TimeKey struct {
	Day   int
	Point int
}

// Composite returns the string-typed "day.timepoint" key.
func (t TimeKey) Composite() string {
	return fmt.Sprintf("%d.%d", t.Day, t.Point)
}

// Before orders time keys chronologically by the numeric (Day, Point) pair,
// never by the composite string sort.
func (t TimeKey) Before(other TimeKey) bool {
	if t.Day != other.Day {
		return t.Day < other.Day
	}
	return t.Point < other.Point
}

// RawObservation is one survey row exactly as read from the delimited file,
// all fields still textual.
type RawObservation struct {
	Moniker    string
	Block      string
	ItemCode   string
	Answer     string
	Timepoint  string
	TestingDay string
}

// Observation is a normalized survey row. Seq is the original file position,
// used to stabilize within-group ordering for the branching filter.
type Observation struct {
	Moniker string
	Block   int
	Item    string
	Answer  Value
	Time    TimeKey
	Seq     int
}

// CleanedObservation is an Observation whose item code has been replaced by
// its canonical variable name. Never mutated after creation.
type CleanedObservation struct {
	Moniker  string
	Block    int
	Variable string
	Answer   Value
	Time     TimeKey
	Seq      int
}

// Key returns the (participant, time, variable) identity of the observation.
func (c CleanedObservation) Key() string {
	return strings.Join([]string{c.Moniker, c.Time.Composite(), c.Variable}, "|")
}
