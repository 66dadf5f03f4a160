// Package sqlval implements spec.md §3.1's value model: a tagged variant
// over the three primitive column types plus NULL, with total comparison
// and serialization methods rather than virtual dispatch through an
// abstract column type (spec.md §9 "polymorphism over value types").
//
// Grounded on the teacher's internal/sql/types.go Value{Type, I64, F64, S,
// B} struct, trimmed to INT/FLOAT/VARCHAR/NULL.
package sqlval

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"goDB/internal/dberrors"
)

// Type is the logical column/value type.
type Type int

const (
	TypeInt Type = iota
	TypeFloat
	TypeVarchar
)

func (t Type) String() string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeVarchar:
		return "VARCHAR"
	default:
		return "UNKNOWN"
	}
}

// Value is a single cell: typed content, or Null == true meaning the
// logical NULL regardless of Type.
type Value struct {
	Type Type
	Null bool
	I    int32
	F    float64
	S    string
}

// NullValue builds a NULL value of the given declared column type (the
// type still matters for serialization width).
func NullValue(t Type) Value { return Value{Type: t, Null: true} }

func IntValue(v int32) Value     { return Value{Type: TypeInt, I: v} }
func FloatValue(v float64) Value { return Value{Type: TypeFloat, F: v} }
func VarcharValue(s string) Value { return Value{Type: TypeVarchar, S: s} }

// ParseIntLiteral converts a decimal literal to an INT value, rejecting
// values that don't fit in signed 32 bits (spec.md §4.3.2, §9: the source
// crashed on overflow; this spec requires detection).
func ParseIntLiteral(lit string) (Value, error) {
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return Value{}, dberrors.Wrapf(dberrors.ErrTypeMismatch, "invalid INT literal %q", lit)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return Value{}, dberrors.Wrapf(dberrors.ErrRangeOverflow, "INT literal %q", lit)
	}
	return IntValue(int32(n)), nil
}

// ParseFloatLiteral converts a decimal literal to a FLOAT value.
func ParseFloatLiteral(lit string) (Value, error) {
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return Value{}, dberrors.Wrapf(dberrors.ErrTypeMismatch, "invalid FLOAT literal %q", lit)
	}
	return FloatValue(f), nil
}

// String renders the value the way the REPL prints result rows (spec.md
// §6.1): unquoted, NULL as the literal "NULL".
func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(int64(v.I), 10)
	case TypeFloat:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case TypeVarchar:
		return v.S
	default:
		return "NULL"
	}
}

// Compare returns -1/0/1 comparing a and b of the same Type. ok is false
// if either is NULL (NULL comparisons have no truth value per spec §3.1)
// or the types differ.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.Null || b.Null {
		return 0, false
	}
	if a.Type != b.Type {
		return 0, false
	}
	switch a.Type {
	case TypeInt:
		switch {
		case a.I < b.I:
			return -1, true
		case a.I > b.I:
			return 1, true
		default:
			return 0, true
		}
	case TypeFloat:
		switch {
		case a.F < b.F:
			return -1, true
		case a.F > b.F:
			return 1, true
		default:
			return 0, true
		}
	case TypeVarchar:
		// Lexicographic over raw bytes after stripping trailing zero
		// padding (spec.md §3.1); values held in memory are already
		// unpadded strings, padding only exists on the wire.
		return strings.Compare(a.S, b.S), true
	default:
		return 0, false
	}
}

// Equal reports a == b, with NULL never equal to anything (including
// NULL), matching SQL three-valued logic as spec.md §3.1 dictates.
func Equal(a, b Value) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// Like implements SQL LIKE pattern matching: '%' = zero-or-more characters,
// '_' = exactly one character (spec.md §4.6.3). NULL never matches.
func Like(v Value, pattern string) bool {
	if v.Null || v.Type != TypeVarchar {
		return false
	}
	return likeMatch(v.S, pattern)
}

func likeMatch(s, pattern string) bool {
	// Classic O(n*m) DP for % and _ wildcards.
	n, m := len(s), len(pattern)
	dp := make([][]bool, n+1)
	for i := range dp {
		dp[i] = make([]bool, m+1)
	}
	dp[0][0] = true
	for j := 1; j <= m; j++ {
		if pattern[j-1] == '%' {
			dp[0][j] = dp[0][j-1]
		}
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch pattern[j-1] {
			case '%':
				dp[i][j] = dp[i-1][j] || dp[i][j-1]
			case '_':
				dp[i][j] = dp[i-1][j-1]
			default:
				dp[i][j] = dp[i-1][j-1] && s[i-1] == pattern[j-1]
			}
		}
	}
	return dp[n][m]
}

// CheckAssignable validates that v can be stored in a column of type t
// with the given VARCHAR width (width is ignored for non-VARCHAR types),
// per spec.md §4.3.2: NOT NULL is checked by the caller, this only checks
// type/width.
func CheckAssignable(v Value, t Type, varcharWidth int) error {
	if v.Null {
		return nil
	}
	if v.Type != t {
		return dberrors.Wrapf(dberrors.ErrTypeMismatch, "expected %s, got %s", t, v.Type)
	}
	if t == TypeVarchar && len(v.S) > varcharWidth {
		return dberrors.Wrapf(dberrors.ErrVarcharOverflow, "value %q exceeds VARCHAR(%d)", v.S, varcharWidth)
	}
	return nil
}

// Describe renders a value for debugging/logging.
func (v Value) Describe() string {
	return fmt.Sprintf("%s(%v)", v.Type, v)
}
