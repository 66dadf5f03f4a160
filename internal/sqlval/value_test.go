package sqlval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompareNullHasNoTruthValue(t *testing.T) {
	_, ok := Compare(NullValue(TypeInt), IntValue(5))
	require.False(t, ok)
}

func TestCompareInt(t *testing.T) {
	cmp, ok := Compare(IntValue(1), IntValue(2))
	require.True(t, ok)
	require.Equal(t, -1, cmp)
}

func TestCompareVarcharLexicographic(t *testing.T) {
	cmp, ok := Compare(VarcharValue("apple"), VarcharValue("banana"))
	require.True(t, ok)
	require.Equal(t, -1, cmp)
}

func TestLikeWildcards(t *testing.T) {
	require.True(t, Like(VarcharValue("hi"), "h_"))
	require.True(t, Like(VarcharValue("hello"), "h%"))
	require.False(t, Like(VarcharValue("hi"), "h"))
	require.False(t, Like(NullValue(TypeVarchar), "%"))
}

func TestParseIntLiteralOverflow(t *testing.T) {
	_, err := ParseIntLiteral("99999999999")
	require.Error(t, err)
}

func TestCheckAssignableVarcharOverflow(t *testing.T) {
	err := CheckAssignable(VarcharValue("hello"), TypeVarchar, 4)
	require.Error(t, err)
}

func TestCheckAssignableNullSkipsTypeCheck(t *testing.T) {
	err := CheckAssignable(NullValue(TypeInt), TypeInt, 0)
	require.NoError(t, err)
}
