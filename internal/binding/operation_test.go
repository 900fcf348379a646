package binding

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlekbai/querybind/internal/expr"
)

var (
	firstname     = expr.NewNode("firstname", expr.Comparable|expr.StringLike)
	lastname      = expr.NewNode("lastname", expr.Comparable|expr.StringLike)
	nickNames     = expr.NewNode("nickNames", expr.CollectionLike)
	inceptionYear = expr.NewNode("inceptionYear", expr.Comparable|expr.Orderable)
	city          = expr.NewNode("address.city", expr.Comparable|expr.StringLike)
)

func mustPredicate(t *testing.T, op Operation, n expr.Node, values ...any) expr.Predicate {
	t.Helper()
	p, err := op.Predicate(n, values)
	require.NoError(t, err)
	return p
}

func assertPredicate(t *testing.T, want, got expr.Predicate) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("predicate mismatch (-want +got):\n%s", diff)
	}
}

func TestNoOp(t *testing.T) {
	assertPredicate(t, expr.Eq(firstname, "tam"), mustPredicate(t, NoOp, firstname, "tam"))
	assertPredicate(t, expr.Eq(city, "two rivers"), mustPredicate(t, NoOp, city, "two rivers"))
	assertPredicate(t, expr.Element(nickNames, "dragon reborn"), mustPredicate(t, NoOp, nickNames, "dragon reborn"))
	assertPredicate(t,
		expr.MemberOf(firstname, []any{"dragon reborn", "shadowkiller"}),
		mustPredicate(t, NoOp, firstname, "dragon reborn", "shadowkiller"))
	assertPredicate(t,
		expr.All(expr.Element(nickNames, "a"), expr.Element(nickNames, "b")),
		mustPredicate(t, NoOp, nickNames, "a", "b"))
	assert.Nil(t, mustPredicate(t, NoOp, lastname))
}

func TestSingleValueOperations(t *testing.T) {
	cases := []struct {
		op   Operation
		node expr.Node
		val  any
		want expr.Predicate
	}{
		{Eq, firstname, "tam", expr.Eq(firstname, "tam")},
		{Ne, firstname, "tam", expr.Ne(firstname, "tam")},
		{Like, firstname, "nick", expr.LikeIgnoreCase(firstname, "%nick%")},
		{Gt, inceptionYear, int64(20), expr.Gt(inceptionYear, int64(20))},
		{Goe, inceptionYear, int64(20), expr.Goe(inceptionYear, int64(20))},
		{Lt, inceptionYear, int64(20), expr.Lt(inceptionYear, int64(20))},
		{Loe, inceptionYear, int64(20), expr.Loe(inceptionYear, int64(20))},
	}
	for _, tc := range cases {
		t.Run(tc.op.String(), func(t *testing.T) {
			assertPredicate(t, tc.want, mustPredicate(t, tc.op, tc.node, tc.val))

			p, err := tc.op.Predicate(tc.node, nil)
			require.NoError(t, err)
			assert.Nil(t, p, "no values contributes nothing")

			_, err = tc.op.Predicate(tc.node, []any{tc.val, tc.val})
			assert.ErrorIs(t, err, ErrUnsupportedOperation)
		})
	}
}

func TestMultiValueOperations(t *testing.T) {
	years := []any{int64(1), int64(2)}
	assertPredicate(t, expr.MemberOf(inceptionYear, years), mustPredicate(t, In, inceptionYear, years...))
	assertPredicate(t, expr.NotMemberOf(inceptionYear, years), mustPredicate(t, NotIn, inceptionYear, years...))
	assertPredicate(t, expr.Negate(expr.MemberOf(inceptionYear, years)), mustPredicate(t, NotIn2, inceptionYear, years...))
	assertPredicate(t, expr.Element(nickNames, "nick"), mustPredicate(t, Contains, nickNames, "nick"))

	notIn := mustPredicate(t, NotIn, inceptionYear, years...)
	notIn2 := mustPredicate(t, NotIn2, inceptionYear, years...)
	assert.NotEqual(t, notIn, notIn2)
	for _, y := range []any{int64(1), int64(3), nil} {
		r := expr.Record{"inceptionYear": y}
		assert.Equal(t, expr.Eval(notIn, r), expr.Eval(notIn2, r))
	}
}

func TestNullChecksIgnoreValues(t *testing.T) {
	for _, values := range [][]any{nil, {}, {"x", "y"}} {
		assertPredicate(t, expr.Null(inceptionYear), mustPredicate(t, IsNull, inceptionYear, values...))
		assertPredicate(t, expr.NotNull(inceptionYear), mustPredicate(t, NotNull, inceptionYear, values...))
	}
}

func TestCapabilityMismatch(t *testing.T) {
	cases := []struct {
		op   Operation
		node expr.Node
	}{
		{Like, inceptionYear},
		{Gt, firstname},
		{Contains, firstname},
		{Eq, nickNames},
		{In, nickNames},
		{IsNull, nickNames},
	}
	for _, tc := range cases {
		_, err := tc.op.Predicate(tc.node, []any{"x"})
		require.Error(t, err, "%s on %s", tc.op, tc.node)
		assert.True(t, errors.Is(err, ErrUnsupportedOperation))

		var oe *OperationError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, tc.node.String(), oe.Path)
	}
}

func TestParseOperation(t *testing.T) {
	for _, op := range Operations() {
		got, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, got)
	}

	got, err := ParseOperation("NOTIN2")
	require.NoError(t, err)
	assert.Equal(t, NotIn2, got)

	got, err = ParseOperation("isnull")
	require.NoError(t, err)
	assert.Equal(t, IsNull, got)

	for _, bad := range []string{"", "between", "not_in"} {
		_, err := ParseOperation(bad)
		assert.ErrorIs(t, err, ErrUnknownOperation, bad)
	}
	assert.Len(t, Operations(), 13)
}

func TestUnknownOperationValue(t *testing.T) {
	_, err := Operation(200).Predicate(firstname, []any{"x"})
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Equal(t, "Operation(200)", Operation(200).String())
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey("age:gt")
	require.NoError(t, err)
	assert.Equal(t, "age", k.Path)
	assert.Equal(t, Gt, k.Op)
	assert.True(t, k.HasOperation())
	assert.Equal(t, "age:gt", k.String())

	k, err = ParseKey("age")
	require.NoError(t, err)
	assert.Equal(t, "age", k.Path)
	assert.False(t, k.HasOperation())
	assert.Equal(t, "age", k.String())

	k, err = ParseKey("address.city:NotIn")
	require.NoError(t, err)
	assert.Equal(t, "address.city", k.Path)
	assert.Equal(t, NotIn, k.Op)

	_, err = ParseKey("age:gt:lt")
	assert.ErrorIs(t, err, ErrUnknownOperation, "only the first delimiter splits")

	_, err = ParseKey("age:")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	var oe *OperationError
	_, err = ParseKey("age:between")
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "age", oe.Path)
	assert.Equal(t, "between", oe.Op)
}
