package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFilter_ValidateRejectsUnknownField(t *testing.T) {
	f := ListFilter{Conditions: []Condition{
		{Field: "password", Op: OpEq, Value: "x"},
	}}

	err := f.Validate()
	var ifErr *InvalidFilterError
	require.ErrorAs(t, err, &ifErr)
	assert.Contains(t, ifErr.Reason, "password")
}

func TestListFilter_ValidateRejectsUnknownOperator(t *testing.T) {
	f := ListFilter{Conditions: []Condition{
		{Field: "price", Op: Op("like"), Value: "x"},
	}}

	var ifErr *InvalidFilterError
	require.ErrorAs(t, f.Validate(), &ifErr)
}

func TestListFilter_ValidateRejectsUnsortableField(t *testing.T) {
	f := ListFilter{Sort: []string{"-description"}}

	var ifErr *InvalidFilterError
	require.ErrorAs(t, f.Validate(), &ifErr)
}

func TestListFilter_InjectionAttemptNeverReachesSQL(t *testing.T) {
	f := ListFilter{Conditions: []Condition{
		{Field: "price; DROP TABLE products--", Op: OpEq, Value: "1"},
	}}

	where, orderBy, args, err := f.BuildSQL()
	require.Error(t, err)
	assert.Empty(t, where)
	assert.Empty(t, orderBy)
	assert.Nil(t, args)
}

func TestListFilter_ValidateNormalizesPagination(t *testing.T) {
	f := ListFilter{Page: 0, Limit: 0}
	require.NoError(t, f.Validate())
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, DefaultLimit, f.Limit)

	f = ListFilter{Page: 3, Limit: 10_000}
	require.NoError(t, f.Validate())
	assert.Equal(t, MaxLimit, f.Limit)
	assert.Equal(t, 2*MaxLimit, f.Offset())
}

func TestListFilter_BuildSQL(t *testing.T) {
	f := ListFilter{
		Conditions: []Condition{
			{Field: "category", Op: OpEq, Value: "electronics"},
			{Field: "price", Op: OpLte, Value: "100"},
		},
		Sort: []string{"-price", "title"},
	}

	where, orderBy, args, err := f.BuildSQL()
	require.NoError(t, err)
	assert.Equal(t, "WHERE category = $1 AND price <= $2", where)
	assert.Equal(t, "ORDER BY price DESC, title ASC", orderBy)
	assert.Equal(t, []any{"electronics", "100"}, args)
}

func TestListFilter_BuildSQLDefaults(t *testing.T) {
	f := ListFilter{}

	where, orderBy, args, err := f.BuildSQL()
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Equal(t, "ORDER BY created_at DESC", orderBy)
	assert.Empty(t, args)
}
