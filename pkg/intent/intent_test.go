package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmem/recall/internal/structstore"
)

func paymentSchema() structstore.SchemaDef {
	return structstore.SchemaDef{
		Name: "payment",
		Fields: []structstore.FieldDef{
			{Name: "payee", Type: structstore.FieldString, Required: true},
			{Name: "amount", Type: structstore.FieldNumber, Required: true},
			{Name: "paid", Type: structstore.FieldBoolean},
		},
	}
}

func TestPostProcessDemotesUndeclaredSchema(t *testing.T) {
	env := Envelope{Matched: true, Schema: "not_a_real_schema", Intent: Insert}
	postProcess(&env, []structstore.SchemaDef{paymentSchema()})
	assert.False(t, env.Matched)
	assert.Empty(t, env.Schema)
}

func TestPostProcessKeepsDeclaredSchema(t *testing.T) {
	env := Envelope{Matched: true, Schema: "payment", Intent: Insert}
	postProcess(&env, []structstore.SchemaDef{paymentSchema()})
	assert.True(t, env.Matched)
	assert.Equal(t, "payment", env.Schema)
}

func TestCoerceFieldValuesStripsCurrencyFormatting(t *testing.T) {
	fields := []FieldValue{{Field: "amount", Value: "$1,250.50", Type: "number"}}
	coerceFieldValues(fields)
	assert.Equal(t, "1250.5", fields[0].Value)
}

func TestCoerceFieldValuesNormalisesBooleans(t *testing.T) {
	fields := []FieldValue{
		{Field: "paid", Value: "Yes", Type: "boolean"},
		{Field: "refunded", Value: "No", Type: "boolean"},
	}
	coerceFieldValues(fields)
	assert.Equal(t, "true", fields[0].Value)
	assert.Equal(t, "false", fields[1].Value)
}

func TestCoerceFieldValuesLeavesUnparsableNumberAlone(t *testing.T) {
	fields := []FieldValue{{Field: "amount", Value: "not a number", Type: "number"}}
	coerceFieldValues(fields)
	assert.Equal(t, "not a number", fields[0].Value)
}

func TestToDataConvertsTypedValues(t *testing.T) {
	fields := []FieldValue{
		{Field: "payee", Value: "Jayden", Type: "string"},
		{Field: "amount", Value: "50", Type: "number"},
		{Field: "paid", Value: "true", Type: "boolean"},
	}
	data, err := ToData(fields)
	require.NoError(t, err)
	assert.Equal(t, "Jayden", data["payee"])
	assert.Equal(t, 50.0, data["amount"])
	assert.Equal(t, true, data["paid"])
}

func TestToDataRejectsInvalidNumber(t *testing.T) {
	fields := []FieldValue{{Field: "amount", Value: "abc", Type: "number"}}
	_, err := ToData(fields)
	assert.Error(t, err)
}
