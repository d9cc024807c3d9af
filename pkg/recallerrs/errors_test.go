package recallerrs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordNotFoundMessage(t *testing.T) {
	err := &RecordNotFound{Schema: "payment", ID: "abc"}
	assert.Contains(t, err.Error(), "payment")
	assert.Contains(t, err.Error(), "abc")
}

func TestSchemaValidationErrorCollectsFields(t *testing.T) {
	err := &SchemaValidationError{
		Schema: "payment",
		Fields: []FieldError{
			{Field: "amount", Message: "required field missing"},
			{Field: "payee", Message: "unknown field for schema"},
		},
	}
	msg := err.Error()
	assert.Contains(t, msg, "amount")
	assert.Contains(t, msg, "payee")
}

func TestLLMErrorUnwraps(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := &LLMError{Op: "complete", Err: inner}
	assert.ErrorIs(t, wrapped, inner)
}

func TestErrorsAsMatchesConcreteTypes(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &ConfigError{Field: "openai-key", Message: "required"})
	var cfgErr *ConfigError
	require := assert.New(t)
	require.True(errors.As(err, &cfgErr))
	require.Equal("openai-key", cfgErr.Field)
}
