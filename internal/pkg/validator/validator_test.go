package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Field string `validate:"required,max=5"`
}

func TestValidate(t *testing.T) {
	assert.Nil(t, Validate(&sample{Field: "ok"}))
	assert.Equal(t, map[string]string{"Field": "required"}, Validate(&sample{}))
	assert.Equal(t, map[string]string{"Field": "max"}, Validate(&sample{Field: "toolong"}))
}
