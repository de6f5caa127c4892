package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countryInput struct {
	Name     string  `json:"name" validate:"required,min=2"`
	Currency string  `json:"currency" validate:"required,is-currency"`
	Price    float64 `json:"signup_price" validate:"gte=0"`
}

type signupInput struct {
	Username string `json:"username" validate:"required,min=3,username"`
	Status   string `form:"status" validate:"omitempty,is-verification-status"`
}

func TestValidate_UsesJSONNames(t *testing.T) {
	v := New()

	err := v.Validate(&countryInput{Name: "Z", Currency: "XYZ", Price: -1})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "name")
	assert.Equal(t, "Unsupported currency", vErr.Errors["currency"])
	assert.Contains(t, vErr.Errors, "signup_price")
}

func TestValidate_CustomRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&countryInput{Name: "Zambia", Currency: "zmw"}))
	assert.NoError(t, v.Validate(&signupInput{Username: "jane.doe", Status: "pending"}))

	err := v.Validate(&signupInput{Username: "jane doe", Status: "archived"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Errors, "username")
	assert.Contains(t, vErr.Errors, "status")
}

func TestValidationError_MessageIsStable(t *testing.T) {
	e := &ValidationError{Errors: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "Validation failed: field 'a': one; field 'b': two", e.Error())
}
