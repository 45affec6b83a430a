package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := CheckoutRequest{
		StandID: "  b3f0c9e1-0000-0000-0000-000000000000  ",
		Notes:   " no onions ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "b3f0c9e1-0000-0000-0000-000000000000", req.StandID)
	assert.Equal(t, "no onions", req.Notes)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := CheckoutRequest{
		StandID: "b3f0c9e1-0000-0000-0000-000000000000",
		Notes:   "customer <script>alert('x')</script> request",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Notes, "&lt;script&gt;")
	assert.NotContains(t, req.Notes, "<script>")
}

func TestSanitizeStruct_AddFundsDescription(t *testing.T) {
	req := AddFundsRequest{
		UserID:      "b3f0c9e1-0000-0000-0000-000000000000",
		Amount:      "25.00",
		Description: "  festival top-up <b>bonus</b>  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "festival top-up &lt;b&gt;bonus&lt;/b&gt;", req.Description)
	assert.Equal(t, "25.00", req.Amount)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func newDecimalValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, v.RegisterValidation("decimal_amount", validateDecimalAmount))
	return v
}

func TestDecimalAmount_Valid(t *testing.T) {
	v := newDecimalValidator(t)
	cases := []string{
		"10",
		"10.5",
		"10.50",
		"0.01",
		"12345.99",
	}
	for _, tc := range cases {
		err := v.Var(tc, "decimal_amount")
		assert.NoError(t, err, "expected valid: %s", tc)
	}
}

func TestDecimalAmount_Invalid(t *testing.T) {
	v := newDecimalValidator(t)
	cases := []string{
		"10.505",   // 3 fractional digits
		"abc",      // not a number
		"",         // empty
		"1,000.00", // thousands separator
	}
	for _, tc := range cases {
		err := v.Var(tc, "decimal_amount")
		assert.Error(t, err, "expected invalid: %s", tc)
	}
}
