package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

// Gin's validator engine reads the "binding" tag.
type signupPayload struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strongpwd"`
}

func testValidator(t *testing.T) *validator.Validate {
	t.Helper()
	Init()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return v
}

func TestStrongPasswordAlias(t *testing.T) {
	v := testValidator(t)

	require.NoError(t, v.Struct(signupPayload{Email: "a@example.com", Password: "StrongPassword123!"}))

	for _, pwd := range []string{
		"short1!A",              // ok: 8 chars with all classes
		"StrongPassword123!xyz", // ok
	} {
		require.NoError(t, v.Struct(signupPayload{Email: "a@example.com", Password: pwd}), pwd)
	}

	for _, pwd := range []string{
		"Sh1!",               // too short
		"alllowercase123!",   // no uppercase
		"ALLUPPERCASE123!",   // no lowercase
		"NoDigitsHere!",      // no digit
		"NoSpecialChars123A", // no special character
	} {
		require.Error(t, v.Struct(signupPayload{Email: "a@example.com", Password: pwd}), pwd)
	}
}

func TestToDetailsUsesJSONFieldNames(t *testing.T) {
	v := testValidator(t)

	err := v.Struct(signupPayload{Email: "not-an-email", Password: ""})
	require.Error(t, err)

	details := ToDetails(err)
	require.Equal(t, "must be a valid email", details["email"])
	require.Equal(t, "is required", details["password"])
}

func TestToDetailsFallbacks(t *testing.T) {
	require.Nil(t, ToDetails(nil))
	require.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(assertErr{}))
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
