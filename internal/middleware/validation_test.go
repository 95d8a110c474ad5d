package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
)

type signupPayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Age      int    `json:"age" validate:"gte=18"`
}

func TestDecodeAndValidateAcceptsValidBody(t *testing.T) {
	body := `{"email":"jane@example.com","password":"hunter2hunter2","age":30}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	var payload signupPayload
	if err := DecodeAndValidate(req, &payload); err != nil {
		t.Fatalf("expected valid body to pass, got %v", err)
	}
	if payload.Email != "jane@example.com" {
		t.Errorf("expected decoded email, got %q", payload.Email)
	}
}

func TestDecodeAndValidateRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader("{not json"))

	var payload signupPayload
	if err := DecodeAndValidate(req, &payload); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestFormatValidationErrors(t *testing.T) {
	body := `{"email":"not-an-email","password":"short","age":12}`
	req := httptest.NewRequest("POST", "/test", strings.NewReader(body))

	var payload signupPayload
	err := DecodeAndValidate(req, &payload)
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	errors := FormatValidationErrors(err)
	if len(errors) != 3 {
		t.Fatalf("expected three field errors, got %d: %v", len(errors), errors)
	}

	messages := map[string]string{}
	for _, e := range errors {
		messages[e.Field] = e.Message
	}

	if messages["Email"] != "Invalid email format" {
		t.Errorf("unexpected email message %q", messages["Email"])
	}
	if messages["Password"] != "Value is too short" {
		t.Errorf("unexpected password message %q", messages["Password"])
	}
	if messages["Age"] != "Value must be greater than or equal to 18" {
		t.Errorf("unexpected age message %q", messages["Age"])
	}
}

func TestFormatValidationErrorsNonValidatorError(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", strings.NewReader("{not json"))

	var payload signupPayload
	err := DecodeAndValidate(req, &payload)

	if errors := FormatValidationErrors(err); errors != nil {
		t.Errorf("expected nil for non-validator error, got %v", errors)
	}
}

func TestValidateRequestMissingRequired(t *testing.T) {
	err := ValidateRequest(&signupPayload{Age: 25})
	if err == nil {
		t.Fatal("expected error for missing required fields")
	}

	errors := FormatValidationErrors(err)
	for _, e := range errors {
		if e.Field == "Email" && e.Message != "This field is required" {
			t.Errorf("unexpected message for missing email: %q", e.Message)
		}
	}
}
