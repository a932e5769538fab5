package validator

import (
	"strings"
	"testing"
)

type sampleRequest struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required,min=3"`
}

func TestValidatePasses(t *testing.T) {
	cv := NewValidator()
	if err := cv.Validate(&sampleRequest{Email: "user@example.com", Name: "Jane"}); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidateFormatsErrors(t *testing.T) {
	cv := NewValidator()
	err := cv.Validate(&sampleRequest{Email: "not-an-email", Name: "ab"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	formatted := cv.FormatValidationErrors(err)
	if formatted["Email"] == "" {
		t.Error("expected an error message for Email")
	}
	if formatted["Name"] == "" {
		t.Error("expected an error message for Name")
	}
}

func TestValidateFormatsOneofErrors(t *testing.T) {
	type choiceRequest struct {
		Gender string `validate:"required,oneof=Male Female"`
	}

	cv := NewValidator()
	err := cv.Validate(&choiceRequest{Gender: "Other"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	formatted := cv.FormatValidationErrors(err)
	if !strings.Contains(formatted["Gender"], "Male Female") {
		t.Errorf("Gender message = %q, want the allowed values listed", formatted["Gender"])
	}
}
