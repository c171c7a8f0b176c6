package validate

import (
	"testing"

	pkgerrors "github.com/zikomart/pricing-engine/pkg/errors"
)

type sampleInput struct {
	Code     string `json:"code" validate:"required,min=3"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

func TestStructPassesValidInput(t *testing.T) {
	t.Parallel()

	if err := Struct(sampleInput{Code: "SAVE10", Quantity: 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsFieldDetails(t *testing.T) {
	t.Parallel()

	err := Struct(sampleInput{Code: "", Quantity: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", typed.Details())
	}
	if details["code"] == "" || details["quantity"] == "" {
		t.Fatalf("expected details for both fields, got %v", details)
	}
}
