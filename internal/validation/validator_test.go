package validation

import (
	"errors"
	"testing"
)

type sampleIngredient struct {
	ID     uint    `json:"id" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
}

type sampleRequest struct {
	Name        string             `json:"name" validate:"required,max=10"`
	Slug        string             `json:"slug" validate:"required,slug"`
	Color       string             `json:"color" validate:"required,hexcolor,len=7"`
	Unit        string             `json:"measurement_unit" validate:"required,measurement_unit"`
	Username    string             `json:"username" validate:"required,username"`
	Ingredients []sampleIngredient `json:"ingredients" validate:"required,min=1,dive"`
}

func validSample() sampleRequest {
	return sampleRequest{
		Name:        "Pancakes",
		Slug:        "break_fast-1",
		Color:       "#E26C2D",
		Unit:        "г",
		Username:    "chef.anna+1",
		Ingredients: []sampleIngredient{{ID: 1, Amount: 2}},
	}
}

func TestStructAcceptsValidPayload(t *testing.T) {
	t.Parallel()

	sample := validSample()
	if err := Struct(&sample); err != nil {
		t.Fatalf("Struct() error = %v", err)
	}
}

func TestStructReportsFieldPaths(t *testing.T) {
	t.Parallel()

	sample := validSample()
	sample.Slug = "not a slug"
	sample.Unit = "cup"
	sample.Ingredients = append(sample.Ingredients, sampleIngredient{ID: 2, Amount: 0})

	err := Struct(&sample)
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %T (%v)", err, err)
	}

	fields := verrs.Fields()
	for _, key := range []string{"slug", "measurement_unit", "ingredients[1].amount"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("expected failure for %q, got %v", key, fields)
		}
	}
	if len(fields) != 3 {
		t.Fatalf("expected exactly three failing fields, got %v", fields)
	}
}

func TestStructRequiresNonEmptyList(t *testing.T) {
	t.Parallel()

	sample := validSample()
	sample.Ingredients = []sampleIngredient{}

	err := Struct(&sample)
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %v", err)
	}
	if msg := verrs.Fields()["ingredients"]; msg == "" {
		t.Fatalf("expected message for empty ingredients, got %v", verrs.Fields())
	}
}

func TestStructTranslatesMessages(t *testing.T) {
	t.Parallel()

	sample := validSample()
	sample.Name = "A name that is far too long"
	sample.Color = "red"
	sample.Username = "white space"

	err := Struct(&sample)
	var verrs Errors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected Errors, got %v", err)
	}
	fields := verrs.Fields()
	if fields["name"] != "Ensure this field has no more than 10 characters." {
		t.Fatalf("unexpected name message %q", fields["name"])
	}
	if fields["color"] != "Enter a color in #RRGGBB format." {
		t.Fatalf("unexpected color message %q", fields["color"])
	}
	if fields["username"] == "" {
		t.Fatalf("expected username failure, got %v", fields)
	}
}
