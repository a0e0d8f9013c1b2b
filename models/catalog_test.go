package models

import "testing"

func TestValidUnit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		value string
		want  bool
	}{
		{"gram", UnitGram, true},
		{"teaspoon", UnitTeaspoon, true},
		{"tablespoon", UnitTablespoon, true},
		{"alias is not canonical", "kg", false},
		{"unknown", "cup", false},
		{"empty", "", false},
	}

	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidUnit(tt.value); got != tt.want {
				t.Fatalf("ValidUnit(%q) = %t, want %t", tt.value, got, tt.want)
			}
		})
	}
}

func TestNormalizeUnit(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		" г ":  UnitGram,
		"гр":   UnitGram,
		"G":    UnitGram,
		"tbsp": UnitTablespoon,
		"ч.л.": UnitTeaspoon,
		"cup":  "cup",
	}

	for input, want := range cases {
		if got := NormalizeUnit(input); got != want {
			t.Fatalf("NormalizeUnit(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestIngredientSyncSearchKey(t *testing.T) {
	t.Parallel()

	ingredient := Ingredient{Name: "  Молоко "}
	ingredient.SyncSearchKey()

	if ingredient.Name != "Молоко" {
		t.Fatalf("Name = %q, want trimmed value", ingredient.Name)
	}
	if ingredient.NameLower != "молоко" {
		t.Fatalf("NameLower = %q, want %q", ingredient.NameLower, "молоко")
	}
}
