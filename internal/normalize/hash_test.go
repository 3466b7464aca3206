package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashEquivalence(t *testing.T) {
	// Same opportunity fetched from two providers with different formatting
	// must collapse to one hash.
	a := ContentHash("Google Inc.", "SWE Intern - Summer 2026", "Mountain View, CA")
	b := ContentHash("Google", "swe intern", "mountain view ca")
	assert.Equal(t, a, b)

	c := ContentHash("Google", "Data Science Intern", "Mountain View, CA")
	assert.NotEqual(t, a, c, "different titles must hash differently")

	d := ContentHash("Alphabet", "swe intern", "mountain view ca")
	assert.NotEqual(t, a, d, "different companies must hash differently")
}

func TestCompanyKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Google Inc.", "google"},
		{"Google", "google"},
		{"Stripe, Inc.", "stripe"},
		{"ACME Corp", "acme"},
		{"Tata Consultancy Services Limited", "tata consultancy services"},
		{"Johnson & Johnson", "johnson johnson"},
		{"Inc", "inc"}, // never strip down to nothing
		{"  Spaced   Out  Co ", "spaced out"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CompanyKey(tc.in), "CompanyKey(%q)", tc.in)
	}
}

func TestTitleKey(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"SWE Intern - Summer 2026", "swe intern"},
		{"swe intern", "swe intern"},
		{"Software Engineering Intern (Summer 2026)", "software engineering intern"},
		{"Software Engineering Intern, Fall 2025", "software engineering intern"},
		{"Data Intern 2026", "data intern"},
		{"Quant Intern - Class of 2027", "quant intern"},
		{"Summer Analyst", "analyst"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TitleKey(tc.in), "TitleKey(%q)", tc.in)
	}
}

func TestKeysIdempotent(t *testing.T) {
	inputs := []string{"Google Inc.", "SWE Intern - Summer 2026", "New York, NY, NY"}
	for _, in := range inputs {
		assert.Equal(t, CompanyKey(in), CompanyKey(CompanyKey(in)))
		assert.Equal(t, TitleKey(in), TitleKey(TitleKey(in)))
		assert.Equal(t, LocationKey(in), LocationKey(LocationKey(in)))
	}
}

func TestLocationKey(t *testing.T) {
	assert.Equal(t, LocationKey("Mountain View, CA"), LocationKey("mountain view ca"))
	assert.Equal(t, "new york ny", LocationKey("New York, NY, ny"))
	assert.Equal(t, "remote", LocationKey("Location: Remote"))
}
