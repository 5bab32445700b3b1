package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"$1,234.50", "1234.50", true},
		{" 525.94 ", "525.94", true},
		{"120", "120", true},
		{"120,50", "120.50", true},
		{"1,200", "1.20", true}, // lone comma reads as a decimal separator
		{"120.5", "120.50", true},
		{"-42", "-42", true},
		{"0", "0", true},
		{".5", "0.50", true},
		{"abc", "", false},
		{"", "", false},
		{"-", "", false},
		{".", "", false},
		{"12.34.56", "", false},
		{"1-2", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseAmount(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestParseAmountIntegerStaysInteger(t *testing.T) {
	// Integer input must not grow a ".00" suffix.
	got, ok := ParseAmount("120")
	assert.True(t, ok)
	assert.Equal(t, "120", got)
}
