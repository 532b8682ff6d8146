package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"09171234567", "+639171234567"},
		{"639171234567", "+639171234567"},
		{"+639171234567", "+639171234567"},
		{"9171234567", "+639171234567"},
		{"0917 123 4567", "+639171234567"},
		{"0917-123-4567", "+639171234567"},
		{"(0917) 123 4567", "+639171234567"},
	}
	for _, tc := range cases {
		got, err := Normalize(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"12345",
		"0917123456",      // too short
		"091712345678",    // too long
		"+6391712345678",  // too long
		"0917abc4567",     // letters
		"+19171234567",    // wrong country
	}
	for _, in := range cases {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrInvalid, "%q", in)
	}
}
