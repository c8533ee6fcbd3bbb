package format

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestCleanCEP(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"formatted", "88304-053", "88304053", false},
		{"bare digits", "88304053", "88304053", false},
		{"dotted", "88.304-053", "88304053", false},
		{"whitespace", " 88304 053 ", "88304053", false},
		{"too short", "8830405", "", true},
		{"too long", "883040531", "", true},
		{"letters only", "abcdefgh", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanCEP(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				assert.IsError(t, err, ErrInvalidCEP)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatCEP(t *testing.T) {
	got, err := FormatCEP("88304053")
	assert.NoError(t, err)
	assert.Equal(t, "88304-053", got)

	// Already formatted input round-trips.
	got, err = FormatCEP("88304-053")
	assert.NoError(t, err)
	assert.Equal(t, "88304-053", got)

	_, err = FormatCEP("1234")
	assert.IsError(t, err, ErrInvalidCEP)
}

func TestValidCEP(t *testing.T) {
	assert.True(t, ValidCEP("01310-100"))
	assert.True(t, ValidCEP("01310100"))
	assert.False(t, ValidCEP("0131010"))
	assert.False(t, ValidCEP(""))
}
