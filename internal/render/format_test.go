package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumberFormat(t *testing.T) {
	tests := []struct {
		spec  string
		value float64
		want  string
	}{
		{".2f", 1234.5, "1234.50"},
		{".0f", 2.5, "2"},
		{",.0f", 1234567, "1,234,567"},
		{",.2f", 1234.5, "1,234.50"},
		{".1%", 0.256, "25.6%"},
		{".3g", 0.000123456, "0.000123"},
		{"e", 1234.5, "1.234500e+03"},
		{"f", 1.5, "1.500000"},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			nf, err := ParseNumberFormat(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, nf.Format(tt.value))
		})
	}
}

func TestParseNumberFormat_Invalid(t *testing.T) {
	for _, spec := range []string{"", "2f", ".2d", "abc", "%.2f", ".123f"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParseNumberFormat(spec)
			assert.Error(t, err)
		})
	}
}

func TestDefaultNumberFormat(t *testing.T) {
	assert.Equal(t, "3.14", DefaultNumberFormat.Format(3.14159))
}
