package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Doe, Jane", "Jane Doe"},
		{"Doe, Jane Marie", "Jane Marie Doe"},
		{"Bustos, Luis", "Luis Bustos"},
		{"Van Horn, Mark", "Mark Van Horn"},
		{"  Doe ,  Jane  ", "Jane Doe"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeDisplayName(tc.input))
		})
	}
}

func TestNormalizeDisplayName_Unchanged(t *testing.T) {
	tests := []string{
		"Jane Doe",          // no comma
		"",                  // empty
		"Doe,",              // empty given segment
		", Jane",            // empty surname segment
		"Doe, Jane, Marie",  // two commas
		",",                 // both segments empty
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, input, NormalizeDisplayName(input))
		})
	}
}
