package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncludeCorrupt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "Unset means strict.", value: "", want: false},
		{name: "true enables permissive mode.", value: "true", want: true},
		{name: "1 enables permissive mode.", value: "1", want: true},
		{name: "Garbage falls back to strict.", value: "yes please", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NETSCAN_INCLUDE_CORRUPT", tt.value)
			assert.Equal(t, tt.want, IncludeCorrupt())
		})
	}
}
