package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAutoMigrateRequested(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want bool
	}{
		{name: "no args", args: nil, want: false},
		{name: "long flag", args: []string{"--auto-migrate"}, want: true},
		{name: "short flag", args: []string{"-m"}, want: true},
		{name: "mixed case among others", args: []string{"--verbose", "--Auto-Migrate"}, want: true},
		{name: "unrelated flags", args: []string{"--migrate", "-v"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, autoMigrateRequested(tt.args))
		})
	}
}
