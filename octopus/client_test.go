// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package octopus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductCodeFromTariff(t *testing.T) {
	tests := []struct {
		tariffCode string
		want       string
	}{
		{"E-1R-VAR-22-11-01-C", "VAR-22-11-01"},
		{"E-1R-AGILE-FLEX-22-11-25-B", "AGILE-FLEX-22-11-25"},
		{"E-2R-OE-FIX-12M-24-04-11-A", "OE-FIX-12M-24-04-11"},
		// Too short to carry a prefix and region; passed through as-is.
		{"VAR-22", "VAR-22"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProductCodeFromTariff(tt.tariffCode), tt.tariffCode)
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	_, err = New(Config{APIKey: "sk_live_test"})
	require.Error(t, err)
}
