package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "plain machine name", input: "order-workflow.mmd", expected: "order-workflow.mmd"},
		{name: "umlauts", input: "Bestellung Größe", expected: "Bestellung_Groesse"},
		{name: "ampersand", input: "pick&pack", expected: "pick_and_pack"},
		{name: "path separators", input: `orders/v2\draft`, expected: "orders_v2_draft"},
		{name: "spaces collapse", input: "order   flow", expected: "order_flow"},
		{name: "accents removed", input: "café", expected: "cafe"},
		{name: "dashes trimmed", input: "-orders-", expected: "orders"},
		{name: "non-ascii replaced", input: "order文件", expected: "order_"}, //nolint:gosmopolitan
		{
			name:     "mixed",
			input:    "Müller & Söhne (€100).dot",
			expected: "Mueller_and_Soehne_Euro100_.dot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, FileName(tt.input))
		})
	}
}

func TestIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: "_"},
		{name: "already valid", input: "awaiting_review", expected: "awaiting_review"},
		{name: "dash", input: "in-review", expected: "in_review"},
		{name: "space", input: "done now", expected: "done_now"},
		{name: "dots", input: "v1.2", expected: "v1_2"},
		{name: "accents", input: "résumé", expected: "resume"},
		{name: "umlaut", input: "geprüft", expected: "geprueft"},
		{name: "symbols", input: "C++", expected: "C_plus_plus_"},
		{name: "only punctuation", input: "--", expected: "_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, Identifier(tt.input))
		})
	}
}
