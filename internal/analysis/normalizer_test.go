package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		raw          string
		counterparty string
		want         string
	}{
		{
			name: "lowercases and collapses whitespace",
			raw:  "  NETFLIX.COM   ",
			want: "netflix.com",
		},
		{
			name: "strips trailing city",
			raw:  "NETFLIX.COM AMSTERDAM",
			want: "netflix.com",
		},
		{
			name: "strips store number",
			raw:  "Tesco Stores Store #2214",
			want: "tesco stores",
		},
		{
			name: "keeps short branch-style numbers in the key",
			raw:  "TESCO STORES 123",
			want: "tesco stores 123",
		},
		{
			name: "strips reference codes",
			raw:  "DIRECT DEBIT REF: AB12-99X",
			want: "direct debit",
		},
		{
			name: "strips card terminal identifiers",
			raw:  "PRET A MANGER CRD 0447",
			want: "pret a manger",
		},
		{
			name: "strips long digit-heavy tokens",
			raw:  "VODAFONE LTD 000312345678",
			want: "vodafone",
		},
		{
			name: "statement separators become spaces",
			raw:  "PAYPAL *SPOTIFY AB",
			want: "spotify",
		},
		{
			name: "alias collapses marketplace variants",
			raw:  "AMZN MKTP",
			want: "amazon",
		},
		{
			name:         "empty description falls back to counterparty",
			raw:          "",
			counterparty: "merch_0000a1",
			want:         "merch_0000a1",
		},
		{
			name:         "all-noise description falls back to counterparty",
			raw:          "REF: 0012",
			counterparty: "merch_0000a1",
			want:         "merch_0000a1",
		},
		{
			name: "nothing usable falls back to unknown",
			raw:  "   ",
			want: "unknown",
		},
		{
			name: "multiple trailing noise tokens",
			raw:  "ACME COFFEE LTD LONDON GB",
			want: "acme coffee",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, tt.counterparty)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"NETFLIX.COM AMSTERDAM",
		"Tesco Stores Store #2214",
		"PAYPAL *SPOTIFY AB",
		"AMZN MKTP",
		"DIRECT DEBIT REF: AB12-99X",
		"",
		"   ",
		"one-off shop",
		"ACME COFFEE LTD LONDON GB",
	}

	for _, raw := range inputs {
		once := Normalize(raw, "merch_x9")
		twice := Normalize(once, "merch_x9")
		assert.Equal(t, once, twice, "normalize must be idempotent for %q", raw)
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, "tesco stores", Normalize("Tesco Stores Store #2214", ""))
	}
}
