package ticker

import (
	"strings"
	"testing"

	"github.com/DIMO-Network/ticker-relay/internal/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		raw           string
		defaultSuffix string
		expected      string
		ok            bool
	}{
		{name: "appends default suffix", raw: "PETR4", defaultSuffix: ".SA", expected: "PETR4.SA", ok: true},
		{name: "uppercases and trims", raw: "  petr4\n", defaultSuffix: ".SA", expected: "PETR4.SA", ok: true},
		{name: "suffix without separator", raw: "vale3", defaultSuffix: "sa", expected: "VALE3.SA", ok: true},
		{name: "existing suffix kept", raw: "aapl.us", defaultSuffix: ".SA", expected: "AAPL.US", ok: true},
		{name: "no default suffix", raw: "msft", defaultSuffix: "", expected: "MSFT", ok: true},
		{name: "blank default suffix", raw: "msft", defaultSuffix: "  ", expected: "MSFT", ok: true},
		{name: "empty input", raw: "", defaultSuffix: ".SA", expected: "", ok: false},
		{name: "whitespace input", raw: " \t ", defaultSuffix: ".SA", expected: "", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.raw, tc.defaultSuffix)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestNormalize_SuffixAppendedOnce(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"PETR4", "itub4", "B3SA3", "x", "BBDC4 "} {
		got, ok := Normalize(raw, ".SA")
		require.True(t, ok)
		assert.Equal(t, 1, strings.Count(got, ".SA"), "symbol %q", got)
		assert.True(t, strings.HasSuffix(got, ".SA"))

		// normalizing the result again must not add another suffix
		again, ok := Normalize(got, ".SA")
		require.True(t, ok)
		assert.Equal(t, got, again)
	}
}

func TestNormalize_DottedSymbolIsIdentity(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"PETR4.SA", "brk.b", "7203.t", "A.B.C"} {
		for _, suffix := range []string{"", ".SA", "US"} {
			got, ok := Normalize(raw, suffix)
			require.True(t, ok)
			assert.Equal(t, strings.ToUpper(raw), got)
		}
	}
}

func TestNormalizeSuffix(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".SA", NormalizeSuffix(".SA"))
	assert.Equal(t, ".SA", NormalizeSuffix("sa"))
	assert.Equal(t, ".SA", NormalizeSuffix(" ..sa "))
	assert.Equal(t, "", NormalizeSuffix(""))
	assert.Equal(t, "", NormalizeSuffix("."))
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := []string{"PETR4.SA", "AAPL", "MSFT", "B3SA3.SA", "BRK.B", "123", "ABCDEFGHIJKLMNO"}
	for _, symbol := range valid {
		t.Run("valid "+symbol, func(t *testing.T) {
			assert.NoError(t, Validate(symbol))
		})
	}

	invalid := []string{
		"",
		"AB",
		"ABCDEFGHIJKLMNOP",
		"PETR4 PLEASE",
		"$PETR4",
		"PETR4.",
		".SA",
		"A.B.C",
		"petr4",
		"PETR-4",
	}
	for _, symbol := range invalid {
		t.Run("invalid "+symbol, func(t *testing.T) {
			err := Validate(symbol)
			require.Error(t, err)
			assert.ErrorIs(t, err, relay.ErrValidation)
		})
	}
}
