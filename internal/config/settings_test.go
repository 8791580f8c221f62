package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSettings_ApplyDefaults(t *testing.T) {
	t.Parallel()

	t.Run("empty settings", func(t *testing.T) {
		var settings Settings
		settings.ApplyDefaults()

		assert.Equal(t, 8080, settings.Port)
		assert.Equal(t, 8888, settings.MonPort)
		assert.Equal(t, "info", settings.LogLevel)
		assert.Equal(t, "ticker-relay", settings.ServiceName)
		assert.Equal(t, "https://graph.facebook.com/v21.0", settings.MessagingAPIURL)
		assert.Equal(t, "https://www.alphavantage.co/query", settings.QuoteAPIURL)
		assert.Equal(t, "USD", settings.QuoteCurrency)
		assert.Zero(t, settings.QuoteCacheTTL)
		assert.Zero(t, settings.RateLimitCooldown)
		assert.Empty(t, settings.DefaultTickerSuffix)
	})

	t.Run("explicit values are kept", func(t *testing.T) {
		settings := Settings{
			Port:                3000,
			LogLevel:            "debug",
			QuoteCurrency:       "BRL",
			QuoteCacheTTL:       30 * time.Second,
			RateLimitCooldown:   -time.Second,
			DefaultTickerSuffix: "sa",
		}
		settings.ApplyDefaults()

		assert.Equal(t, 3000, settings.Port)
		assert.Equal(t, "debug", settings.LogLevel)
		assert.Equal(t, "BRL", settings.QuoteCurrency)
		assert.Equal(t, 30*time.Second, settings.QuoteCacheTTL)
		assert.Zero(t, settings.RateLimitCooldown)
		assert.Equal(t, ".SA", settings.DefaultTickerSuffix)
	})
}
