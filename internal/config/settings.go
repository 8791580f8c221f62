package config

import (
	"time"

	"github.com/DIMO-Network/ticker-relay/internal/ticker"
)

const (
	defaultPort            = 8080
	defaultMonPort         = 8888
	defaultLogLevel        = "info"
	defaultServiceName     = "ticker-relay"
	defaultMessagingAPIURL = "https://graph.facebook.com/v21.0"
	defaultQuoteAPIURL     = "https://www.alphavantage.co/query"
	defaultQuoteCurrency   = "USD"
)

// Settings contains the application config
type Settings struct {
	Port        int    `env:"PORT"`
	MonPort     int    `env:"MON_PORT"`
	EnablePprof bool   `env:"ENABLE_PPROF"`
	LogLevel    string `env:"LOG_LEVEL"`
	ServiceName string `env:"SERVICE_NAME"`

	// VerifyToken is the secret the platform echoes during the webhook verification handshake.
	VerifyToken string `env:"WA_VERIFY_TOKEN"`
	// AppSecret signs inbound webhook bodies. Signature checks are skipped when empty.
	AppSecret       string `env:"WA_APP_SECRET"`
	PhoneNumberID   string `env:"WA_PHONE_NUMBER_ID"`
	AccessToken     string `env:"WA_ACCESS_TOKEN"`
	MessagingAPIURL string `env:"WA_API_URL"`

	QuoteAPIKey         string        `env:"QUOTE_API_KEY"`
	QuoteAPIURL         string        `env:"QUOTE_API_URL"`
	QuoteCurrency       string        `env:"QUOTE_DEFAULT_CURRENCY"`
	QuoteCacheTTL       time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"1m"`
	RateLimitCooldown   time.Duration `env:"RATE_LIMIT_COOLDOWN" envDefault:"1m"`
	DefaultTickerSuffix string        `env:"DEFAULT_TICKER_SUFFIX"`
}

// ApplyDefaults fills unset fields with their defaults and canonicalizes the ticker suffix.
// A zero or negative QuoteCacheTTL or RateLimitCooldown disables that feature.
func (s *Settings) ApplyDefaults() {
	if s.Port == 0 {
		s.Port = defaultPort
	}
	if s.MonPort == 0 {
		s.MonPort = defaultMonPort
	}
	if s.LogLevel == "" {
		s.LogLevel = defaultLogLevel
	}
	if s.ServiceName == "" {
		s.ServiceName = defaultServiceName
	}
	if s.MessagingAPIURL == "" {
		s.MessagingAPIURL = defaultMessagingAPIURL
	}
	if s.QuoteAPIURL == "" {
		s.QuoteAPIURL = defaultQuoteAPIURL
	}
	if s.QuoteCurrency == "" {
		s.QuoteCurrency = defaultQuoteCurrency
	}
	s.QuoteCacheTTL = max(s.QuoteCacheTTL, 0)
	s.RateLimitCooldown = max(s.RateLimitCooldown, 0)
	s.DefaultTickerSuffix = ticker.NormalizeSuffix(s.DefaultTickerSuffix)
}
