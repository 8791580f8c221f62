package messagelistener

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DIMO-Network/ticker-relay/internal/clients/quote"
	"github.com/DIMO-Network/ticker-relay/internal/ticker"
)

const (
	promptReply  = "Send a ticker symbol, for example PETR4 or AAPL, to get a quote."
	apologyReply = "Sorry, something went wrong while looking up your quote. Please try again later."

	// defaultRetryAfter is suggested to users when no cooldown is configured.
	defaultRetryAfter = time.Minute
)

// FormatQuote renders a quote as a chat reply. Numbers keep the provider's precision with at least two decimals.
func FormatQuote(q quote.Quote) string {
	var sb strings.Builder
	sb.WriteString(q.Symbol)
	if q.Name != "" {
		fmt.Fprintf(&sb, " (%s)", q.Name)
	}
	sb.WriteString("\nPrice: " + formatDecimal(q.Price))
	if q.Currency != "" {
		sb.WriteString(" " + q.Currency)
	}
	switch {
	case q.Change != nil && q.ChangePercent != nil:
		fmt.Fprintf(&sb, "\nChange: %s (%s%%)", formatSigned(*q.Change), formatSigned(*q.ChangePercent))
	case q.Change != nil:
		sb.WriteString("\nChange: " + formatSigned(*q.Change))
	case q.ChangePercent != nil:
		sb.WriteString("\nChange: " + formatSigned(*q.ChangePercent) + "%")
	}
	return sb.String()
}

// formatDecimal renders v without rounding, padded to two decimals.
func formatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	dot := strings.IndexByte(s, '.')
	switch {
	case dot < 0:
		return s + ".00"
	case len(s)-dot-1 < 2:
		return s + strings.Repeat("0", 2-(len(s)-dot-1))
	}
	return s
}

func formatSigned(v float64) string {
	if v < 0 {
		return formatDecimal(v)
	}
	return "+" + formatDecimal(v)
}

func invalidTickerReply(input string) string {
	return fmt.Sprintf("%q is not a valid ticker. Use %d to %d letters or digits, optionally with an exchange suffix such as PETR4.SA.",
		input, ticker.MinLength, ticker.MaxLength)
}

func notFoundReply(symbol string) string {
	return fmt.Sprintf("No quote found for %s. Check the symbol and try again.", symbol)
}

func providerFailureReply(symbol string) string {
	return fmt.Sprintf("The quote service could not be reached for %s. Please try again shortly.", symbol)
}

func rateLimitedReply(cooldown time.Duration) string {
	return fmt.Sprintf("The quote service is receiving too many requests. Please try again in %s.", formatCooldown(cooldown))
}

// formatCooldown renders d rounded up to whole seconds or minutes.
func formatCooldown(d time.Duration) string {
	if d <= 0 {
		d = defaultRetryAfter
	}
	if d < time.Minute {
		seconds := int((d + time.Second - 1) / time.Second)
		return plural(seconds, "second")
	}
	minutes := int((d + time.Minute - 1) / time.Minute)
	return plural(minutes, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
