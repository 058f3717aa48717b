package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles derived from the active theme. Views
// rebuild this whenever the theme changes (settings live-preview).
type Styles struct {
	Title     lipgloss.Style
	Header    lipgloss.Style
	Box       lipgloss.Style
	Selected  lipgloss.Style
	Normal    lipgloss.Style
	Dim       lipgloss.Style
	Positive  lipgloss.Style
	Negative  lipgloss.Style
	Accent    lipgloss.Style
	Input     lipgloss.Style
	Error     lipgloss.Style
	FlashCell lipgloss.Style
}

func NewStyles(t Theme) Styles {
	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(t.Title),
		Header: lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),
		Selected: lipgloss.NewStyle().
			Foreground(t.HighlightFg).
			Background(t.HighlightBg).
			Bold(true),
		Normal:   lipgloss.NewStyle().Foreground(t.Fg),
		Dim:      lipgloss.NewStyle().Foreground(t.Dim),
		Positive: lipgloss.NewStyle().Foreground(t.Positive),
		Negative: lipgloss.NewStyle().Foreground(t.Negative),
		Accent:   lipgloss.NewStyle().Foreground(t.Accent),
		Input: lipgloss.NewStyle().
			Foreground(t.InputAccent).
			Bold(true),
		Error: lipgloss.NewStyle().Foreground(t.Error).Bold(true),
		FlashCell: lipgloss.NewStyle().
			Foreground(t.HighlightFg).
			Background(t.Error).
			Bold(true),
	}
}

// Currencies lists the settings-screen cycle order.
var Currencies = []string{
	"usd", "eur", "gbp", "jpy", "aud", "cad", "chf", "cny", "krw", "inr", "brl", "btc", "eth",
}

// CurrencySymbol returns the display prefix for a currency code.
func CurrencySymbol(code string) string {
	switch code {
	case "eur":
		return "€"
	case "gbp":
		return "£"
	case "jpy", "cny", "krw":
		return "¥"
	case "chf":
		return "Fr"
	case "inr":
		return "₹"
	case "brl":
		return "R$"
	case "btc":
		return "₿"
	case "eth":
		return "Ξ"
	default:
		return "$"
	}
}

// FormatPrice renders a price with precision scaled to its magnitude.
func FormatPrice(v float64) string {
	switch {
	case v == 0:
		return "0.00"
	case v < 0.01:
		return fmt.Sprintf("%.6f", v)
	case v < 1:
		return fmt.Sprintf("%.4f", v)
	case v < 100:
		return fmt.Sprintf("%.2f", v)
	default:
		return AddCommas(fmt.Sprintf("%.2f", v))
	}
}

// FormatCompact renders large values as 1.20T / 3.40B / 5.60M / 7.80K.
func FormatCompact(v float64) string {
	switch {
	case v >= 1e12:
		return fmt.Sprintf("%.2fT", v/1e12)
	case v >= 1e9:
		return fmt.Sprintf("%.2fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.2fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.2fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatPercent renders a signed percentage with two decimals.
func FormatPercent(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// AddCommas inserts thousands separators into a numeric string.
func AddCommas(s string) string {
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	out := b.String()
	if neg {
		out = "-" + out
	}
	if hasFrac {
		out += "." + fracPart
	}
	return out
}

// Truncate bounds a string for single-line display.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
