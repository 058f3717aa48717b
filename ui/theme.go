package ui

import "github.com/charmbracelet/lipgloss"

// Theme is one named terminal palette. All colours are ANSI-256 indices
// so the palettes degrade sanely on basic terminals.
type Theme struct {
	Name        string
	Fg          lipgloss.Color
	Dim         lipgloss.Color
	Border      lipgloss.Color
	HighlightBg lipgloss.Color
	HighlightFg lipgloss.Color
	Positive    lipgloss.Color
	Negative    lipgloss.Color
	Accent      lipgloss.Color
	InputAccent lipgloss.Color
	Title       lipgloss.Color
	Error       lipgloss.Color
}

// ThemeNames lists the cycle order on the settings screen.
var ThemeNames = []string{
	"dark",
	"dark-blue",
	"dark-green",
	"dark-red",
	"dark-violet",
	"dark-gray",
	"solarized-dark",
	"solarized-light",
	"light",
	"bubblegum",
	"no-color",
}

// ThemeByName returns the named theme, defaulting to dark.
func ThemeByName(name string) Theme {
	for _, t := range themes {
		if t.Name == name {
			return t
		}
	}
	return themes[0]
}

var themes = []Theme{
	{
		Name: "dark",
		Fg:   lipgloss.Color("253"), Dim: lipgloss.Color("243"),
		Border: lipgloss.Color("240"), HighlightBg: lipgloss.Color("237"), HighlightFg: lipgloss.Color("255"),
		Positive: lipgloss.Color("46"), Negative: lipgloss.Color("196"),
		Accent: lipgloss.Color("81"), InputAccent: lipgloss.Color("220"),
		Title: lipgloss.Color("255"), Error: lipgloss.Color("196"),
	},
	{
		Name: "dark-blue",
		Fg:   lipgloss.Color("153"), Dim: lipgloss.Color("60"),
		Border: lipgloss.Color("24"), HighlightBg: lipgloss.Color("17"), HighlightFg: lipgloss.Color("231"),
		Positive: lipgloss.Color("49"), Negative: lipgloss.Color("203"),
		Accent: lipgloss.Color("39"), InputAccent: lipgloss.Color("117"),
		Title: lipgloss.Color("75"), Error: lipgloss.Color("203"),
	},
	{
		Name: "dark-green",
		Fg:   lipgloss.Color("194"), Dim: lipgloss.Color("65"),
		Border: lipgloss.Color("22"), HighlightBg: lipgloss.Color("22"), HighlightFg: lipgloss.Color("255"),
		Positive: lipgloss.Color("82"), Negative: lipgloss.Color("209"),
		Accent: lipgloss.Color("120"), InputAccent: lipgloss.Color("156"),
		Title: lipgloss.Color("46"), Error: lipgloss.Color("209"),
	},
	{
		Name: "dark-red",
		Fg:   lipgloss.Color("224"), Dim: lipgloss.Color("95"),
		Border: lipgloss.Color("52"), HighlightBg: lipgloss.Color("52"), HighlightFg: lipgloss.Color("255"),
		Positive: lipgloss.Color("107"), Negative: lipgloss.Color("197"),
		Accent: lipgloss.Color("210"), InputAccent: lipgloss.Color("216"),
		Title: lipgloss.Color("196"), Error: lipgloss.Color("197"),
	},
	{
		Name: "dark-violet",
		Fg:   lipgloss.Color("225"), Dim: lipgloss.Color("97"),
		Border: lipgloss.Color("54"), HighlightBg: lipgloss.Color("53"), HighlightFg: lipgloss.Color("255"),
		Positive: lipgloss.Color("156"), Negative: lipgloss.Color("211"),
		Accent: lipgloss.Color("177"), InputAccent: lipgloss.Color("183"),
		Title: lipgloss.Color("141"), Error: lipgloss.Color("211"),
	},
	{
		Name: "dark-gray",
		Fg:   lipgloss.Color("250"), Dim: lipgloss.Color("240"),
		Border: lipgloss.Color("236"), HighlightBg: lipgloss.Color("236"), HighlightFg: lipgloss.Color("255"),
		Positive: lipgloss.Color("108"), Negative: lipgloss.Color("138"),
		Accent: lipgloss.Color("247"), InputAccent: lipgloss.Color("252"),
		Title: lipgloss.Color("255"), Error: lipgloss.Color("138"),
	},
	{
		Name: "solarized-dark",
		Fg:   lipgloss.Color("246"), Dim: lipgloss.Color("240"),
		Border: lipgloss.Color("23"), HighlightBg: lipgloss.Color("23"), HighlightFg: lipgloss.Color("230"),
		Positive: lipgloss.Color("64"), Negative: lipgloss.Color("160"),
		Accent: lipgloss.Color("37"), InputAccent: lipgloss.Color("136"),
		Title: lipgloss.Color("33"), Error: lipgloss.Color("166"),
	},
	{
		Name: "solarized-light",
		Fg:   lipgloss.Color("240"), Dim: lipgloss.Color("245"),
		Border: lipgloss.Color("187"), HighlightBg: lipgloss.Color("187"), HighlightFg: lipgloss.Color("235"),
		Positive: lipgloss.Color("64"), Negative: lipgloss.Color("160"),
		Accent: lipgloss.Color("33"), InputAccent: lipgloss.Color("136"),
		Title: lipgloss.Color("37"), Error: lipgloss.Color("166"),
	},
	{
		Name: "light",
		Fg:   lipgloss.Color("234"), Dim: lipgloss.Color("246"),
		Border: lipgloss.Color("251"), HighlightBg: lipgloss.Color("253"), HighlightFg: lipgloss.Color("232"),
		Positive: lipgloss.Color("28"), Negative: lipgloss.Color("124"),
		Accent: lipgloss.Color("25"), InputAccent: lipgloss.Color("130"),
		Title: lipgloss.Color("232"), Error: lipgloss.Color("124"),
	},
	{
		Name: "bubblegum",
		Fg:   lipgloss.Color("225"), Dim: lipgloss.Color("176"),
		Border: lipgloss.Color("213"), HighlightBg: lipgloss.Color("201"), HighlightFg: lipgloss.Color("231"),
		Positive: lipgloss.Color("49"), Negative: lipgloss.Color("197"),
		Accent: lipgloss.Color("123"), InputAccent: lipgloss.Color("219"),
		Title: lipgloss.Color("213"), Error: lipgloss.Color("197"),
	},
	{
		Name: "no-color",
	},
}
