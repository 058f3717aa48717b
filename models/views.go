package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"coindeck/api"
	"coindeck/notify"
	"coindeck/ui"
)

// Screen layout: top bar, tab bar, table header, table rows, then a
// status line and a help line. Mouse handling depends on these offsets.
const (
	tabBarLine   = 1
	tableTopLine = 3
	chromeLines  = 5
)

func (m *AppModel) tableRows() int {
	if m.Height == 0 {
		return 20
	}
	rows := m.Height - chromeLines
	if rows < 1 {
		rows = 1
	}
	return rows
}

// tabAt maps a tab-bar column to a tab index, matching tabBar rendering.
func tabAt(x int) (int, bool) {
	pos := 0
	for i, name := range tabNames {
		width := len(name) + 2
		if x >= pos && x < pos+width {
			return i, true
		}
		pos += width + 1
	}
	return 0, false
}

func (m *AppModel) View() string {
	switch m.State {
	case StateLocked:
		return m.passwordView(false)
	case StateConfirmPassword:
		return m.passwordView(true)
	case StateSettings:
		return m.settingsView()
	case StateEditingAmount, StateEditingAlert, StateEditingBuyPrice:
		return m.editPopupView()
	case StateSearchQuery:
		return m.searchQueryView()
	case StateSearchResults:
		return m.searchResultsView()
	case StateChartPopup:
		return m.chartView()
	case StateSortPicking:
		return m.browsingView("sort: [r]ank [n]ame [p]rice [1]h [2]4h [7]d [v]olume [m]cap  any other key cancels")
	case StateFiltering:
		return m.browsingView("filter: type to narrow, enter keeps it, esc clears")
	}
	return m.browsingView("j/k move  tab/1-3 tabs  / filter  s sort  enter chart  f fav  a amount  A alert  n search  S settings  r refresh  q quit")
}

// -- Password screens --

func (m *AppModel) passwordView(confirm bool) string {
	var prompt string
	switch {
	case confirm:
		prompt = "Confirm password"
	case m.StoreExists:
		prompt = "Enter password"
	default:
		prompt = "Create a password for the local store"
	}

	var b strings.Builder
	b.WriteString(m.Styles.Title.Render("coindeck") + "\n\n")
	b.WriteString(m.Styles.Normal.Render(prompt) + "\n\n")

	masked := strings.Repeat("*", len([]rune(m.PasswordInput)))
	b.WriteString(m.Styles.Input.Render(masked+"│") + "\n\n")

	if m.Unlocking {
		b.WriteString(m.Styles.Dim.Render("Unlocking...") + "\n")
	}
	if m.Err != "" {
		b.WriteString(m.Styles.Error.Render(m.Err) + "\n")
	}
	b.WriteString("\n" + m.Styles.Dim.Render("enter confirm  ctrl+v paste  esc quit"))

	return m.centered(m.Styles.Box.Render(b.String()))
}

// -- Main table --

func (m *AppModel) browsingView(help string) string {
	var b strings.Builder
	b.WriteString(m.topBar() + "\n")
	b.WriteString(m.tabBar() + "\n")
	b.WriteString(m.table())
	b.WriteString("\n" + m.statusLine() + "\n")
	b.WriteString(m.Styles.Dim.Render(help))
	return b.String()
}

func (m *AppModel) topBar() string {
	parts := []string{m.Styles.Title.Render(" coindeck ")}

	if m.Global != nil {
		sym := ui.CurrencySymbol(m.Cfg.Currency)
		parts = append(parts, m.Styles.Dim.Render(
			fmt.Sprintf("MCap %s%s  BTC %.1f%%", sym, ui.FormatCompact(m.Global.TotalMarketCap), m.Global.BTCDominance)))
		if m.Global.FearGreedIndex != nil {
			parts = append(parts, m.Styles.Accent.Render(
				fmt.Sprintf("F&G %d %s", *m.Global.FearGreedIndex, m.Global.FearGreedLabel)))
		}
	}

	if m.Refreshing {
		parts = append(parts, m.Styles.Dim.Render("refreshing..."))
	} else if !m.LastRefresh.IsZero() {
		parts = append(parts, m.Styles.Dim.Render("⟳ "+refreshAge(time.Since(m.LastRefresh))))
	}
	return strings.Join(parts, "  ")
}

func refreshAge(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm ago", int(d.Minutes()))
}

func (m *AppModel) tabBar() string {
	parts := make([]string, 0, len(tabNames))
	for i, name := range tabNames {
		label := " " + name + " "
		if i == m.Tab {
			parts = append(parts, m.Styles.Selected.Render(label))
		} else {
			parts = append(parts, m.Styles.Dim.Render(label))
		}
	}
	bar := strings.Join(parts, "│")
	if m.FilterText != "" || m.State == StateFiltering {
		bar += "  " + m.Styles.Input.Render("/"+m.FilterText+"│")
	}
	return bar
}

func (m *AppModel) table() string {
	visible := m.VisibleCoins()
	rows := m.tableRows()

	var b strings.Builder
	b.WriteString(m.Styles.Header.Render(m.tableHeader()) + "\n")

	end := m.Scroll + rows
	if end > len(visible) {
		end = len(visible)
	}
	for i := m.Scroll; i < end; i++ {
		coin := visible[i].Coin
		line := m.tableLine(coin)
		_, flashing := m.Flash[coin.ID]
		switch {
		case i == m.Cursor:
			b.WriteString(m.Styles.Selected.Render(line))
		case flashing:
			b.WriteString(m.Styles.FlashCell.Render(line))
		default:
			b.WriteString(m.changeStyle(coin.Change24h).Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	drawn := end - m.Scroll
	if drawn <= 0 {
		b.WriteString(m.Styles.Dim.Render("  nothing to show"))
		drawn = 1
	}
	// Pad so the status line lands on a fixed row for mouse handling.
	if pad := rows - drawn; pad > 0 {
		b.WriteString(strings.Repeat("\n", pad))
	}
	return b.String()
}

func (m *AppModel) changeStyle(change *float64) lipgloss.Style {
	switch {
	case change != nil && *change > 0:
		return m.Styles.Positive
	case change != nil && *change < 0:
		return m.Styles.Negative
	default:
		return m.Styles.Normal
	}
}

func (m *AppModel) tableHeader() string {
	dirs := map[int]string{}
	switch m.Sort.Dir {
	case SortAsc:
		dirs[m.Sort.Column] = "↑"
	case SortDesc:
		dirs[m.Sort.Column] = "↓"
	}
	h := func(col int, label string) string { return label + dirs[col] }

	if m.Tab == TabPortfolio {
		return fmt.Sprintf("   %4s  %-18s %-5s %13s %9s %13s %13s %13s",
			h(SortRank, "#"), h(SortName, "Coin"), "Sym",
			h(SortPrice, "Price"), h(SortChange24h, "24h"),
			"Amount", "Value", "P/L")
	}
	return fmt.Sprintf("   %4s  %-18s %-5s %13s %8s %8s %8s %9s %9s",
		h(SortRank, "#"), h(SortName, "Coin"), "Sym",
		h(SortPrice, "Price"), h(SortChange1h, "1h"), h(SortChange24h, "24h"),
		h(SortChange7d, "7d"), h(SortVolume, "Vol"), h(SortMarketCap, "MCap"))
}

func (m *AppModel) tableLine(coin api.Coin) string {
	sym := ui.CurrencySymbol(m.Cfg.Currency)

	rank := "-"
	if coin.MarketCapRank != nil {
		rank = fmt.Sprintf("%d", *coin.MarketCapRank)
	}
	star := " "
	if m.Favourites[coin.ID] {
		star = "★"
	}
	name := ui.Truncate(coin.Name, 18)
	symbol := strings.ToUpper(ui.Truncate(coin.Symbol, 5))
	price := sym + ui.FormatPrice(coin.CurrentPrice)

	if m.Tab == TabPortfolio {
		amount, value, pl := "-", "-", "-"
		if h := m.holdingFor(coin.ID); h != nil {
			amount = fmt.Sprintf("%g", h.Amount)
			value = sym + ui.FormatPrice(h.Amount*coin.CurrentPrice)
			if h.BuyPrice != nil {
				pl = sym + ui.FormatPrice((coin.CurrentPrice-*h.BuyPrice)*h.Amount)
				if coin.CurrentPrice >= *h.BuyPrice {
					pl = "+" + pl
				} else {
					pl = "-" + sym + ui.FormatPrice((*h.BuyPrice-coin.CurrentPrice)*h.Amount)
				}
			}
		}
		return fmt.Sprintf(" %s %4s  %-18s %-5s %13s %9s %13s %13s %13s",
			star, rank, name, symbol, price, pctCell(coin.Change24h), amount, value, pl)
	}

	return fmt.Sprintf(" %s %4s  %-18s %-5s %13s %8s %8s %8s %9s %9s",
		star, rank, name, symbol, price,
		pctCell(coin.Change1h), pctCell(coin.Change24h), pctCell(coin.Change7d),
		ui.FormatCompact(coin.TotalVolume), ui.FormatCompact(coin.MarketCap))
}

func pctCell(v *float64) string {
	if v == nil {
		return "-"
	}
	return ui.FormatPercent(*v)
}

func (m *AppModel) statusLine() string {
	if m.Err != "" {
		return m.Styles.Error.Render(m.Err)
	}
	armed := 0
	for _, a := range m.Alerts {
		if !a.Triggered {
			armed++
		}
	}
	if armed > 0 {
		return m.Styles.Dim.Render(fmt.Sprintf("%d alert(s) armed", armed))
	}
	return ""
}

// -- Numeric edit popups --

func (m *AppModel) editPopupView() string {
	coin := m.selectedCoin()
	if coin == nil {
		return m.browsingView("")
	}
	symbol := strings.ToUpper(coin.Symbol)
	cur := ui.CurrencySymbol(m.Cfg.Currency)

	var title, help string
	var extra []string
	switch m.State {
	case StateEditingAmount:
		title = symbol + " amount"
		help = "enter save  esc cancel  (0 deletes the holding)"
	case StateEditingBuyPrice:
		title = symbol + " buy price"
		help = "enter save  esc cancel"
	case StateEditingAlert:
		title = symbol + " price alert"
		direction := "below"
		if m.AlertAbove {
			direction = "above"
		}
		extra = append(extra, m.Styles.Accent.Render("direction: "+direction+"  (tab toggles)"))
		help = "enter save  esc cancel"
	}

	var b strings.Builder
	b.WriteString(m.Styles.Title.Render(title) + "\n\n")
	b.WriteString(m.Styles.Dim.Render(fmt.Sprintf("current price %s%s", cur, ui.FormatPrice(coin.CurrentPrice))) + "\n\n")
	b.WriteString(m.Styles.Input.Render(m.InputBuffer+"│") + "\n")
	for _, line := range extra {
		b.WriteString("\n" + line + "\n")
	}
	b.WriteString("\n" + m.Styles.Dim.Render(help))
	return m.centered(m.Styles.Box.Render(b.String()))
}

// -- Settings --

func (m *AppModel) settingsView() string {
	s := m.Settings

	values := []struct {
		label string
		value string
	}{
		{"Currency", ui.Currencies[s.CurrencyIdx]},
		{"Theme", ui.ThemeNames[s.ThemeIdx]},
		{"Refresh interval (s)", s.RefreshSecs},
		{"Notifications", notify.Methods[s.NotifyIdx]},
		{"ntfy topic", s.NtfyTopic},
		{"CoinGecko API key", maskKey(s.APIKey)},
	}

	var b strings.Builder
	b.WriteString(m.Styles.Title.Render("Settings") + "\n\n")
	for i, field := range values {
		value := field.value
		if s.Editing && i == s.Cursor {
			value = s.Buffer + "│"
			if i == SettingAPIKey {
				value = strings.Repeat("*", len([]rune(s.Buffer))) + "│"
			}
		}
		line := fmt.Sprintf("  %-22s %s", field.label, value)
		if i == s.Cursor {
			b.WriteString(m.Styles.Selected.Render(line))
		} else {
			b.WriteString(m.Styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	if m.Err != "" {
		b.WriteString(m.Styles.Error.Render(m.Err) + "\n")
	}
	if s.Editing {
		b.WriteString(m.Styles.Dim.Render("enter commit  esc cancel  ctrl+v paste"))
	} else {
		b.WriteString(m.Styles.Dim.Render("j/k move  h/l cycle  enter edit  s save  esc discard"))
	}
	return m.centered(m.Styles.Box.Render(b.String()))
}

func maskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	return strings.Repeat("*", len([]rune(key)))
}

// -- Coin search --

func (m *AppModel) searchQueryView() string {
	var b strings.Builder
	b.WriteString(m.Styles.Title.Render("Add coin") + "\n\n")
	b.WriteString(m.Styles.Input.Render(m.SearchInput+"│") + "\n\n")
	if m.Searching {
		b.WriteString(m.Styles.Dim.Render("Searching...") + "\n")
	}
	if m.Err != "" {
		b.WriteString(m.Styles.Error.Render(m.Err) + "\n")
	}
	b.WriteString(m.Styles.Dim.Render("enter search  esc cancel"))
	return m.centered(m.Styles.Box.Render(b.String()))
}

func (m *AppModel) searchResultsView() string {
	var b strings.Builder
	b.WriteString(m.Styles.Title.Render("Results") + "\n\n")
	if len(m.SearchResults) == 0 {
		b.WriteString(m.Styles.Dim.Render("no matches") + "\n")
	}
	for i, result := range m.SearchResults {
		rank := ""
		if result.MarketCapRank != nil {
			rank = fmt.Sprintf("#%d", *result.MarketCapRank)
		}
		line := fmt.Sprintf("  %-24s %-8s %s", ui.Truncate(result.Name, 24), strings.ToUpper(result.Symbol), rank)
		if i == m.SearchCursor {
			b.WriteString(m.Styles.Selected.Render(line))
		} else {
			b.WriteString(m.Styles.Normal.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + m.Styles.Dim.Render("enter add to favourites  esc close"))
	return m.centered(m.Styles.Box.Render(b.String()))
}

// -- Chart popup --

func (m *AppModel) chartView() string {
	idx := m.coinIndex(m.ChartCoinID)
	if idx < 0 {
		return m.browsingView("")
	}
	coin := m.Coins[idx]
	cur := ui.CurrencySymbol(m.Cfg.Currency)

	width := m.Width - 8
	if width < 20 {
		width = 60
	}
	height := m.Height - 14
	if height < 3 {
		height = 6
	}

	var b strings.Builder
	b.WriteString(m.Styles.Title.Render(fmt.Sprintf("%s (%s)  %s", coin.Name, strings.ToUpper(coin.Symbol), rangeLabel(m.ChartDays))) + "\n")
	b.WriteString(m.rangeSelector() + "\n\n")

	prices, cached := m.Charts.Get(m.ChartCoinID, m.ChartDays)
	switch {
	case cached && len(prices) == 0:
		b.WriteString(m.Styles.Dim.Render("no data for this range") + "\n")
	case cached:
		first, last := prices[0], prices[len(prices)-1]
		min, max := prices[0], prices[0]
		for _, p := range prices {
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
		}
		change := 0.0
		if first > 0 {
			change = (last - first) / first * 100
		}
		b.WriteString(fmt.Sprintf("%s  %s  %s\n",
			m.Styles.Normal.Render("Price "+cur+ui.FormatPrice(last)),
			m.changeStyle(&change).Render(ui.FormatPercent(change)),
			m.Styles.Dim.Render(fmt.Sprintf("Lo %s%s  Hi %s%s", cur, ui.FormatPrice(min), cur, ui.FormatPrice(max)))))
		b.WriteString(m.changeStyle(&change).Render(ui.Chart(prices, width, height)) + "\n")
	case m.Charts.Loading(m.ChartCoinID, m.ChartDays):
		b.WriteString(m.Styles.Dim.Render("Loading chart data...") + "\n")
	default:
		b.WriteString(m.Styles.Dim.Render("No data. Press h/l to reload.") + "\n")
	}

	b.WriteString("\n" + m.coinInfo(coin))
	b.WriteString(m.coinAlerts(coin.ID))
	if m.Err != "" {
		b.WriteString(m.Styles.Error.Render(m.Err) + "\n")
	}
	b.WriteString(m.Styles.Dim.Render("h/l range  x remove alert  esc close"))
	return m.centered(m.Styles.Box.Render(b.String()))
}

func rangeLabel(days int) string {
	if days >= 365 {
		return "1y"
	}
	return fmt.Sprintf("%dd", days)
}

func (m *AppModel) rangeSelector() string {
	parts := make([]string, 0, len(ChartRanges))
	for _, days := range ChartRanges {
		label := rangeLabel(days)
		if days == m.ChartDays {
			parts = append(parts, m.Styles.Selected.Render(" "+label+" "))
		} else {
			parts = append(parts, m.Styles.Dim.Render(" "+label+" "))
		}
	}
	return strings.Join(parts, "")
}

func (m *AppModel) coinInfo(coin api.Coin) string {
	cur := ui.CurrencySymbol(m.Cfg.Currency)
	var b strings.Builder

	if coin.High24h != nil && coin.Low24h != nil {
		b.WriteString(m.Styles.Dim.Render(fmt.Sprintf("24h Lo %s%s  Hi %s%s",
			cur, ui.FormatPrice(*coin.Low24h), cur, ui.FormatPrice(*coin.High24h))) + "\n")
	}
	if coin.CirculatingSupply != nil {
		supply := "Supply " + ui.FormatCompact(*coin.CirculatingSupply)
		if coin.MaxSupply != nil && *coin.MaxSupply > 0 {
			supply += " / " + ui.FormatCompact(*coin.MaxSupply)
		}
		b.WriteString(m.Styles.Dim.Render(supply) + "\n")
	}
	if h := m.holdingFor(coin.ID); h != nil {
		line := fmt.Sprintf("Holding %g  Value %s%s", h.Amount, cur, ui.FormatPrice(h.Amount*coin.CurrentPrice))
		if h.BuyPrice != nil {
			line += fmt.Sprintf("  Buy %s%s", cur, ui.FormatPrice(*h.BuyPrice))
		}
		b.WriteString(m.Styles.Accent.Render(line) + "\n")
	}
	return b.String()
}

func (m *AppModel) coinAlerts(coinID string) string {
	var b strings.Builder
	for _, a := range m.Alerts {
		if a.CoinID != coinID {
			continue
		}
		cur := ui.CurrencySymbol(m.Cfg.Currency)
		line := fmt.Sprintf("alert %s %s%s", a.Direction, cur, ui.FormatPrice(a.TargetPrice))
		if a.Triggered {
			b.WriteString(m.Styles.Dim.Render(line+"  (triggered)") + "\n")
		} else {
			b.WriteString(m.Styles.Accent.Render(line) + "\n")
		}
	}
	return b.String()
}

func (m *AppModel) centered(content string) string {
	if m.Width == 0 || m.Height == 0 {
		return content
	}
	return lipgloss.Place(m.Width, m.Height, lipgloss.Center, lipgloss.Center, content)
}
