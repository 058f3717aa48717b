package models

import (
	"sort"
	"strings"

	"coindeck/api"
)

// Tabs
const (
	TabMarkets = iota
	TabFavourites
	TabPortfolio
)

var tabNames = []string{"Markets", "Favourites", "Portfolio"}

// Sort columns
const (
	SortRank = iota
	SortName
	SortPrice
	SortChange1h
	SortChange24h
	SortChange7d
	SortVolume
	SortMarketCap
)

// Sort directions
const (
	SortUnset = iota
	SortAsc
	SortDesc
)

// SortSpec is the active sort column and direction. Dir SortUnset means
// provider order (market cap descending by construction).
type SortSpec struct {
	Column int
	Dir    int
}

// Toggle advances the sort spec for a picked column: picking the same column
// cycles unset, ascending, descending, unset; picking a different column
// restarts at ascending.
func (s SortSpec) Toggle(column int) SortSpec {
	if s.Dir == SortUnset || s.Column != column {
		return SortSpec{Column: column, Dir: SortAsc}
	}
	if s.Dir == SortAsc {
		return SortSpec{Column: column, Dir: SortDesc}
	}
	return SortSpec{}
}

// VisibleCoin pairs a snapshot row with its index in the full snapshot,
// so edits address the authoritative list rather than the derived view.
type VisibleCoin struct {
	Index int
	Coin  api.Coin
}

// VisibleCoins derives the rows to display: tab scope, then
// case-insensitive filter, then stable sort. Recomputed on every draw;
// never mutates the model.
func (m *AppModel) VisibleCoins() []VisibleCoin {
	visible := make([]VisibleCoin, 0, len(m.Coins))

	filter := strings.ToLower(m.FilterText)
	for i, coin := range m.Coins {
		switch m.Tab {
		case TabFavourites:
			if !m.Favourites[coin.ID] && !m.hasHolding(coin.ID) {
				continue
			}
		case TabPortfolio:
			if !m.hasHolding(coin.ID) {
				continue
			}
		}
		if filter != "" {
			name := strings.ToLower(coin.Name)
			symbol := strings.ToLower(coin.Symbol)
			if !strings.Contains(name, filter) && !strings.Contains(symbol, filter) {
				continue
			}
		}
		visible = append(visible, VisibleCoin{Index: i, Coin: coin})
	}

	if m.Sort.Dir != SortUnset {
		sortVisible(visible, m.Sort)
	}
	return visible
}

func (m *AppModel) hasHolding(coinID string) bool {
	for _, h := range m.Holdings {
		if h.CoinID == coinID && h.Amount > 0 {
			return true
		}
	}
	return false
}

func sortVisible(visible []VisibleCoin, spec SortSpec) {
	less := columnLess(spec.Column)
	sort.SliceStable(visible, func(i, j int) bool {
		a, b := visible[i].Coin, visible[j].Coin
		if spec.Dir == SortDesc {
			return less(b, a)
		}
		return less(a, b)
	})
}

func columnLess(column int) func(a, b api.Coin) bool {
	switch column {
	case SortRank:
		return func(a, b api.Coin) bool { return lessOptUint(a.MarketCapRank, b.MarketCapRank) }
	case SortName:
		return func(a, b api.Coin) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortPrice:
		return func(a, b api.Coin) bool { return lessFloat(a.CurrentPrice, b.CurrentPrice) }
	case SortChange1h:
		return func(a, b api.Coin) bool { return lessOptFloat(a.Change1h, b.Change1h) }
	case SortChange24h:
		return func(a, b api.Coin) bool { return lessOptFloat(a.Change24h, b.Change24h) }
	case SortChange7d:
		return func(a, b api.Coin) bool { return lessOptFloat(a.Change7d, b.Change7d) }
	case SortVolume:
		return func(a, b api.Coin) bool { return lessFloat(a.TotalVolume, b.TotalVolume) }
	default:
		return func(a, b api.Coin) bool { return lessFloat(a.MarketCap, b.MarketCap) }
	}
}

// lessFloat orders numbers with NaN treated as equal weight, so a bad
// value never panics the sort or sinks the whole list.
func lessFloat(a, b float64) bool {
	if a != a || b != b {
		return false
	}
	return a < b
}

func lessOptFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return false
	}
	return lessFloat(*a, *b)
}

func lessOptUint(a, b *uint) bool {
	if a == nil || b == nil {
		return false
	}
	return *a < *b
}
