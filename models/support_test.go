package models

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"coindeck/api"
	"coindeck/config"
	"coindeck/logging"
	"coindeck/store"
)

var errFake = errors.New("provider unavailable")

// fakeSource is an in-memory MarketSource with call counters.
type fakeSource struct {
	coins  []api.Coin
	series map[string][]float64

	marketCalls int
	seriesCalls int
	searchCalls int

	results []api.SearchResult
	single  *api.Coin
	err     error
}

func (f *fakeSource) FetchMarkets(_ context.Context, limit int) ([]api.Coin, error) {
	f.marketCalls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.coins) > limit {
		return f.coins[:limit], nil
	}
	return f.coins, nil
}

func (f *fakeSource) FetchPriceHistory(_ context.Context, coinID string, days int) ([]float64, error) {
	f.seriesCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.series[fmt.Sprintf("%s/%d", coinID, days)], nil
}

func (f *fakeSource) SearchCoins(context.Context, string) ([]api.SearchResult, error) {
	f.searchCalls++
	return f.results, f.err
}

func (f *fakeSource) FetchCoinMarket(context.Context, string) (*api.Coin, error) {
	return f.single, f.err
}

func (f *fakeSource) FetchGlobal(context.Context) (api.GlobalStats, error) {
	return api.GlobalStats{}, f.err
}

func (f *fakeSource) FetchFearGreed(context.Context) (uint, string, error) {
	return 0, "", f.err
}

// fakeStore is an in-memory Store.
type fakeStore struct {
	favourites map[string]bool
	holdings   map[string]store.Holding
	alerts     []store.Alert
	settings   map[string]string
	secrets    map[string]string
	nextID     uint

	triggerCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		favourites: make(map[string]bool),
		holdings:   make(map[string]store.Holding),
		settings:   make(map[string]string),
		secrets:    make(map[string]string),
		nextID:     1,
	}
}

func (f *fakeStore) IsFavourite(coinID string) bool { return f.favourites[coinID] }

func (f *fakeStore) ToggleFavourite(coinID string) (bool, error) {
	if f.favourites[coinID] {
		delete(f.favourites, coinID)
		return false, nil
	}
	f.favourites[coinID] = true
	return true, nil
}

func (f *fakeStore) Favourites() ([]string, error) {
	out := make([]string, 0, len(f.favourites))
	for id := range f.favourites {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) SetHolding(coinID string, amount float64, buyPrice *float64) error {
	if amount <= 0 {
		delete(f.holdings, coinID)
		return nil
	}
	h, ok := f.holdings[coinID]
	h.CoinID = coinID
	h.Amount = amount
	if !ok || h.BuyPrice == nil {
		h.BuyPrice = buyPrice
	}
	f.holdings[coinID] = h
	return nil
}

func (f *fakeStore) SetBuyPrice(coinID string, price float64) error {
	h := f.holdings[coinID]
	h.CoinID = coinID
	h.BuyPrice = &price
	f.holdings[coinID] = h
	return nil
}

func (f *fakeStore) Holdings() ([]store.Holding, error) {
	out := make([]store.Holding, 0, len(f.holdings))
	for _, h := range f.holdings {
		if h.Amount > 0 {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CoinID < out[j].CoinID })
	return out, nil
}

func (f *fakeStore) AddAlert(coinID string, targetPrice float64, direction string) error {
	f.alerts = append(f.alerts, store.Alert{
		ID: f.nextID, CoinID: coinID, TargetPrice: targetPrice, Direction: direction,
	})
	f.nextID++
	return nil
}

func (f *fakeStore) Alerts() ([]store.Alert, error) {
	out := make([]store.Alert, len(f.alerts))
	copy(out, f.alerts)
	return out, nil
}

func (f *fakeStore) MarkAlertTriggered(coinID string, targetPrice float64) error {
	f.triggerCalls++
	for i := range f.alerts {
		if f.alerts[i].CoinID == coinID && f.alerts[i].TargetPrice == targetPrice {
			f.alerts[i].Triggered = true
		}
	}
	return nil
}

func (f *fakeStore) DeleteAlert(id uint) error {
	for i := range f.alerts {
		if f.alerts[i].ID == id {
			f.alerts = append(f.alerts[:i], f.alerts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) GetSetting(key string) string { return f.settings[key] }

func (f *fakeStore) SetSetting(key, value string) error {
	if value == "" {
		delete(f.settings, key)
		return nil
	}
	f.settings[key] = value
	return nil
}

func (f *fakeStore) GetSecret(key string) string { return f.secrets[key] }

func (f *fakeStore) SetSecret(key, value string) error {
	if value == "" {
		delete(f.secrets, key)
		return nil
	}
	f.secrets[key] = value
	return nil
}

func (f *fakeStore) Close() error { return nil }

func fptr(v float64) *float64 { return &v }

func uptr(v uint) *uint { return &v }

func testCoins() []api.Coin {
	return []api.Coin{
		{ID: "btc", Name: "Bitcoin", Symbol: "btc", CurrentPrice: 50000, MarketCap: 9e11, TotalVolume: 3e10, MarketCapRank: uptr(1), Change24h: fptr(1.5)},
		{ID: "eth", Name: "Ethereum", Symbol: "eth", CurrentPrice: 3000, MarketCap: 4e11, TotalVolume: 2e10, MarketCapRank: uptr(2), Change24h: fptr(-0.5)},
		{ID: "doge", Name: "Dogecoin", Symbol: "doge", CurrentPrice: 0.2, MarketCap: 3e10, TotalVolume: 1e9, MarketCapRank: uptr(3), Change24h: fptr(1.5)},
	}
}

// newTestModel builds an unlocked model over fakes, skipping the
// password flow.
func newTestModel(t *testing.T, source *fakeSource, st *fakeStore) *AppModel {
	t.Helper()
	logging.Discard()

	m := NewAppModel(config.Default(), true,
		func(string) (Store, error) { return st, nil },
		func(string, string) MarketSource { return source },
	)
	m.Source = source
	m.Session = NewSession(st)
	m.State = StateBrowsing
	m.Coins = source.coins
	m.Width = 120
	m.Height = 40

	favs, _ := st.Favourites()
	holdings, _ := st.Holdings()
	alerts, _ := st.Alerts()
	m.applyStoreState(favs, holdings, alerts)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func press(m *AppModel, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.handleKey(key(k))
	}
	return cmd
}
