package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"coindeck/api"
	"coindeck/config"
	"coindeck/notify"
	"coindeck/store"
	"coindeck/ui"
)

const (
	tickInterval = 250 * time.Millisecond
	marketLimit  = 100

	errorDisplay = 10 * time.Second
	flashDisplay = 2 * time.Second
	maxErrorLen  = 80
)

// MarketSource is the market data provider contract. api.Client
// implements it; tests substitute fakes.
type MarketSource interface {
	FetchMarkets(ctx context.Context, limit int) ([]api.Coin, error)
	FetchPriceHistory(ctx context.Context, coinID string, days int) ([]float64, error)
	SearchCoins(ctx context.Context, query string) ([]api.SearchResult, error)
	FetchCoinMarket(ctx context.Context, coinID string) (*api.Coin, error)
	FetchGlobal(ctx context.Context) (api.GlobalStats, error)
	FetchFearGreed(ctx context.Context) (uint, string, error)
}

// Store is the persisted state contract, matched by store.Store.
type Store interface {
	IsFavourite(coinID string) bool
	ToggleFavourite(coinID string) (bool, error)
	Favourites() ([]string, error)
	SetHolding(coinID string, amount float64, buyPrice *float64) error
	SetBuyPrice(coinID string, price float64) error
	Holdings() ([]store.Holding, error)
	AddAlert(coinID string, targetPrice float64, direction string) error
	Alerts() ([]store.Alert, error)
	MarkAlertTriggered(coinID string, targetPrice float64) error
	DeleteAlert(id uint) error
	GetSetting(key string) string
	SetSetting(key, value string) error
	GetSecret(key string) string
	SetSecret(key, value string) error
	Close() error
}

// App states
const (
	StateLocked = iota
	StateConfirmPassword
	StateBrowsing
	StateFiltering
	StateSortPicking
	StateEditingAmount
	StateEditingAlert
	StateEditingBuyPrice
	StateSettings
	StateSearchQuery
	StateSearchResults
	StateChartPopup
)

// Settings fields, in cursor order.
const (
	SettingCurrency = iota
	SettingTheme
	SettingRefresh
	SettingNotify
	SettingNtfyTopic
	SettingAPIKey
	settingFieldCount
)

// Secret setting keys in the encrypted store.
const (
	secretAPIKey       = "coingecko_api_key"
	secretNtfyTopic    = "ntfy_topic"
	settingNotifMethod = "notification_method"
)

// SettingsForm stages edits on the settings screen until saved.
type SettingsForm struct {
	Cursor  int
	Editing bool
	Buffer  string

	CurrencyIdx int
	ThemeIdx    int
	RefreshSecs string
	NotifyIdx   int
	NtfyTopic   string
	APIKey      string
}

type AppModel struct {
	State  int
	Width  int
	Height int

	Cfg       config.Config
	Source    MarketSource
	NewSource func(currency, apiKey string) MarketSource

	// OpenStore opens (or creates) the encrypted store with the entered
	// password; set by main, faked in tests.
	OpenStore   func(password string) (Store, error)
	StoreExists bool
	Session     *Session

	Theme  ui.Theme
	Styles ui.Styles

	PasswordInput string
	passwordFirst string
	Unlocking     bool

	Coins      []api.Coin
	Global     *api.GlobalStats
	Favourites map[string]bool
	Holdings   []store.Holding
	Alerts     []store.Alert

	Tab        int
	Cursor     int
	Scroll     int
	FilterText string
	Sort       SortSpec

	InputBuffer string
	AlertAbove  bool

	Settings SettingsForm

	SearchInput   string
	SearchResults []api.SearchResult
	SearchCursor  int
	Searching     bool

	Charts      *ChartCache
	chartGen    int
	ChartCoinID string
	ChartDays   int

	NotifyMethod notify.Method
	NtfyTopic    string
	APIKey       string

	LastRefresh time.Time
	lastAttempt time.Time
	Refreshing  bool
	Err         string
	errExpiry   time.Time
	Flash       map[string]time.Time

	// Triggered alerts whose store write was skipped under lock
	// contention, keyed by coin id + target. Retried on later ticks;
	// authoritative in memory meanwhile.
	pendingTriggers map[string]bool
}

func NewAppModel(
	cfg config.Config,
	storeExists bool,
	openStore func(password string) (Store, error),
	newSource func(currency, apiKey string) MarketSource,
) *AppModel {
	theme := ui.ThemeByName(cfg.Theme)
	return &AppModel{
		State:           StateLocked,
		Cfg:             cfg,
		NewSource:       newSource,
		Source:          newSource(cfg.Currency, ""),
		OpenStore:       openStore,
		StoreExists:     storeExists,
		Theme:           theme,
		Styles:          ui.NewStyles(theme),
		Favourites:      make(map[string]bool),
		Charts:          NewChartCache(),
		AlertAbove:      true,
		ChartDays:       7,
		Flash:           make(map[string]time.Time),
		pendingTriggers: make(map[string]bool),
	}
}

func (m *AppModel) Init() tea.Cmd {
	return tick()
}

// Messages

type tickMsg time.Time

type unlockedMsg struct {
	store Store
	err   error
}

type refreshMsg struct {
	coins    []api.Coin
	favs     []string
	holdings []store.Holding
	alerts   []store.Alert
	err      error
}

type storeStateMsg struct {
	favs     []string
	holdings []store.Holding
	alerts   []store.Alert
	err      error
}

type globalMsg struct {
	stats api.GlobalStats
	ok    bool
}

type chartMsg struct {
	gen    int
	coinID string
	days   int
	prices []float64
	err    error
}

type searchMsg struct {
	results []api.SearchResult
	err     error
}

type coinAddedMsg struct {
	coin *api.Coin
	err  error
}

// Commands

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *AppModel) unlockCmd(password string) tea.Cmd {
	open := m.OpenStore
	return func() tea.Msg {
		st, err := open(password)
		return unlockedMsg{store: st, err: err}
	}
}

// refreshCmd fetches the market snapshot and re-reads persisted rows in
// one sequenced operation, so the alert pass in Update always sees a
// consistent pair.
func (m *AppModel) refreshCmd() tea.Cmd {
	source := m.Source
	session := m.Session
	return func() tea.Msg {
		coins, err := source.FetchMarkets(context.Background(), marketLimit)
		msg := refreshMsg{coins: coins, err: err}
		if session != nil {
			session.With(func(st Store) error {
				msg.favs, _ = st.Favourites()
				msg.holdings, _ = st.Holdings()
				msg.alerts, _ = st.Alerts()
				return nil
			})
		}
		return msg
	}
}

// writeAndReloadCmd applies a user edit under the blocking store lock
// and reloads the affected row sets.
func (m *AppModel) writeAndReloadCmd(fn func(Store) error) tea.Cmd {
	session := m.Session
	return func() tea.Msg {
		var msg storeStateMsg
		msg.err = session.With(func(st Store) error {
			if err := fn(st); err != nil {
				return err
			}
			msg.favs, _ = st.Favourites()
			msg.holdings, _ = st.Holdings()
			msg.alerts, _ = st.Alerts()
			return nil
		})
		return msg
	}
}

// globalCmd fetches market overview and sentiment. Both are best-effort:
// any failure simply omits the stats.
func (m *AppModel) globalCmd() tea.Cmd {
	source := m.Source
	return func() tea.Msg {
		stats, err := source.FetchGlobal(context.Background())
		if err != nil {
			slog.Warn("global stats fetch failed", "error", err)
			return globalMsg{ok: false}
		}
		if idx, label, err := source.FetchFearGreed(context.Background()); err == nil {
			stats.FearGreedIndex = &idx
			stats.FearGreedLabel = label
		} else {
			slog.Warn("fear & greed fetch failed", "error", err)
		}
		return globalMsg{stats: stats, ok: true}
	}
}

func (m *AppModel) fetchChartCmd(coinID string, days int) tea.Cmd {
	source := m.Source
	gen := m.chartGen
	return func() tea.Msg {
		prices, err := source.FetchPriceHistory(context.Background(), coinID, days)
		return chartMsg{gen: gen, coinID: coinID, days: days, prices: prices, err: err}
	}
}

func (m *AppModel) searchCmd(query string) tea.Cmd {
	source := m.Source
	return func() tea.Msg {
		results, err := source.SearchCoins(context.Background(), query)
		return searchMsg{results: results, err: err}
	}
}

// addCoinCmd favourites a searched coin, fetching its market row so it
// shows up even when outside the snapshot's top ranks.
func (m *AppModel) addCoinCmd(coinID string) tea.Cmd {
	source := m.Source
	session := m.Session
	return func() tea.Msg {
		coin, err := source.FetchCoinMarket(context.Background(), coinID)
		if err != nil {
			return coinAddedMsg{err: err}
		}
		err = session.With(func(st Store) error {
			if !st.IsFavourite(coinID) {
				_, err := st.ToggleFavourite(coinID)
				return err
			}
			return nil
		})
		return coinAddedMsg{coin: coin, err: err}
	}
}

// Update

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.adjustScroll()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case unlockedMsg:
		return m.handleUnlocked(msg)

	case refreshMsg:
		return m.handleRefresh(msg)

	case storeStateMsg:
		if msg.err != nil {
			m.setError("store write failed", msg.err)
			return m, nil
		}
		m.applyStoreState(msg.favs, msg.holdings, msg.alerts)
		m.clampSelection()
		return m, nil

	case globalMsg:
		if msg.ok {
			stats := msg.stats
			m.Global = &stats
		}
		return m, nil

	case chartMsg:
		return m.handleChart(msg)

	case searchMsg:
		m.Searching = false
		if msg.err != nil {
			m.setError("search failed", msg.err)
			return m, nil
		}
		m.SearchResults = msg.results
		m.SearchCursor = 0
		m.State = StateSearchResults
		return m, nil

	case coinAddedMsg:
		if msg.err != nil {
			m.setError("failed to add coin", msg.err)
			return m, nil
		}
		if msg.coin != nil {
			m.Favourites[msg.coin.ID] = true
			if m.coinIndex(msg.coin.ID) < 0 {
				m.Coins = append(m.Coins, *msg.coin)
			}
			m.Tab = TabFavourites
			m.clampSelection()
		}
		return m, nil
	}

	return m, nil
}

// handleTick drives the refresh scheduler, expires transient UI signals,
// and retries skipped alert-trigger writes.
func (m *AppModel) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.Err != "" && now.After(m.errExpiry) {
		m.Err = ""
	}
	for id, expiry := range m.Flash {
		if now.After(expiry) {
			delete(m.Flash, id)
		}
	}
	m.retryPendingTriggers()

	// A failed refresh waits out the full interval before the next try,
	// so the schedule keys off the last attempt, not the last success.
	var cmds []tea.Cmd
	if m.State != StateLocked && m.State != StateConfirmPassword &&
		!m.Refreshing && now.Sub(m.lastAttempt) >= m.refreshInterval() {
		m.Refreshing = true
		m.lastAttempt = now
		cmds = append(cmds, m.refreshCmd())
	}
	cmds = append(cmds, tick())
	return m, tea.Batch(cmds...)
}

func (m *AppModel) startRefresh() {
	m.Refreshing = true
	m.lastAttempt = time.Now()
}

func (m *AppModel) refreshInterval() time.Duration {
	secs := m.Cfg.RefreshIntervalSecs
	if secs < 30 {
		secs = 30
	}
	return time.Duration(secs) * time.Second
}

func (m *AppModel) handleUnlocked(msg unlockedMsg) (tea.Model, tea.Cmd) {
	m.Unlocking = false
	m.PasswordInput = ""
	m.passwordFirst = ""
	if msg.err != nil {
		if errors.Is(msg.err, store.ErrWrongPassword) {
			m.setError("wrong password", msg.err)
		} else {
			m.setError("failed to open store", msg.err)
		}
		m.State = StateLocked
		return m, nil
	}

	m.Session = NewSession(msg.store)
	m.loadSecrets()
	m.State = StateBrowsing
	m.startRefresh()
	return m, tea.Batch(m.refreshCmd(), m.globalCmd())
}

// loadSecrets reads the encrypted settings and rebuilds the market
// client when an API key is present.
func (m *AppModel) loadSecrets() {
	m.Session.With(func(st Store) error {
		m.APIKey = st.GetSecret(secretAPIKey)
		m.NtfyTopic = st.GetSecret(secretNtfyTopic)
		m.NotifyMethod = notify.MethodFromString(st.GetSetting(settingNotifMethod))
		return nil
	})
	if m.APIKey != "" {
		m.Source = m.NewSource(m.Cfg.Currency, m.APIKey)
	}
}

func (m *AppModel) handleRefresh(msg refreshMsg) (tea.Model, tea.Cmd) {
	m.Refreshing = false
	if msg.err != nil {
		// Keep the last good snapshot on failure.
		m.setError("refresh failed", msg.err)
		return m, nil
	}

	m.Coins = msg.coins
	m.applyStoreState(msg.favs, msg.holdings, msg.alerts)
	m.LastRefresh = time.Now()
	m.clampSelection()
	cmd := m.evaluateAlerts()
	return m, tea.Batch(cmd, m.globalCmd())
}

func (m *AppModel) handleChart(msg chartMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.chartGen {
		// Stale result from before a currency change; drop the series
		// but release the in-flight flag for the pair.
		m.Charts.FinishLoading(msg.coinID, msg.days, nil, false)
		return m, nil
	}
	if msg.err != nil {
		m.Charts.FinishLoading(msg.coinID, msg.days, nil, false)
		if m.State == StateChartPopup {
			m.setError("chart fetch failed", msg.err)
		}
		return m, nil
	}
	m.Charts.FinishLoading(msg.coinID, msg.days, msg.prices, true)
	return m, nil
}

// applyStoreState swaps in freshly read rows, reapplying in-memory
// trigger flags whose persistence is still pending.
func (m *AppModel) applyStoreState(favs []string, holdings []store.Holding, alerts []store.Alert) {
	m.Favourites = make(map[string]bool, len(favs))
	for _, id := range favs {
		m.Favourites[id] = true
	}
	m.Holdings = holdings
	m.Alerts = alerts
	for i := range m.Alerts {
		if m.pendingTriggers[alertKey(m.Alerts[i].CoinID, m.Alerts[i].TargetPrice)] {
			m.Alerts[i].Triggered = true
		}
	}
}

func (m *AppModel) coinIndex(coinID string) int {
	for i := range m.Coins {
		if m.Coins[i].ID == coinID {
			return i
		}
	}
	return -1
}

func (m *AppModel) selectedCoin() *api.Coin {
	visible := m.VisibleCoins()
	if m.Cursor < 0 || m.Cursor >= len(visible) {
		return nil
	}
	coin := visible[m.Cursor].Coin
	return &coin
}

func (m *AppModel) holdingFor(coinID string) *store.Holding {
	for i := range m.Holdings {
		if m.Holdings[i].CoinID == coinID {
			return &m.Holdings[i]
		}
	}
	return nil
}

// clampSelection keeps cursor and scroll inside the current visible
// list, which shrinks and grows as snapshots, tabs and filters change.
func (m *AppModel) clampSelection() {
	n := len(m.VisibleCoins())
	if m.Cursor >= n {
		m.Cursor = n - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	m.adjustScroll()
}

func (m *AppModel) adjustScroll() {
	rows := m.tableRows()
	if rows <= 0 {
		return
	}
	if m.Cursor < m.Scroll {
		m.Scroll = m.Cursor
	}
	if m.Cursor >= m.Scroll+rows {
		m.Scroll = m.Cursor - rows + 1
	}
	if m.Scroll < 0 {
		m.Scroll = 0
	}
}

// setError shows a truncated, auto-expiring message and logs the full
// error.
func (m *AppModel) setError(context string, err error) {
	slog.Error(context, "error", err)
	m.setErrorText(fmt.Sprintf("%s: %v", context, err))
}

func (m *AppModel) setErrorText(text string) {
	m.Err = ui.Truncate(text, maxErrorLen)
	m.errExpiry = time.Now().Add(errorDisplay)
}

func (m *AppModel) setTheme(name string) {
	m.Theme = ui.ThemeByName(name)
	m.Styles = ui.NewStyles(m.Theme)
}

// applyCurrencyChange rebuilds the market client and drops every cached
// chart series, which is denominated in the old currency.
func (m *AppModel) applyCurrencyChange() {
	m.Source = m.NewSource(m.Cfg.Currency, m.APIKey)
	m.Charts.Purge()
	m.chartGen++
	m.Global = nil
}
