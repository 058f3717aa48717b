package models

import (
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"coindeck/notify"
	"coindeck/ui"
)

func (m *AppModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.State {
	case StateLocked:
		return m.handleLockedKeys(msg)
	case StateConfirmPassword:
		return m.handleConfirmKeys(msg)
	case StateBrowsing:
		return m.handleBrowsingKeys(msg)
	case StateFiltering:
		return m.handleFilteringKeys(msg)
	case StateSortPicking:
		return m.handleSortPickingKeys(msg)
	case StateEditingAmount, StateEditingAlert, StateEditingBuyPrice:
		return m.handleEditingKeys(msg)
	case StateSettings:
		return m.handleSettingsKeys(msg)
	case StateSearchQuery:
		return m.handleSearchQueryKeys(msg)
	case StateSearchResults:
		return m.handleSearchResultsKeys(msg)
	case StateChartPopup:
		return m.handleChartKeys(msg)
	}
	return m, nil
}

// -- Password entry --

func (m *AppModel) handleLockedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Unlocking {
		return m, nil
	}
	switch msg.String() {
	case "enter":
		if m.PasswordInput == "" {
			return m, nil
		}
		if m.StoreExists {
			m.Unlocking = true
			return m, m.unlockCmd(m.PasswordInput)
		}
		// New store: ask for the password twice before creating it.
		m.passwordFirst = m.PasswordInput
		m.PasswordInput = ""
		m.State = StateConfirmPassword
		return m, nil
	case "esc":
		return m, tea.Quit
	case "backspace":
		m.PasswordInput = trimLastRune(m.PasswordInput)
		return m, nil
	case "ctrl+v":
		if text, err := clipboard.ReadAll(); err == nil {
			m.PasswordInput += strings.TrimSpace(text)
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.PasswordInput += string(msg.Runes)
	}
	return m, nil
}

func (m *AppModel) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.Unlocking {
		return m, nil
	}
	switch msg.String() {
	case "enter":
		if m.PasswordInput != m.passwordFirst {
			m.setErrorText("passwords do not match")
			m.PasswordInput = ""
			m.passwordFirst = ""
			m.State = StateLocked
			return m, nil
		}
		m.Unlocking = true
		return m, m.unlockCmd(m.passwordFirst)
	case "esc":
		m.PasswordInput = ""
		m.passwordFirst = ""
		m.State = StateLocked
		return m, nil
	case "backspace":
		m.PasswordInput = trimLastRune(m.PasswordInput)
		return m, nil
	case "ctrl+v":
		if text, err := clipboard.ReadAll(); err == nil {
			m.PasswordInput += strings.TrimSpace(text)
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.PasswordInput += string(msg.Runes)
	}
	return m, nil
}

// -- Browsing --

func (m *AppModel) handleBrowsingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		if m.FilterText != "" {
			m.FilterText = ""
			m.clampSelection()
			return m, nil
		}
		return m, tea.Quit
	case "esc":
		if m.FilterText != "" {
			m.FilterText = ""
			m.clampSelection()
		}
		return m, nil

	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.Cursor = 0
		m.adjustScroll()
	case "G", "end":
		m.Cursor = len(m.VisibleCoins()) - 1
		m.clampSelection()
	case "ctrl+d", "pgdown":
		m.moveCursor(m.tableRows() / 2)
	case "ctrl+u", "pgup":
		m.moveCursor(-m.tableRows() / 2)

	case "tab":
		m.switchTab((m.Tab + 1) % len(tabNames))
	case "shift+tab":
		m.switchTab((m.Tab + len(tabNames) - 1) % len(tabNames))
	case "1":
		m.switchTab(TabMarkets)
	case "2":
		m.switchTab(TabFavourites)
	case "3":
		m.switchTab(TabPortfolio)

	case "/":
		m.State = StateFiltering
	case "s":
		m.State = StateSortPicking
	case "S":
		m.openSettings()
	case "n":
		m.SearchInput = ""
		m.SearchResults = nil
		m.State = StateSearchQuery

	case "r":
		if !m.Refreshing {
			m.startRefresh()
			return m, m.refreshCmd()
		}

	case "f":
		if coin := m.selectedCoin(); coin != nil {
			id := coin.ID
			return m, m.writeAndReloadCmd(func(st Store) error {
				_, err := st.ToggleFavourite(id)
				return err
			})
		}

	case "a":
		if coin := m.selectedCoin(); coin != nil {
			m.InputBuffer = ""
			if h := m.holdingFor(coin.ID); h != nil {
				m.InputBuffer = strconv.FormatFloat(h.Amount, 'f', -1, 64)
			}
			m.State = StateEditingAmount
		}
	case "b":
		if coin := m.selectedCoin(); coin != nil {
			m.InputBuffer = ""
			if h := m.holdingFor(coin.ID); h != nil && h.BuyPrice != nil {
				m.InputBuffer = strconv.FormatFloat(*h.BuyPrice, 'f', -1, 64)
			}
			m.State = StateEditingBuyPrice
		}
	case "A":
		if m.selectedCoin() != nil {
			m.InputBuffer = ""
			m.AlertAbove = true
			m.State = StateEditingAlert
		}
	case "d":
		if coin := m.selectedCoin(); coin != nil && m.holdingFor(coin.ID) != nil {
			id := coin.ID
			return m, m.writeAndReloadCmd(func(st Store) error {
				return st.SetHolding(id, 0, nil)
			})
		}

	case "enter", "c":
		if coin := m.selectedCoin(); coin != nil {
			m.ChartCoinID = coin.ID
			m.State = StateChartPopup
			return m, m.openChartCmd()
		}
	}
	return m, nil
}

func (m *AppModel) moveCursor(delta int) {
	m.Cursor += delta
	m.clampSelection()
}

func (m *AppModel) switchTab(tab int) {
	m.Tab = tab
	m.Cursor = 0
	m.Scroll = 0
}

// -- Filter entry --

func (m *AppModel) handleFilteringKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.State = StateBrowsing
		return m, nil
	case "esc":
		m.FilterText = ""
		m.State = StateBrowsing
		m.clampSelection()
		return m, nil
	case "backspace":
		m.FilterText = trimLastRune(m.FilterText)
		m.clampSelection()
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.FilterText += string(msg.Runes)
		m.Cursor = 0
		m.Scroll = 0
	}
	return m, nil
}

// -- Sort picker --

// One-shot overlay: the next keypress either picks a column or cancels.
func (m *AppModel) handleSortPickingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.State = StateBrowsing
	column, ok := sortColumnForKey(msg.String())
	if ok {
		m.Sort = m.Sort.Toggle(column)
	}
	return m, nil
}

func sortColumnForKey(key string) (int, bool) {
	switch key {
	case "r":
		return SortRank, true
	case "n":
		return SortName, true
	case "p":
		return SortPrice, true
	case "1":
		return SortChange1h, true
	case "2":
		return SortChange24h, true
	case "7":
		return SortChange7d, true
	case "v":
		return SortVolume, true
	case "m":
		return SortMarketCap, true
	}
	return 0, false
}

// -- Numeric editors (amount, alert target, buy price) --

func (m *AppModel) handleEditingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.InputBuffer = ""
		m.State = StateBrowsing
		return m, nil
	case "backspace":
		m.InputBuffer = trimLastRune(m.InputBuffer)
		return m, nil
	case "tab", "up", "down":
		if m.State == StateEditingAlert {
			m.AlertAbove = !m.AlertAbove
		}
		return m, nil
	case "enter":
		return m.submitEdit()
	}
	if msg.Type == tea.KeyRunes {
		for _, r := range msg.Runes {
			if r >= '0' && r <= '9' {
				m.InputBuffer += string(r)
			} else if r == '.' && !strings.Contains(m.InputBuffer, ".") {
				m.InputBuffer += "."
			}
			// Anything else never enters the buffer.
		}
	}
	return m, nil
}

func (m *AppModel) submitEdit() (tea.Model, tea.Cmd) {
	state := m.State
	buffer := m.InputBuffer
	m.InputBuffer = ""
	m.State = StateBrowsing

	coin := m.selectedCoin()
	if coin == nil {
		return m, nil
	}
	value, err := strconv.ParseFloat(buffer, 64)
	if err != nil {
		// Unparseable submission leaves state untouched.
		return m, nil
	}
	id := coin.ID

	switch state {
	case StateEditingAmount:
		price := coin.CurrentPrice
		return m, m.writeAndReloadCmd(func(st Store) error {
			return st.SetHolding(id, value, &price)
		})
	case StateEditingBuyPrice:
		return m, m.writeAndReloadCmd(func(st Store) error {
			return st.SetBuyPrice(id, value)
		})
	case StateEditingAlert:
		direction := "below"
		if m.AlertAbove {
			direction = "above"
		}
		return m, m.writeAndReloadCmd(func(st Store) error {
			return st.AddAlert(id, value, direction)
		})
	}
	return m, nil
}

// -- Settings --

func (m *AppModel) openSettings() {
	m.Settings = SettingsForm{
		CurrencyIdx: indexOf(ui.Currencies, m.Cfg.Currency),
		ThemeIdx:    indexOf(ui.ThemeNames, m.Cfg.Theme),
		RefreshSecs: strconv.FormatUint(m.Cfg.RefreshIntervalSecs, 10),
		NotifyIdx:   int(m.NotifyMethod),
		NtfyTopic:   m.NtfyTopic,
		APIKey:      m.APIKey,
	}
	m.State = StateSettings
}

func (m *AppModel) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	s := &m.Settings

	if s.Editing {
		switch msg.String() {
		case "enter":
			m.commitSettingsBuffer()
			return m, nil
		case "esc":
			s.Editing = false
			s.Buffer = ""
			return m, nil
		case "backspace":
			s.Buffer = trimLastRune(s.Buffer)
			return m, nil
		case "ctrl+v":
			if text, err := clipboard.ReadAll(); err == nil {
				s.Buffer += strings.TrimSpace(text)
			}
			return m, nil
		}
		if msg.Type == tea.KeyRunes {
			s.Buffer += string(msg.Runes)
		}
		return m, nil
	}

	switch msg.String() {
	case "esc", "q":
		// Leave without saving; undo the live theme preview.
		m.setTheme(m.Cfg.Theme)
		m.State = StateBrowsing
		return m, nil
	case "j", "down":
		s.Cursor = (s.Cursor + 1) % settingFieldCount
	case "k", "up":
		s.Cursor = (s.Cursor + settingFieldCount - 1) % settingFieldCount
	case "h", "left":
		m.cycleSetting(-1)
	case "l", "right":
		m.cycleSetting(1)
	case "enter":
		switch s.Cursor {
		case SettingRefresh:
			s.Editing = true
			s.Buffer = s.RefreshSecs
		case SettingNtfyTopic:
			s.Editing = true
			s.Buffer = s.NtfyTopic
		case SettingAPIKey:
			s.Editing = true
			s.Buffer = s.APIKey
		default:
			m.cycleSetting(1)
		}
	case "s":
		return m, m.saveSettings()
	}
	return m, nil
}

func (m *AppModel) cycleSetting(delta int) {
	s := &m.Settings
	switch s.Cursor {
	case SettingCurrency:
		s.CurrencyIdx = cycleIndex(s.CurrencyIdx, delta, len(ui.Currencies))
	case SettingTheme:
		s.ThemeIdx = cycleIndex(s.ThemeIdx, delta, len(ui.ThemeNames))
		// Live preview, reverted on Esc.
		m.setTheme(ui.ThemeNames[s.ThemeIdx])
	case SettingNotify:
		s.NotifyIdx = cycleIndex(s.NotifyIdx, delta, len(notify.Methods))
	}
}

func (m *AppModel) commitSettingsBuffer() {
	s := &m.Settings
	switch s.Cursor {
	case SettingRefresh:
		s.RefreshSecs = s.Buffer
	case SettingNtfyTopic:
		s.NtfyTopic = strings.TrimSpace(s.Buffer)
	case SettingAPIKey:
		s.APIKey = strings.TrimSpace(s.Buffer)
	}
	s.Editing = false
	s.Buffer = ""
}

func (m *AppModel) saveSettings() tea.Cmd {
	s := m.Settings

	oldCurrency := m.Cfg.Currency
	m.Cfg.Currency = ui.Currencies[s.CurrencyIdx]
	m.Cfg.Theme = ui.ThemeNames[s.ThemeIdx]
	if secs, err := strconv.ParseUint(s.RefreshSecs, 10, 64); err == nil {
		m.Cfg.RefreshIntervalSecs = secs
	}
	m.Cfg.Clamp()
	if err := m.Cfg.Save(); err != nil {
		m.setError("failed to save config", err)
	}

	m.NotifyMethod = notify.Method(s.NotifyIdx)
	m.NtfyTopic = s.NtfyTopic
	apiKeyChanged := m.APIKey != s.APIKey
	m.APIKey = s.APIKey

	m.setTheme(m.Cfg.Theme)
	m.State = StateBrowsing

	var cmds []tea.Cmd
	method := m.NotifyMethod.String()
	topic := m.NtfyTopic
	apiKey := m.APIKey
	cmds = append(cmds, m.writeAndReloadCmd(func(st Store) error {
		if err := st.SetSecret(secretAPIKey, apiKey); err != nil {
			return err
		}
		if err := st.SetSecret(secretNtfyTopic, topic); err != nil {
			return err
		}
		return st.SetSetting(settingNotifMethod, method)
	}))

	if m.Cfg.Currency != oldCurrency || apiKeyChanged {
		m.applyCurrencyChange()
		m.startRefresh()
		cmds = append(cmds, m.refreshCmd(), m.globalCmd())
	}
	return tea.Batch(cmds...)
}

// -- Coin search --

func (m *AppModel) handleSearchQueryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.State = StateBrowsing
		return m, nil
	case "enter":
		query := strings.TrimSpace(m.SearchInput)
		if query == "" || m.Searching {
			return m, nil
		}
		m.Searching = true
		return m, m.searchCmd(query)
	case "backspace":
		m.SearchInput = trimLastRune(m.SearchInput)
		return m, nil
	case "ctrl+v":
		if text, err := clipboard.ReadAll(); err == nil {
			m.SearchInput += strings.TrimSpace(text)
		}
		return m, nil
	}
	if msg.Type == tea.KeyRunes {
		m.SearchInput += string(msg.Runes)
	}
	return m, nil
}

func (m *AppModel) handleSearchResultsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		m.State = StateBrowsing
		return m, nil
	case "j", "down":
		if m.SearchCursor < len(m.SearchResults)-1 {
			m.SearchCursor++
		}
		return m, nil
	case "k", "up":
		if m.SearchCursor > 0 {
			m.SearchCursor--
		}
		return m, nil
	case "enter":
		if m.SearchCursor < len(m.SearchResults) {
			id := m.SearchResults[m.SearchCursor].ID
			m.State = StateBrowsing
			return m, m.addCoinCmd(id)
		}
		return m, nil
	}
	return m, nil
}

// -- Chart popup --

// openChartCmd consults the cache first: a cached pair or one already in
// flight never starts a second fetch.
func (m *AppModel) openChartCmd() tea.Cmd {
	if !m.Charts.StartLoading(m.ChartCoinID, m.ChartDays) {
		return nil
	}
	return m.fetchChartCmd(m.ChartCoinID, m.ChartDays)
}

func (m *AppModel) handleChartKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		m.State = StateBrowsing
		return m, nil
	case "h", "left":
		return m.switchChartRange(-1)
	case "l", "right":
		return m.switchChartRange(1)
	case "x":
		// Remove the oldest alert for this coin.
		for _, a := range m.Alerts {
			if a.CoinID == m.ChartCoinID {
				id := a.ID
				return m, m.writeAndReloadCmd(func(st Store) error {
					return st.DeleteAlert(id)
				})
			}
		}
		return m, nil
	}
	return m, nil
}

func (m *AppModel) switchChartRange(delta int) (tea.Model, tea.Cmd) {
	idx := 0
	for i, d := range ChartRanges {
		if d == m.ChartDays {
			idx = i
			break
		}
	}
	m.ChartDays = ChartRanges[cycleIndex(idx, delta, len(ChartRanges))]
	return m, m.openChartCmd()
}

// -- Mouse --

func (m *AppModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.State != StateBrowsing {
		return m, nil
	}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.moveCursor(-1)
	case msg.Button == tea.MouseButtonWheelDown:
		m.moveCursor(1)
	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		if msg.Y == tabBarLine {
			if tab, ok := tabAt(msg.X); ok {
				m.switchTab(tab)
			}
			return m, nil
		}
		row := msg.Y - tableTopLine
		if row >= 0 && row < m.tableRows() {
			target := m.Scroll + row
			if target < len(m.VisibleCoins()) {
				m.Cursor = target
			}
		}
	}
	return m, nil
}

// -- Small helpers --

func trimLastRune(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return string(runes[:len(runes)-1])
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return 0
}

func cycleIndex(idx, delta, n int) int {
	return (idx + delta + n) % n
}
