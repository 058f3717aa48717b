package models

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"coindeck/notify"
	"coindeck/ui"
)

func alertKey(coinID string, target float64) string {
	return fmt.Sprintf("%s@%g", coinID, target)
}

// evaluateAlerts runs one alert pass over the current snapshot. An alert
// fires at most once: the in-memory flag flips before any side effect,
// so a second pass over the same snapshot is a no-op. Persistence is
// best-effort under TryLock; a skipped write is retried on later ticks.
func (m *AppModel) evaluateAlerts() tea.Cmd {
	var cmds []tea.Cmd
	for i := range m.Alerts {
		alert := &m.Alerts[i]
		if alert.Triggered {
			continue
		}
		idx := m.coinIndex(alert.CoinID)
		if idx < 0 {
			continue
		}
		price := m.Coins[idx].CurrentPrice

		fired := false
		switch alert.Direction {
		case "above":
			fired = price >= alert.TargetPrice
		case "below":
			fired = price <= alert.TargetPrice
		}
		if !fired {
			continue
		}

		alert.Triggered = true
		m.Flash[alert.CoinID] = time.Now().Add(flashDisplay)
		ringBell()

		coin := m.Coins[idx]
		title := fmt.Sprintf("%s alert", coin.Name)
		body := fmt.Sprintf("%s is %s %s%s (now %s%s)",
			coin.Name, alert.Direction,
			ui.CurrencySymbol(m.Cfg.Currency), ui.FormatPrice(alert.TargetPrice),
			ui.CurrencySymbol(m.Cfg.Currency), ui.FormatPrice(price),
		)
		cmds = append(cmds, m.notifyCmd(title, body))

		key := alertKey(alert.CoinID, alert.TargetPrice)
		m.pendingTriggers[key] = true
		m.persistTrigger(alert.CoinID, alert.TargetPrice, key)
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// persistTrigger attempts the non-blocking trigger write and clears the
// retry bit on success.
func (m *AppModel) persistTrigger(coinID string, target float64, key string) {
	if m.Session == nil {
		return
	}
	ok := m.Session.TryWith(func(st Store) error {
		return st.MarkAlertTriggered(coinID, target)
	})
	if ok {
		delete(m.pendingTriggers, key)
	}
}

func (m *AppModel) retryPendingTriggers() {
	for key := range m.pendingTriggers {
		found := false
		for i := range m.Alerts {
			if alertKey(m.Alerts[i].CoinID, m.Alerts[i].TargetPrice) == key {
				found = true
				m.persistTrigger(m.Alerts[i].CoinID, m.Alerts[i].TargetPrice, key)
				break
			}
		}
		if !found {
			delete(m.pendingTriggers, key)
		}
	}
}

// notifyCmd delivers the notification off the update loop. Fire and
// forget: failures are logged inside notify, never surfaced here.
func (m *AppModel) notifyCmd(title, body string) tea.Cmd {
	method := m.NotifyMethod
	topic := m.NtfyTopic
	return func() tea.Msg {
		notify.Send(method, topic, title, body)
		return nil
	}
}

func ringBell() {
	os.Stdout.WriteString("\a")
}
