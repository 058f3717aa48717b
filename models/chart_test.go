package models

import (
	"testing"
)

func TestChartCache(t *testing.T) {
	t.Run("fetches once per pair", func(t *testing.T) {
		source := &fakeSource{
			coins:  testCoins(),
			series: map[string][]float64{"btc/7": {1, 2, 3}},
		}
		m := newTestModel(t, source, newFakeStore())
		m.ChartCoinID = "btc"
		m.ChartDays = 7

		cmd := m.openChartCmd()
		if cmd == nil {
			t.Fatal("first open should start a fetch")
		}
		m.Update(cmd())
		if source.seriesCalls != 1 {
			t.Fatalf("seriesCalls = %d", source.seriesCalls)
		}

		if cmd := m.openChartCmd(); cmd != nil {
			t.Fatal("cached pair should not fetch again")
		}
		prices, ok := m.Charts.Get("btc", 7)
		if !ok || len(prices) != 3 {
			t.Fatalf("cached series = %v, %v", prices, ok)
		}
		if source.seriesCalls != 1 {
			t.Fatalf("seriesCalls after reuse = %d", source.seriesCalls)
		}
	})

	t.Run("duplicate request while loading is a no-op", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		m.ChartCoinID = "btc"
		m.ChartDays = 7

		if cmd := m.openChartCmd(); cmd == nil {
			t.Fatal("first open should start a fetch")
		}
		if cmd := m.openChartCmd(); cmd != nil {
			t.Fatal("second open while in flight should be a no-op")
		}
	})

	t.Run("failed fetch leaves entry absent for retry", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		m.ChartCoinID = "btc"
		m.ChartDays = 7

		m.openChartCmd()
		m.Update(chartMsg{gen: 0, coinID: "btc", days: 7, err: errFake})

		if _, ok := m.Charts.Get("btc", 7); ok {
			t.Fatal("failed fetch should not populate the cache")
		}
		if cmd := m.openChartCmd(); cmd == nil {
			t.Fatal("retry after failure should fetch again")
		}
	})

	t.Run("currency change drops cached series", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		m.Charts.FinishLoading("btc", 7, []float64{1, 2}, true)

		m.applyCurrencyChange()

		if _, ok := m.Charts.Get("btc", 7); ok {
			t.Fatal("purge left an old-currency series behind")
		}
	})

	t.Run("stale result from before currency change is dropped", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		m.ChartCoinID = "btc"
		m.ChartDays = 7
		m.openChartCmd()

		m.applyCurrencyChange()
		m.Update(chartMsg{gen: 0, coinID: "btc", days: 7, prices: []float64{1, 2}})

		if _, ok := m.Charts.Get("btc", 7); ok {
			t.Fatal("stale series was inserted")
		}
		if m.Charts.Loading("btc", 7) {
			t.Fatal("stale result left the pair marked in flight")
		}
	})
}
