package models

import (
	"strings"
	"testing"

	"coindeck/api"
)

func visibleIDs(m *AppModel) []string {
	visible := m.VisibleCoins()
	ids := make([]string, len(visible))
	for i, v := range visible {
		ids[i] = v.Coin.ID
	}
	return ids
}

func assertOrder(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("visible order = %v, want %v", got, want)
	}
}

func TestVisibleCoins(t *testing.T) {
	t.Run("provider order preserved without sort", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		assertOrder(t, visibleIDs(m), []string{"btc", "eth", "doge"})
	})

	t.Run("price sort descending and ascending", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())

		m.Sort = SortSpec{Column: SortPrice, Dir: SortDesc}
		assertOrder(t, visibleIDs(m), []string{"btc", "eth", "doge"})

		m.Sort = SortSpec{Column: SortPrice, Dir: SortAsc}
		assertOrder(t, visibleIDs(m), []string{"doge", "eth", "btc"})
	})

	t.Run("filter matches name or symbol case-insensitively", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		m.FilterText = "COIN"

		for _, v := range m.VisibleCoins() {
			name := strings.ToLower(v.Coin.Name)
			symbol := strings.ToLower(v.Coin.Symbol)
			if !strings.Contains(name, "coin") && !strings.Contains(symbol, "coin") {
				t.Fatalf("filter leaked %q through", v.Coin.ID)
			}
		}
		assertOrder(t, visibleIDs(m), []string{"btc", "doge"})
	})

	t.Run("favourites tab includes holdings", func(t *testing.T) {
		st := newFakeStore()
		st.favourites["doge"] = true
		st.SetHolding("eth", 2, nil)
		m := newTestModel(t, &fakeSource{coins: testCoins()}, st)

		m.Tab = TabFavourites
		assertOrder(t, visibleIDs(m), []string{"eth", "doge"})

		m.Tab = TabPortfolio
		assertOrder(t, visibleIDs(m), []string{"eth"})
	})

	t.Run("stable sort keeps equal keys in place", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		// btc and doge share the same 24h change; eth sorts below both.
		m.Sort = SortSpec{Column: SortChange24h, Dir: SortDesc}
		assertOrder(t, visibleIDs(m), []string{"btc", "doge", "eth"})
	})

	t.Run("missing values sort as equal", func(t *testing.T) {
		coins := testCoins()
		coins[0].Change24h = nil
		m := newTestModel(t, &fakeSource{coins: coins}, newFakeStore())

		m.Sort = SortSpec{Column: SortChange24h, Dir: SortAsc}
		if got := len(m.VisibleCoins()); got != 3 {
			t.Fatalf("sort dropped rows: %d", got)
		}
	})

	t.Run("visible list never exceeds snapshot", func(t *testing.T) {
		m := newTestModel(t, &fakeSource{coins: testCoins()}, newFakeStore())
		m.Coins = []api.Coin{testCoins()[0]}
		m.clampSelection()

		if got := visibleIDs(m); len(got) != 1 || got[0] != "btc" {
			t.Fatalf("visible = %v after snapshot shrink", got)
		}
		if m.Cursor != 0 {
			t.Fatalf("cursor not clamped: %d", m.Cursor)
		}
	})
}

func TestSortToggle(t *testing.T) {
	var s SortSpec

	s = s.Toggle(SortPrice)
	if s.Dir != SortAsc || s.Column != SortPrice {
		t.Fatalf("first toggle = %+v, want ascending price", s)
	}
	s = s.Toggle(SortPrice)
	if s.Dir != SortDesc {
		t.Fatalf("second toggle = %+v, want descending", s)
	}
	s = s.Toggle(SortPrice)
	if s.Dir != SortUnset {
		t.Fatalf("third toggle = %+v, want unset", s)
	}

	s = s.Toggle(SortPrice)
	s = s.Toggle(SortName)
	if s.Column != SortName || s.Dir != SortAsc {
		t.Fatalf("switching column = %+v, want ascending name", s)
	}
}
