package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, password string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "coindeck.db")
	s, err := Open(path, password)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpen(t *testing.T) {
	t.Run("new store then reopen with same password", func(t *testing.T) {
		s, path := openTestStore(t, "hunter2")
		if err := s.SetSetting("currency", "eur"); err != nil {
			t.Fatal(err)
		}
		s.Close()

		reopened, err := Open(path, "hunter2")
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer reopened.Close()
		if got := reopened.GetSetting("currency"); got != "eur" {
			t.Errorf("currency = %q, want eur", got)
		}
	})

	t.Run("wrong password fails distinctly", func(t *testing.T) {
		s, path := openTestStore(t, "hunter2")
		s.Close()

		_, err := Open(path, "letmein")
		if !errors.Is(err, ErrWrongPassword) {
			t.Errorf("expected ErrWrongPassword, got %v", err)
		}
	})

	t.Run("absent file is a new store, not an error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fresh.db")
		if Exists(path) {
			t.Fatal("file should not exist yet")
		}
		s, err := Open(path, "pw")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		s.Close()
		if !Exists(path) {
			t.Error("store file not created")
		}
	})
}

func TestFavourites(t *testing.T) {
	s, _ := openTestStore(t, "pw")

	t.Run("toggle on then off", func(t *testing.T) {
		on, err := s.ToggleFavourite("bitcoin")
		if err != nil || !on {
			t.Fatalf("toggle on: %v %v", on, err)
		}
		if !s.IsFavourite("bitcoin") {
			t.Error("should be favourite")
		}
		off, err := s.ToggleFavourite("bitcoin")
		if err != nil || off {
			t.Fatalf("toggle off: %v %v", off, err)
		}
		if s.IsFavourite("bitcoin") {
			t.Error("should not be favourite")
		}
	})

	t.Run("list", func(t *testing.T) {
		s.ToggleFavourite("ethereum")
		s.ToggleFavourite("solana")
		favs, err := s.Favourites()
		if err != nil {
			t.Fatal(err)
		}
		if len(favs) != 2 {
			t.Errorf("got %d favourites", len(favs))
		}
	})
}

func TestHoldings(t *testing.T) {
	s, _ := openTestStore(t, "pw")

	t.Run("create captures buy price once", func(t *testing.T) {
		price := 50000.0
		if err := s.SetHolding("bitcoin", 0.5, &price); err != nil {
			t.Fatal(err)
		}

		// Amount edit with a new candidate price must not overwrite.
		other := 60000.0
		if err := s.SetHolding("bitcoin", 1.0, &other); err != nil {
			t.Fatal(err)
		}

		holdings, err := s.Holdings()
		if err != nil {
			t.Fatal(err)
		}
		if len(holdings) != 1 {
			t.Fatalf("got %d holdings", len(holdings))
		}
		h := holdings[0]
		if h.Amount != 1.0 {
			t.Errorf("amount = %v", h.Amount)
		}
		if h.BuyPrice == nil || *h.BuyPrice != 50000 {
			t.Errorf("buy price overwritten: %v", h.BuyPrice)
		}
	})

	t.Run("explicit buy price edit overwrites", func(t *testing.T) {
		if err := s.SetBuyPrice("bitcoin", 42000); err != nil {
			t.Fatal(err)
		}
		holdings, _ := s.Holdings()
		if holdings[0].BuyPrice == nil || *holdings[0].BuyPrice != 42000 {
			t.Errorf("buy price = %v", holdings[0].BuyPrice)
		}
	})

	t.Run("zero amount deletes", func(t *testing.T) {
		if err := s.SetHolding("bitcoin", 0, nil); err != nil {
			t.Fatal(err)
		}
		holdings, _ := s.Holdings()
		if len(holdings) != 0 {
			t.Errorf("holding not deleted: %+v", holdings)
		}
	})
}

func TestAlerts(t *testing.T) {
	s, _ := openTestStore(t, "pw")

	if err := s.AddAlert("bitcoin", 48000, "above"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAlert("ethereum", 2000, "below"); err != nil {
		t.Fatal(err)
	}

	t.Run("mark triggered by coin and target", func(t *testing.T) {
		if err := s.MarkAlertTriggered("bitcoin", 48000); err != nil {
			t.Fatal(err)
		}
		alerts, err := s.Alerts()
		if err != nil {
			t.Fatal(err)
		}
		if len(alerts) != 2 {
			t.Fatalf("got %d alerts", len(alerts))
		}
		if !alerts[0].Triggered {
			t.Error("bitcoin alert should be triggered")
		}
		if alerts[1].Triggered {
			t.Error("ethereum alert should stay armed")
		}
	})

	t.Run("delete", func(t *testing.T) {
		alerts, _ := s.Alerts()
		if err := s.DeleteAlert(alerts[0].ID); err != nil {
			t.Fatal(err)
		}
		alerts, _ = s.Alerts()
		if len(alerts) != 1 {
			t.Errorf("got %d alerts after delete", len(alerts))
		}
	})
}

func TestSettings(t *testing.T) {
	s, path := openTestStore(t, "pw")

	t.Run("empty set deletes", func(t *testing.T) {
		s.SetSetting("theme", "light")
		s.SetSetting("theme", "")
		if got := s.GetSetting("theme"); got != "" {
			t.Errorf("theme = %q, want empty", got)
		}
	})

	t.Run("secrets are sealed at rest and survive reopen", func(t *testing.T) {
		if err := s.SetSecret("coingecko_api_key", "CG-abc123"); err != nil {
			t.Fatal(err)
		}
		if raw := s.GetSetting("coingecko_api_key"); raw == "CG-abc123" || raw == "" {
			t.Errorf("secret stored in plaintext or missing: %q", raw)
		}
		if got := s.GetSecret("coingecko_api_key"); got != "CG-abc123" {
			t.Errorf("GetSecret = %q", got)
		}

		s.Close()
		reopened, err := Open(path, "pw")
		if err != nil {
			t.Fatal(err)
		}
		defer reopened.Close()
		if got := reopened.GetSecret("coingecko_api_key"); got != "CG-abc123" {
			t.Errorf("after reopen GetSecret = %q", got)
		}
	})
}
