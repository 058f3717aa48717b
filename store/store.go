package store

import (
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrWrongPassword distinguishes a failed unlock from a missing store.
	ErrWrongPassword = errors.New("wrong password")
	// ErrCorrupted covers a store whose vault metadata is unreadable.
	ErrCorrupted = errors.New("store is corrupted")
)

// Favourite is a presence-only row keyed by coin id.
type Favourite struct {
	CoinID string `gorm:"primaryKey"`
}

// Holding is one owned position. BuyPrice is nil until captured.
type Holding struct {
	CoinID   string `gorm:"primaryKey"`
	Amount   float64
	BuyPrice *float64
}

// Alert is a price alert row. Triggered flips once and stays.
type Alert struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	CoinID      string
	TargetPrice float64
	Direction   string // "above" or "below"
	Triggered   bool
}

// Setting is an arbitrary key/value pair. Secret values are sealed before
// they reach this table.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// vaultMeta holds the scrypt salt and the password-check canary.
type vaultMeta struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

// Store is the encrypted local database: plain row sets for favourites,
// holdings and alerts, plus a settings table whose secret values are
// sealed with a password-derived AES-GCM key.
type Store struct {
	db   *gorm.DB
	aead cipher.AEAD
}

// Exists reports whether a store file is already present, which decides
// the first-run password flow.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// DefaultPath returns the store location inside the app config dir.
func DefaultPath(configDir string) string {
	return filepath.Join(configDir, "coindeck.db")
}

// Open opens or creates the store at path. A new store is initialised
// with the given password; an existing one verifies the password against
// the sealed canary and fails with ErrWrongPassword on mismatch.
func Open(path, password string) (*Store, error) {
	existed := Exists(path)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	if err := db.AutoMigrate(&Favourite{}, &Holding{}, &Alert{}, &Setting{}, &vaultMeta{}); err != nil {
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}

	s := &Store{db: db}
	if existed {
		err = s.verifyPassword(password)
	} else {
		err = s.initVault(password)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initVault(password string) error {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	key, err := deriveKey(password, salt)
	if err != nil {
		return err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return err
	}
	canary, err := seal(aead, []byte(canaryPlaintext))
	if err != nil {
		return err
	}

	if err := s.db.Create(&vaultMeta{Key: "salt", Value: salt}).Error; err != nil {
		return fmt.Errorf("failed to initialise vault: %w", err)
	}
	if err := s.db.Create(&vaultMeta{Key: "canary", Value: canary}).Error; err != nil {
		return fmt.Errorf("failed to initialise vault: %w", err)
	}
	s.aead = aead
	return nil
}

func (s *Store) verifyPassword(password string) error {
	var salt, canary vaultMeta
	if err := s.db.First(&salt, "key = ?", "salt").Error; err != nil {
		return fmt.Errorf("%w: missing salt", ErrCorrupted)
	}
	if err := s.db.First(&canary, "key = ?", "canary").Error; err != nil {
		return fmt.Errorf("%w: missing canary", ErrCorrupted)
	}

	key, err := deriveKey(password, salt.Value)
	if err != nil {
		return err
	}
	aead, err := newAEAD(key)
	if err != nil {
		return err
	}
	plaintext, err := open(aead, canary.Value)
	if err != nil || string(plaintext) != canaryPlaintext {
		return ErrWrongPassword
	}
	s.aead = aead
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// -- Favourites --

func (s *Store) IsFavourite(coinID string) bool {
	var fav Favourite
	return s.db.First(&fav, "coin_id = ?", coinID).Error == nil
}

// ToggleFavourite flips membership and returns the new state.
func (s *Store) ToggleFavourite(coinID string) (bool, error) {
	if s.IsFavourite(coinID) {
		err := s.db.Delete(&Favourite{}, "coin_id = ?", coinID).Error
		return false, err
	}
	err := s.db.Create(&Favourite{CoinID: coinID}).Error
	return true, err
}

func (s *Store) Favourites() ([]string, error) {
	var favs []Favourite
	if err := s.db.Find(&favs).Error; err != nil {
		return nil, err
	}
	ids := make([]string, len(favs))
	for i, f := range favs {
		ids[i] = f.CoinID
	}
	return ids, nil
}

// -- Holdings --

// SetHolding upserts the owned amount for a coin. A non-positive amount
// deletes the row. buyPrice is only recorded when the row has none yet;
// an existing buy price is never overwritten here.
func (s *Store) SetHolding(coinID string, amount float64, buyPrice *float64) error {
	if amount <= 0 {
		return s.db.Delete(&Holding{}, "coin_id = ?", coinID).Error
	}

	var existing Holding
	err := s.db.First(&existing, "coin_id = ?", coinID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.Create(&Holding{CoinID: coinID, Amount: amount, BuyPrice: buyPrice}).Error
	}
	if err != nil {
		return err
	}

	existing.Amount = amount
	if existing.BuyPrice == nil && buyPrice != nil {
		existing.BuyPrice = buyPrice
	}
	return s.db.Save(&existing).Error
}

// SetBuyPrice overwrites the recorded buy-in price for an owned coin.
func (s *Store) SetBuyPrice(coinID string, price float64) error {
	return s.db.Model(&Holding{}).Where("coin_id = ?", coinID).
		Update("buy_price", price).Error
}

// Holdings returns all positive-amount rows.
func (s *Store) Holdings() ([]Holding, error) {
	var holdings []Holding
	err := s.db.Where("amount > 0").Find(&holdings).Error
	return holdings, err
}

// -- Alerts --

func (s *Store) AddAlert(coinID string, targetPrice float64, direction string) error {
	return s.db.Create(&Alert{
		CoinID:      coinID,
		TargetPrice: targetPrice,
		Direction:   direction,
	}).Error
}

func (s *Store) Alerts() ([]Alert, error) {
	var alerts []Alert
	err := s.db.Order("id").Find(&alerts).Error
	return alerts, err
}

// MarkAlertTriggered persists the one-way trigger flag, matched by coin
// and target since the in-memory copy does not carry row ids across
// refreshes.
func (s *Store) MarkAlertTriggered(coinID string, targetPrice float64) error {
	return s.db.Model(&Alert{}).
		Where("coin_id = ? AND target_price = ?", coinID, targetPrice).
		Update("triggered", true).Error
}

func (s *Store) DeleteAlert(id uint) error {
	return s.db.Delete(&Alert{}, id).Error
}

// -- Settings --

// GetSetting returns the stored value or "" when absent. Reads are
// best-effort; callers treat "" as the default.
func (s *Store) GetSetting(key string) string {
	var setting Setting
	if err := s.db.First(&setting, "key = ?", key).Error; err != nil {
		return ""
	}
	return setting.Value
}

// SetSetting stores a plain value; an empty value deletes the key.
func (s *Store) SetSetting(key, value string) error {
	if value == "" {
		return s.db.Delete(&Setting{}, "key = ?", key).Error
	}
	return s.db.Save(&Setting{Key: key, Value: value}).Error
}

// GetSecret reads and unseals an encrypted setting. Absent or unreadable
// values come back empty.
func (s *Store) GetSecret(key string) string {
	sealed := s.GetSetting(key)
	if sealed == "" {
		return ""
	}
	value, err := openString(s.aead, sealed)
	if err != nil {
		return ""
	}
	return value
}

// SetSecret seals and stores an encrypted setting.
func (s *Store) SetSecret(key, value string) error {
	if value == "" {
		return s.SetSetting(key, "")
	}
	sealed, err := sealString(s.aead, value)
	if err != nil {
		return err
	}
	return s.SetSetting(key, sealed)
}
