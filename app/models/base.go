package models

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Base carries the identity and concurrency token shared by every ledger record.
// Version starts at 1 and is incremented by the store on every successful update.
type Base struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Version   int64     `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Base) GetID() string { return b.ID }
func (b *Base) SetID(id string) { b.ID = id }
func (b *Base) GetVersion() int64 { return b.Version }
func (b *Base) SetVersion(v int64) { b.Version = v }
func (b *Base) GetCreatedAt() time.Time { return b.CreatedAt }
func (b *Base) SetCreatedAt(t time.Time) { b.CreatedAt = t }

// Touch sets the timestamps the way the database would on insert/update.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

// LocalizedString holds the english and arabic rendition of a display text.
type LocalizedString struct {
	En string `gorm:"type:varchar(255)" json:"en" validate:"required,max=255"`
	Ar string `gorm:"type:varchar(255)" json:"ar" validate:"max=255"`
}

var validate = validator.New()

// RoundAmount rounds a currency amount to cents.
func RoundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
