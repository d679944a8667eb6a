package models

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHistoryEntry is one retained prior hash for a user. Only the most
// recent entries (HistoryDepth in config, 5 by default) survive pruning.
type PasswordHistoryEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
