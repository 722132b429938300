package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrDBNotReady = errors.New("database not initialized")

// TxManager runs fn inside one database transaction. Repositories join it
// through their WithTx methods.
type TxManager interface {
	Do(ctx context.Context, fn func(tx *gorm.DB) error) error
	SetDB(db *gorm.DB)
}

type txManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) Do(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if m.db == nil {
		return ErrDBNotReady
	}
	return m.db.WithContext(ctx).Transaction(fn)
}

func (m *txManager) SetDB(db *gorm.DB) {
	m.db = db
}

func normalizeLimit(limit, def, max int) int {
	if limit <= 0 || limit > max {
		return def
	}
	return limit
}
