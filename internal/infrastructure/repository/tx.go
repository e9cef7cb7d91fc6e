package repository

import (
	"context"

	"gorm.io/gorm"

	domainRepo "github.com/collectra/collectra-api/internal/domain/repository"
)

type ctxKey string

// txKey is the context key under which an open transaction is carried.
// Repositories resolve their handle through dbFromContext so that every
// call inside a WithinTransaction block shares the same transaction.
const txKey ctxKey = "gorm_tx"

type transactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a transaction manager backed by GORM
func NewTransactionManager(db *gorm.DB) domainRepo.TransactionManager {
	return &transactionManager{db: db}
}

func (m *transactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls reuse the outer transaction
	if _, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return fn(ctx)
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey, tx))
	})
}

// dbFromContext returns the transaction bound to ctx, or the fallback
// connection when no transaction is open.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx
	}
	return fallback
}
