package gormstore

import (
	"context"

	"gorm.io/gorm"

	portsout "exchangeengine/internal/application/ports/out"
)

type txKey struct{}

// UnitOfWork opens one GORM transaction per call on a fresh session, so
// nothing a run loaded survives into the next one.
type UnitOfWork struct {
	db *gorm.DB
}

var _ portsout.UnitOfWork = (*UnitOfWork)(nil)

func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{db: db}
}

func (u *UnitOfWork) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx).Transaction(func(nested *gorm.DB) error {
			return fn(context.WithValue(ctx, txKey{}, nested))
		})
	}

	session := u.db.WithContext(ctx).Session(&gorm.Session{NewDB: true})
	return session.Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom returns the transaction bound to ctx, or root outside one.
func dbFrom(ctx context.Context, root *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return root.WithContext(ctx)
}
