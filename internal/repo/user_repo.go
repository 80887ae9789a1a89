// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the credit ledger operations on User.
//
// Credits are only ever changed with single conditional UPDATE statements so
// concurrent generations for the same user cannot drive the balance negative.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-roadmap-backend/internal/domain"
)

// EnsureUser returns the ledger row for id, creating it with initialCredits
// if it does not exist yet. Concurrent first calls converge on one row.
func EnsureUser(ctx context.Context, db *gorm.DB, id string, initialCredits int) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{ID: id, Credits: initialCredits, CreatedAt: now, UpdatedAt: now}
	if err := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(u).Error; err != nil {
		return nil, err
	}

	var out domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// DecrementCredits atomically takes one credit from id. ok is false when the
// user has no credits left (or does not exist); the balance is untouched.
func DecrementCredits(ctx context.Context, db *gorm.DB, id string) (ok bool, err error) {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND credits > 0", id).
		Update("credits", gorm.Expr("credits - ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementCredits gives one credit back to id. It returns ErrNotFound if
// the user does not exist.
func IncrementCredits(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("credits", gorm.Expr("credits + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCredits returns the current balance of id, or ErrNotFound.
func GetCredits(ctx context.Context, db *gorm.DB, id string) (int, error) {
	var u domain.User
	if err := db.WithContext(ctx).Select("credits").Where("id = ?", id).First(&u).Error; err != nil {
		return 0, err
	}
	return u.Credits, nil
}
