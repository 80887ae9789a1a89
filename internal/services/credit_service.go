// Package services – CreditService
//
// CreditService reports a user's remaining generation credits. Users are
// created lazily with the configured starting balance, so the first balance
// query for an unknown user returns DefaultCredits.
package services

import (
	"context"

	"gorm.io/gorm"
)

// CreditService exposes the credit ledger to the HTTP layer.
type CreditService struct {
	DB             *gorm.DB
	Ledger         CreditLedger
	DefaultCredits int
}

// Balance returns the remaining credits of userID.
func (s *CreditService) Balance(ctx context.Context, userID string) (int, error) {
	u, err := s.Ledger.EnsureUser(ctx, s.DB, userID, s.DefaultCredits)
	if err != nil {
		return 0, err
	}
	return u.Credits, nil
}
