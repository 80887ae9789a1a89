package domain

import "time"

// Idempotency remembers which roadmap a generate request produced, keyed by
// (user_id, scope, key), so a retried request with the same Idempotency-Key
// gets the same roadmap without another model call or credit charge.
type Idempotency struct {
	ID        string    `gorm:"type:TEXT NOT NULL;primaryKey"`
	UserID    string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:1"`
	Scope     string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:2"`
	Key       string    `gorm:"type:TEXT NOT NULL;uniqueIndex:ux_user_scope_key,priority:3"`
	RoadmapID string    `gorm:"type:TEXT NOT NULL"`
	Status    int       `gorm:"type:INTEGER NOT NULL"`
	CreatedAt time.Time `gorm:"type:DATETIME NOT NULL;autoCreateTime"`
	ExpiresAt time.Time `gorm:"type:DATETIME NOT NULL;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }

// NewIdempotency builds a record created at now and valid for ttl.
func NewIdempotency(id, userID, scope, key, roadmapID string, status int, now time.Time, ttl time.Duration) *Idempotency {
	now = now.UTC()
	return &Idempotency{
		ID:        id,
		UserID:    userID,
		Scope:     scope,
		Key:       key,
		RoadmapID: roadmapID,
		Status:    status,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Live reports whether the record can still be replayed at now.
func (i Idempotency) Live(now time.Time) bool { return now.Before(i.ExpiresAt) }
