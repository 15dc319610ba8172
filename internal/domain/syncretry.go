package domain

import (
	"fmt"
	"strings"
	"time"
)

// RetryStatus is the lifecycle of a sync retry record.
type RetryStatus string

const (
	RetryStatusPending  RetryStatus = "PENDING"
	RetryStatusRetrying RetryStatus = "RETRYING"
	RetryStatusSuccess  RetryStatus = "SUCCESS"
	RetryStatusFailed   RetryStatus = "FAILED"
)

func (s RetryStatus) String() string { return string(s) }

func (s RetryStatus) IsValid() bool {
	switch s {
	case RetryStatusPending, RetryStatusRetrying, RetryStatusSuccess, RetryStatusFailed:
		return true
	}
	return false
}

func ParseRetryStatusFromString(s string) (RetryStatus, error) {
	st := RetryStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid retry status %q", ErrValidation, s)
	}
	return st, nil
}

// MaxSyncAttempts is the retry budget; failures past it require an
// administrator to intervene.
const MaxSyncAttempts = 5

// syncRetryDelays is the fixed backoff table: delay scheduled after the
// n-th failed attempt.
var syncRetryDelays = map[int]time.Duration{
	1: 15 * time.Minute,
	2: 30 * time.Minute,
	3: 60 * time.Minute,
	4: 120 * time.Minute,
	5: 240 * time.Minute,
}

// SyncRetryDelay returns the delay before the retry following attempt n.
// ok is false once the retry budget is exhausted.
func SyncRetryDelay(attempt int) (time.Duration, bool) {
	d, ok := syncRetryDelays[attempt]
	return d, ok
}

// SyncRetryRecord tracks the retry schedule for one property's external sync.
// Created on first failure, advanced on each retry, terminal at SUCCESS or
// FAILED. All state is persisted so retries survive process restarts.
type SyncRetryRecord struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	PropertyID    string `gorm:"type:uuid;not null"`
	AttemptNumber int    `gorm:"not null"`
	LastAttemptAt time.Time
	NextRetryAt   *time.Time
	LastError     *string     `gorm:"type:text"`
	Status        RetryStatus `gorm:"type:varchar(10);not null"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
