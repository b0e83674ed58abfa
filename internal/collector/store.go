// Package collector implements the server side of gentoostats: it accepts
// uploaded reports, authenticates hosts and aggregates what they reported.
package collector

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a host or report does not exist.
	ErrNotFound = errors.New("not found")
	// ErrHostExists is returned when registering a host that is already known.
	ErrHostExists = errors.New("host already registered")
)

// Host is a registered submitter. Hosts register themselves with their first
// upload; later uploads must present the same password.
type Host struct {
	UUID       string    `gorm:"primaryKey;size:64"`
	PasswdHash string    `gorm:"size:128;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// SubmissionRow is one accepted upload. Payload is the report JSON without
// the credentials.
type SubmissionRow struct {
	ID         uint      `gorm:"primaryKey"`
	HostUUID   string    `gorm:"size:64;index;not null"`
	Protocol   int       `gorm:"not null"`
	Digest     string    `gorm:"size:64;index;not null"`
	Packages   int       `gorm:"not null"`
	Payload    []byte    `gorm:"type:longblob;not null"`
	ReceivedAt time.Time `gorm:"index;not null"`
}

// TableName implements gorm's tabler.
func (SubmissionRow) TableName() string { return "submissions" }

// EnvEntry is one ENV value of a host's latest report. List variables are
// stored one row per token.
type EnvEntry struct {
	ID       uint   `gorm:"primaryKey"`
	HostUUID string `gorm:"size:64;index;not null"`
	Variable string `gorm:"size:64;index:idx_env_variable_value;not null"`
	Value    string `gorm:"size:255;index:idx_env_variable_value;not null"`
}

// ValueCount is the number of hosts reporting Value.
type ValueCount struct {
	Value string `json:"value"`
	Hosts int64  `json:"hosts"`
}

// Store persists hosts, submissions and the per-host ENV index.
type Store interface {
	// Host returns the registered host, or ErrNotFound.
	Host(ctx context.Context, uuid string) (Host, error)
	// RegisterHost stores a new host, or returns ErrHostExists.
	RegisterHost(ctx context.Context, host Host) error
	// SaveSubmission stores sub and replaces the host's ENV entries with env
	// in one transaction.
	SaveSubmission(ctx context.Context, sub SubmissionRow, env []EnvEntry) error
	// LatestSubmission returns the host's most recent submission, or ErrNotFound.
	LatestSubmission(ctx context.Context, uuid string) (SubmissionRow, error)
	// EnvCounts counts hosts per value of variable, most common first.
	EnvCounts(ctx context.Context, variable string) ([]ValueCount, error)
	Close() error
}
