package store

import (
	"context"
	"errors"
	"time"

	"github.com/telavision/epgvault/internal/models"
)

// ErrNotFound is returned by point lookups that match no program.
// It is an expected outcome, distinct from storage failures.
var ErrNotFound = errors.New("not found")

// Store defines persistence for the channel catalog, package
// memberships and program schedules. Ingestion always does
// drop-then-insert; nothing is updated in place.
type Store interface {
	// TruncateCatalog deletes all package memberships, then all
	// channels. Memberships reference channels, so the order matters.
	TruncateCatalog(ctx context.Context) error
	// TruncatePrograms deletes the entire program schedule.
	TruncatePrograms(ctx context.Context) error
	// InsertChannels inserts catalog rows for the given channels.
	InsertChannels(ctx context.Context, channels []models.Channel) error
	// InsertChannelPackages records (channel_id, package) membership rows.
	InsertChannelPackages(ctx context.Context, channelIDs []string, pkg string) error
	// BulkInsertPrograms writes one chunk of programs as a single
	// batched write. Callers bound the chunk size.
	BulkInsertPrograms(ctx context.Context, programs []models.Program) error

	// ListChannels returns channels belonging to pkg. The "ALL"
	// package denotes the unfiltered catalog.
	ListChannels(ctx context.Context, pkg string) ([]models.Channel, error)
	// UpcomingPrograms returns programs for a channel starting at or
	// after now, ascending, capped at 100 rows.
	UpcomingPrograms(ctx context.Context, channelID string, now time.Time) ([]models.Program, error)
	// CurrentProgram returns the program on air at now. The start
	// boundary is inclusive, the end boundary exclusive, so adjacent
	// programs never both match. Returns ErrNotFound when nothing is on.
	CurrentProgram(ctx context.Context, channelID string, now time.Time) (*models.Program, error)
	// TonightProgram returns the first program starting at or after
	// the given reference time whose duration is at least minDuration.
	// Returns ErrNotFound when no program qualifies.
	TonightProgram(ctx context.Context, channelID string, after time.Time, minDuration time.Duration) (*models.Program, error)
	// SearchPrograms matches title, subtitle and description by
	// case-insensitive substring. Queries containing anything but
	// lowercase ASCII letters and whitespace yield an empty result,
	// not an error.
	SearchPrograms(ctx context.Context, query string) ([]models.Program, error)
}
