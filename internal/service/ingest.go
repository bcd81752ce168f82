package service

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/telavision/epgvault/internal/convert"
	"github.com/telavision/epgvault/internal/models"
	"github.com/telavision/epgvault/internal/store"
	"github.com/telavision/epgvault/internal/xmltv"
)

// ProgramChunkSize bounds each batched program write. It is the
// backpressure knob: chunks are written sequentially, one atomic write
// each.
const ProgramChunkSize = 10000

// Fetcher retrieves one feed's document. Satisfied by fetcher.Client.
type Fetcher interface {
	Fetch(ctx context.Context, feed models.Feed) (*xmltv.Document, error)
}

// RunStats summarizes a completed ingestion run.
type RunStats struct {
	Channels int `json:"channels"`
	Programs int `json:"programs"`
}

// Ingest performs one full-replace ingestion run over models.Feeds in
// order. The first feed is authoritative: its channels and programs
// replace the whole store. Each secondary feed is reconciled against
// the accumulated known-id set and contributes only net-new channels
// and their programs, plus membership rows under its package tag.
//
// Any fetch, parse, conversion or write error aborts the run
// immediately. A failed run leaves the store partially loaded; the
// operator re-runs ingestion to completion.
func Ingest(ctx context.Context, s store.Store, f Fetcher, runID uuid.UUID) (*RunStats, error) {
	stats := &RunStats{}

	base := models.Feeds[0]
	channels, programs, err := fetchFeed(ctx, f, base)
	if err != nil {
		return nil, err
	}
	log.Printf("ingest[%s]: %s feed: %d channels, %d programs", runID, base.Package, len(channels), len(programs))

	// Full replace: memberships before channels, then the schedule.
	if err := s.TruncateCatalog(ctx); err != nil {
		return nil, fmt.Errorf("truncate catalog: %w", err)
	}
	if err := s.TruncatePrograms(ctx); err != nil {
		return nil, fmt.Errorf("truncate programs: %w", err)
	}

	if err := s.InsertChannels(ctx, channels); err != nil {
		return nil, fmt.Errorf("insert %s channels: %w", base.Package, err)
	}
	if err := s.InsertChannelPackages(ctx, channelIDs(channels), base.Package); err != nil {
		return nil, fmt.Errorf("insert %s packages: %w", base.Package, err)
	}
	stats.Channels += len(channels)

	if err := insertProgramChunks(ctx, s, programs, runID); err != nil {
		return nil, fmt.Errorf("insert %s programs: %w", base.Package, err)
	}
	stats.Programs += len(programs)

	// Known-id accumulator, threaded through the secondary feeds in
	// order: a channel first introduced by FR is known to TNT.
	known := make(map[string]struct{}, len(channels))
	for _, ch := range channels {
		known[ch.ChannelID] = struct{}{}
	}

	for _, feed := range models.Feeds[1:] {
		channels, programs, err := fetchFeed(ctx, f, feed)
		if err != nil {
			return nil, err
		}

		part := Reconcile(known, channels, programs)
		log.Printf("ingest[%s]: %s feed: %d channels (%d known, %d unknown), %d programs kept",
			runID, feed.Package, len(channels), len(part.Known), len(part.Unknown), len(part.Programs))

		if err := s.InsertChannelPackages(ctx, channelIDs(part.Known), feed.Package); err != nil {
			return nil, fmt.Errorf("insert %s packages (known): %w", feed.Package, err)
		}
		if err := s.InsertChannels(ctx, part.Unknown); err != nil {
			return nil, fmt.Errorf("insert %s channels: %w", feed.Package, err)
		}
		if err := s.InsertChannelPackages(ctx, channelIDs(part.Unknown), feed.Package); err != nil {
			return nil, fmt.Errorf("insert %s packages (unknown): %w", feed.Package, err)
		}
		if err := insertProgramChunks(ctx, s, part.Programs, runID); err != nil {
			return nil, fmt.Errorf("insert %s programs: %w", feed.Package, err)
		}
		stats.Channels += len(part.Unknown)
		stats.Programs += len(part.Programs)

		part.ExtendKnown(known)
	}

	log.Printf("ingest[%s]: complete: %d channels, %d programs", runID, stats.Channels, stats.Programs)
	return stats, nil
}

// fetchFeed fetches one feed and converts it to domain entities.
func fetchFeed(ctx context.Context, f Fetcher, feed models.Feed) ([]models.Channel, []models.Program, error) {
	doc, err := f.Fetch(ctx, feed)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s feed: %w", feed.Package, err)
	}
	channels := convert.Channels(doc.Channels)
	programs, err := convert.Programs(doc.Programs)
	if err != nil {
		return nil, nil, fmt.Errorf("convert %s feed: %w", feed.Package, err)
	}
	return channels, programs, nil
}

// insertProgramChunks writes programs in fixed-size chunks, reporting
// progress after each one. The first failing chunk aborts the run.
func insertProgramChunks(ctx context.Context, s store.Store, programs []models.Program, runID uuid.UUID) error {
	total := len(programs)
	inserted := 0
	for start := 0; start < total; start += ProgramChunkSize {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("ingest cancelled: %w", err)
		}
		end := start + ProgramChunkSize
		if end > total {
			end = total
		}
		if err := s.BulkInsertPrograms(ctx, programs[start:end]); err != nil {
			return err
		}
		inserted += end - start
		log.Printf("ingest[%s]: inserted %d of %d programs", runID, inserted, total)
	}
	return nil
}
