package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/telavision/epgvault/internal/models"
)

const programColumns = `id, channel_id, start_time, end_time, title, subtitle, description, categories, icon, episode_num, rating_system, rating_value, rating_icon`

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// TruncateCatalog deletes memberships before channels.
func (p *Postgres) TruncateCatalog(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM channel_packages`); err != nil {
		return fmt.Errorf("delete channel_packages: %w", err)
	}
	if _, err := p.pool.Exec(ctx, `DELETE FROM channels`); err != nil {
		return fmt.Errorf("delete channels: %w", err)
	}
	return nil
}

func (p *Postgres) TruncatePrograms(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM programs`); err != nil {
		return fmt.Errorf("delete programs: %w", err)
	}
	return nil
}

func (p *Postgres) InsertChannels(ctx context.Context, channels []models.Channel) error {
	for _, ch := range channels {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO channels (channel_id, display_name, icon) VALUES ($1, $2, $3)`,
			ch.ChannelID, ch.Name, ch.IconURL,
		)
		if err != nil {
			return fmt.Errorf("InsertChannels %s: %w", ch.ChannelID, err)
		}
	}
	return nil
}

func (p *Postgres) InsertChannelPackages(ctx context.Context, channelIDs []string, pkg string) error {
	for _, id := range channelIDs {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO channel_packages (channel_id, package_id) VALUES ($1, $2)`,
			id, pkg,
		)
		if err != nil {
			return fmt.Errorf("InsertChannelPackages %s/%s: %w", id, pkg, err)
		}
	}
	return nil
}

// BulkInsertPrograms writes one chunk of programs via the COPY
// protocol, one atomic command per chunk.
func (p *Postgres) BulkInsertPrograms(ctx context.Context, programs []models.Program) error {
	if len(programs) == 0 {
		return nil
	}
	_, err := p.pool.CopyFrom(ctx,
		pgx.Identifier{"programs"},
		[]string{"channel_id", "start_time", "end_time", "title", "subtitle", "description",
			"categories", "icon", "episode_num", "rating_system", "rating_value", "rating_icon"},
		pgx.CopyFromSlice(len(programs), func(i int) ([]any, error) {
			pr := programs[i]
			return []any{
				pr.ChannelID, pr.StartTime.UTC(), pr.EndTime.UTC(), pr.Title, pr.SubTitle, pr.Description,
				joinCategories(pr.Categories), pr.IconURL, pr.EpisodeNum,
				pr.Rating.System, pr.Rating.Value, pr.Rating.Icon,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("BulkInsertPrograms: %w", err)
	}
	return nil
}

func (p *Postgres) ListChannels(ctx context.Context, pkg string) ([]models.Channel, error) {
	query := `SELECT channels.id, channels.channel_id, channels.display_name, channels.icon
		FROM channels ORDER BY channels.id`
	args := []any{}
	if pkg != models.PackageAll {
		query = `SELECT channels.id, channels.channel_id, channels.display_name, channels.icon
			FROM channels
			JOIN channel_packages ON channels.channel_id = channel_packages.channel_id
			WHERE channel_packages.package_id = $1
			ORDER BY channels.id`
		args = append(args, pkg)
	}
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListChannels: %w", err)
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var ch models.Channel
		if err := rows.Scan(&ch.ID, &ch.ChannelID, &ch.Name, &ch.IconURL); err != nil {
			return nil, fmt.Errorf("ListChannels scan: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListChannels rows: %w", err)
	}
	return channels, nil
}

func (p *Postgres) UpcomingPrograms(ctx context.Context, channelID string, now time.Time) ([]models.Program, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE channel_id = $1 AND start_time >= $2
		 ORDER BY start_time ASC
		 LIMIT 100`,
		channelID, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("UpcomingPrograms: %w", err)
	}
	defer rows.Close()
	return scanPrograms(rows)
}

func (p *Postgres) CurrentProgram(ctx context.Context, channelID string, now time.Time) (*models.Program, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE channel_id = $1 AND start_time <= $2 AND end_time > $2
		 ORDER BY start_time DESC
		 LIMIT 1`,
		channelID, now.UTC(),
	)
	return scanProgram(row)
}

func (p *Postgres) TonightProgram(ctx context.Context, channelID string, after time.Time, minDuration time.Duration) (*models.Program, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE channel_id = $1 AND start_time >= $2
		   AND end_time - start_time >= make_interval(secs => $3)
		 ORDER BY start_time ASC
		 LIMIT 1`,
		channelID, after.UTC(), minDuration.Seconds(),
	)
	return scanProgram(row)
}

func (p *Postgres) SearchPrograms(ctx context.Context, query string) ([]models.Program, error) {
	if !ValidSearchQuery(query) {
		return nil, nil
	}
	rows, err := p.pool.Query(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE title ILIKE $1 OR subtitle ILIKE $1 OR description ILIKE $1
		 ORDER BY start_time ASC`,
		"%"+query+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("SearchPrograms: %w", err)
	}
	defer rows.Close()
	return scanPrograms(rows)
}

// ValidSearchQuery reports whether a free-text query is restricted to
// lowercase ASCII letters and whitespace. Anything else is treated as
// "no results" upstream rather than an error.
func ValidSearchQuery(query string) bool {
	for _, r := range query {
		if (r < 'a' || r > 'z') && r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

func scanProgram(row pgx.Row) (*models.Program, error) {
	var pr models.Program
	var categories string
	err := row.Scan(&pr.ID, &pr.ChannelID, &pr.StartTime, &pr.EndTime, &pr.Title, &pr.SubTitle,
		&pr.Description, &categories, &pr.IconURL, &pr.EpisodeNum,
		&pr.Rating.System, &pr.Rating.Value, &pr.Rating.Icon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan program: %w", err)
	}
	pr.StartTime = pr.StartTime.UTC()
	pr.EndTime = pr.EndTime.UTC()
	pr.Categories = splitCategories(categories)
	return &pr, nil
}

func scanPrograms(rows pgx.Rows) ([]models.Program, error) {
	var programs []models.Program
	for rows.Next() {
		pr, err := scanProgram(rows)
		if err != nil {
			return nil, err
		}
		programs = append(programs, *pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("programs rows: %w", err)
	}
	return programs, nil
}

// Categories are stored flattened in a single text column and
// re-expanded into a list on read.

func joinCategories(categories []string) string {
	return strings.Join(categories, ",")
}

func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
