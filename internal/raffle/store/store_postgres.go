package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tombola/internal/raffle/models"
	"tombola/pkg/domain"
	"tombola/pkg/platform/sentinel"
)

// PostgresArchive persists concluded rounds in PostgreSQL. Amounts are
// stored as BIGINT; base units are sized so real balances fit comfortably
// in 63 bits.
type PostgresArchive struct {
	pool *pgxpool.Pool
}

func NewPostgresArchive(pool *pgxpool.Pool) *PostgresArchive {
	return &PostgresArchive{pool: pool}
}

// Save records a concluded round. Each epoch concludes exactly once, so a
// conflicting insert means the record is already archived and is ignored.
func (a *PostgresArchive) Save(ctx context.Context, record models.RoundRecord) error {
	const query = `
		INSERT INTO raffle_rounds (epoch, winner, entrants, pool_at_close, winner_share, fee_share, drawn_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (epoch) DO NOTHING`

	_, err := a.pool.Exec(ctx, query,
		int64(record.Epoch),
		record.Winner.String(),
		record.Entrants,
		int64(record.PoolAtClose),
		int64(record.WinnerShare),
		int64(record.FeeShare),
		record.DrawnAt,
	)
	if err != nil {
		return fmt.Errorf("save round %d: %w", record.Epoch, err)
	}
	return nil
}

func (a *PostgresArchive) FindByEpoch(ctx context.Context, epoch uint64) (*models.RoundRecord, error) {
	const query = `
		SELECT epoch, winner, entrants, pool_at_close, winner_share, fee_share, drawn_at
		FROM raffle_rounds
		WHERE epoch = $1`

	record, err := scanRound(a.pool.QueryRow(ctx, query, int64(epoch)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find round %d: %w", epoch, err)
	}
	return record, nil
}

func (a *PostgresArchive) ListRecent(ctx context.Context, limit int) ([]models.RoundRecord, error) {
	const query = `
		SELECT epoch, winner, entrants, pool_at_close, winner_share, fee_share, drawn_at
		FROM raffle_rounds
		ORDER BY epoch DESC
		LIMIT $1`

	rows, err := a.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var records []models.RoundRecord
	for rows.Next() {
		record, err := scanRound(rows)
		if err != nil {
			return nil, fmt.Errorf("list rounds: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	return records, nil
}

func scanRound(row pgx.Row) (*models.RoundRecord, error) {
	var (
		record models.RoundRecord
		epoch  int64
		winner string
		pool   int64
		wshare int64
		fshare int64
	)
	err := row.Scan(&epoch, &winner, &record.Entrants, &pool, &wshare, &fshare, &record.DrawnAt)
	if err != nil {
		return nil, err
	}
	record.Epoch = uint64(epoch)
	record.Winner = domain.Identity(winner)
	record.PoolAtClose = uint64(pool)
	record.WinnerShare = uint64(wshare)
	record.FeeShare = uint64(fshare)
	return &record, nil
}
