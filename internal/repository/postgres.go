package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"auction-bidding/internal/auctionerrors"
	model "auction-bidding/internal/models"
	"auction-bidding/utils"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const auctionColumns = `id::text, name, start_time, end_time, minimum_bid, minimum_asking_price, version, created_at, updated_at`

const bidColumns = `id::text, auction_id::text, bid_amount, user_id, created_at, updated_at`

// PostgresRepo implements AuctionDB on PostgreSQL
type PostgresRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepo wraps an open pool
func NewPostgresRepo(pool *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{pool: pool, now: time.Now}
}

// NewPostgresPool opens and pings a connection pool
func NewPostgresPool(ctx context.Context, databaseURL string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate applies the embedded schema migrations to the database at databaseURL
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrationURL(databaseURL))
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrationURL switches a postgres:// url to the pgx5:// scheme the migrate driver registers
func migrationURL(databaseURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, prefix)
		}
	}
	return databaseURL
}

// CreateAuction assigns an id and timestamps and inserts the auction
func (r *PostgresRepo) CreateAuction(ctx context.Context, auction *model.Auction) error {
	now := r.now().UTC()
	id := utils.GenerateID()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO auctions (id, name, start_time, end_time, minimum_bid, minimum_asking_price, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $7)`,
		id, auction.Name, auction.StartTime, auction.EndTime,
		auction.MinimumBid, auction.MinimumAskingPrice, now)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}

	auction.ID = id
	auction.Bids = []model.Bid{}
	auction.Version = 0
	auction.CreatedAt = now
	auction.UpdatedAt = now
	return nil
}

// GetAuction returns the auction with its bids resolved
func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	if !utils.IsValidID(auctionID) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}

	row := r.pool.QueryRow(ctx, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, auctionID)
	auction, err := scanAuction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids WHERE auction_id = $1 ORDER BY seq`, auctionID)
	if err != nil {
		return model.Auction{}, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	bids, err := pgx.CollectRows(rows, scanBid)
	if err != nil {
		return model.Auction{}, fmt.Errorf("scan bids for auction %s: %w", auctionID, err)
	}

	auction.Bids = bids
	return auction, nil
}

// ListAuctions returns every auction in creation order with bids resolved
func (r *PostgresRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+auctionColumns+` FROM auctions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	auctions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Auction, error) {
		return scanAuction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan auctions: %w", err)
	}

	rows, err = r.pool.Query(ctx, `SELECT `+bidColumns+` FROM bids ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	bids, err := pgx.CollectRows(rows, scanBid)
	if err != nil {
		return nil, fmt.Errorf("scan bids: %w", err)
	}

	byAuction := make(map[string][]model.Bid, len(auctions))
	for _, b := range bids {
		byAuction[b.AuctionID] = append(byAuction[b.AuctionID], b)
	}
	for i := range auctions {
		auctions[i].Bids = byAuction[auctions[i].ID]
		if auctions[i].Bids == nil {
			auctions[i].Bids = []model.Bid{}
		}
	}
	return auctions, nil
}

// RecordBid bumps the auction version and inserts the bid in one transaction.
// A concurrent writer that already moved the version makes the update match no row.
func (r *PostgresRepo) RecordBid(ctx context.Context, bid *model.Bid, expectedVersion int64) error {
	if !utils.IsValidID(bid.AuctionID) {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin bid transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := r.now().UTC()
	tag, err := tx.Exec(ctx,
		`UPDATE auctions SET version = version + 1, updated_at = $3 WHERE id = $1 AND version = $2`,
		bid.AuctionID, expectedVersion, now)
	if err != nil {
		return fmt.Errorf("bump auction %s version: %w", bid.AuctionID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auctions WHERE id = $1)`, bid.AuctionID).Scan(&exists); err != nil {
			return fmt.Errorf("check auction %s: %w", bid.AuctionID, err)
		}
		if !exists {
			return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
		}
		return fmt.Errorf("record bid for auction %s at version %d: %w",
			bid.AuctionID, expectedVersion, auctionerrors.ErrVersionConflict)
	}

	id := utils.GenerateID()
	if _, err := tx.Exec(ctx, `
		INSERT INTO bids (id, auction_id, bid_amount, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)`,
		id, bid.AuctionID, bid.BidAmount, bid.UserID, now); err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit bid transaction: %w", err)
	}

	bid.ID = id
	bid.CreatedAt = now
	bid.UpdatedAt = now
	return nil
}

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	err := row.Scan(&a.ID, &a.Name, &a.StartTime, &a.EndTime, &a.MinimumBid,
		&a.MinimumAskingPrice, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanBid(row pgx.CollectableRow) (model.Bid, error) {
	var b model.Bid
	err := row.Scan(&b.ID, &b.AuctionID, &b.BidAmount, &b.UserID, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
