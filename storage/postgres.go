package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auctionpipe/identity"
	"auctionpipe/models"
)

// ArchiveStore mirrors imported records into Postgres for analysis. The
// record store stays the operational source of truth; the archive is a
// queryable history and is optional (nil when no DSN is configured).
type ArchiveStore struct {
	pool *pgxpool.Pool
}

func NewArchiveStore(ctx context.Context, connString string) (*ArchiveStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &ArchiveStore{pool: pool}
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return store, nil
}

func (s *ArchiveStore) Close() {
	s.pool.Close()
}

func (s *ArchiveStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS auction_records (
			id UUID PRIMARY KEY,
			fingerprint TEXT UNIQUE NOT NULL,
			auction_name TEXT,
			auction_date TEXT,
			address TEXT,
			postcode TEXT,
			lot_number TEXT,
			auction_sale TEXT,
			purchase_price TEXT,
			sold_date TEXT,
			guide_price TEXT,
			auction_url TEXT,
			source_url TEXT,
			qa_status TEXT,
			route TEXT,
			ingested_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	return err
}

// InsertRecord archives a routed record. Re-importing the same lot is a
// no-op thanks to the fingerprint constraint.
func (s *ArchiveStore) InsertRecord(ctx context.Context, rec *models.PropertyRecord, route models.RouteDecision) error {
	ingested, _ := models.ParseTimestamp(rec.IngestedAt)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auction_records (
			id, fingerprint, auction_name, auction_date, address, postcode,
			lot_number, auction_sale, purchase_price, sold_date, guide_price,
			auction_url, source_url, qa_status, route, ingested_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (fingerprint) DO NOTHING`,
		uuid.New(), identity.Fingerprint(rec),
		rec.AuctionName, rec.AuctionDate, rec.Address, rec.Postcode,
		rec.LotNumber, rec.AuctionSale, rec.PurchasePrice, rec.SoldDate,
		rec.GuidePrice, rec.AuctionURL, rec.SourceURL, rec.QAStatus,
		string(route), ingested)
	return err
}

func (s *ArchiveStore) CountRecords(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM auction_records`).Scan(&count)
	return count, err
}

func (s *ArchiveStore) GetRecordByFingerprint(ctx context.Context, fingerprint string) (*models.PropertyRecord, error) {
	var rec models.PropertyRecord
	var route string
	var ingested time.Time
	err := s.pool.QueryRow(ctx, `
		SELECT auction_name, auction_date, address, postcode, lot_number,
			auction_sale, purchase_price, sold_date, guide_price,
			auction_url, source_url, qa_status, route, ingested_at
		FROM auction_records WHERE fingerprint = $1`, fingerprint).Scan(
		&rec.AuctionName, &rec.AuctionDate, &rec.Address, &rec.Postcode, &rec.LotNumber,
		&rec.AuctionSale, &rec.PurchasePrice, &rec.SoldDate, &rec.GuidePrice,
		&rec.AuctionURL, &rec.SourceURL, &rec.QAStatus, &route, &ingested)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.IngestedAt = ingested.Format(time.RFC3339)
	return &rec, nil
}
