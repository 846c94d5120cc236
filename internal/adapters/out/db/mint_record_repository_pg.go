// internal/adapters/out/db/mint_record_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"critterforge/internal/domain/mintrecord"
	"critterforge/internal/domain/rarity"
	"critterforge/internal/domain/trait"
)

// PostgreSQL error class 23505 = unique_violation
const pgUniqueViolation = "23505"

// MintRecordRepositoryPG implements mintrecord.Repository on PostgreSQL.
// The unique index on trait_hash is the authoritative uniqueness guard for
// the whole system.
type MintRecordRepositoryPG struct {
	DB *sql.DB
}

func NewMintRecordRepositoryPG(db *sql.DB) *MintRecordRepositoryPG {
	return &MintRecordRepositoryPG{DB: db}
}

// Migrate creates the mint_records table. Idempotent.
func (r *MintRecordRepositoryPG) Migrate(ctx context.Context) error {
	if r.DB == nil {
		return errors.New("mint_record_repository_pg: db is nil")
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS mint_records (
  id                   TEXT PRIMARY KEY,
  trait_hash           TEXT NOT NULL,
  traits               JSONB NOT NULL,
  owner_address        TEXT NOT NULL,
  minter_address       TEXT NOT NULL,
  asset_address        TEXT NOT NULL,
  mint_tx_signature    TEXT NOT NULL DEFAULT '',
  metadata_uri         TEXT NOT NULL DEFAULT '',
  image_uri            TEXT NOT NULL DEFAULT '',
  image_placeholder    BOOLEAN NOT NULL DEFAULT FALSE,
  payment_tx_signature TEXT NOT NULL DEFAULT '',
  payment_amount       BIGINT NOT NULL DEFAULT 0,
  rarity_score         INTEGER NOT NULL,
  rarity_tier          TEXT NOT NULL,
  created_at           TIMESTAMPTZ NOT NULL,
  CONSTRAINT mint_records_trait_hash_key UNIQUE (trait_hash)
)`
	if _, err := r.DB.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("mint_record_repository_pg: migrate: %w", err)
	}
	return nil
}

func (r *MintRecordRepositoryPG) Create(ctx context.Context, m mintrecord.MintRecord) (mintrecord.MintRecord, error) {
	if r.DB == nil {
		return mintrecord.MintRecord{}, errors.New("mint_record_repository_pg: db is nil")
	}

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := m.Validate(); err != nil {
		return mintrecord.MintRecord{}, err
	}

	traitsJSON, err := json.Marshal(m.Traits)
	if err != nil {
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_pg: marshal traits: %w", err)
	}

	const q = `
INSERT INTO mint_records (
  id, trait_hash, traits, owner_address, minter_address, asset_address,
  mint_tx_signature, metadata_uri, image_uri, image_placeholder,
  payment_tx_signature, payment_amount, rarity_score, rarity_tier, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`

	_, err = r.DB.ExecContext(ctx, q,
		m.ID, m.TraitHash, traitsJSON, m.OwnerAddress, m.MinterAddress, m.AssetAddress,
		m.MintTxSignature, m.MetadataURI, m.ImageURI, m.ImagePlaceholder,
		m.PaymentTxSignature, m.PaymentAmount, m.RarityScore, string(m.RarityTier), m.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
			return mintrecord.MintRecord{}, mintrecord.ErrConflict
		}
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_pg: insert: %w", err)
	}

	return m, nil
}

func (r *MintRecordRepositoryPG) GetByTraitHash(ctx context.Context, traitHash string) (mintrecord.MintRecord, error) {
	if r.DB == nil {
		return mintrecord.MintRecord{}, errors.New("mint_record_repository_pg: db is nil")
	}

	const q = `
SELECT
  id, trait_hash, traits, owner_address, minter_address, asset_address,
  mint_tx_signature, metadata_uri, image_uri, image_placeholder,
  payment_tx_signature, payment_amount, rarity_score, rarity_tier, created_at
FROM mint_records
WHERE trait_hash = $1
LIMIT 1`

	row := r.DB.QueryRowContext(ctx, q, strings.ToLower(strings.TrimSpace(traitHash)))

	var (
		m          mintrecord.MintRecord
		traitsJSON []byte
		tier       string
	)
	err := row.Scan(
		&m.ID, &m.TraitHash, &traitsJSON, &m.OwnerAddress, &m.MinterAddress, &m.AssetAddress,
		&m.MintTxSignature, &m.MetadataURI, &m.ImageURI, &m.ImagePlaceholder,
		&m.PaymentTxSignature, &m.PaymentAmount, &m.RarityScore, &tier, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return mintrecord.MintRecord{}, mintrecord.ErrNotFound
		}
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_pg: select: %w", err)
	}

	var ts trait.TraitSet
	if err := json.Unmarshal(traitsJSON, &ts); err != nil {
		return mintrecord.MintRecord{}, fmt.Errorf("mint_record_repository_pg: unmarshal traits: %w", err)
	}
	m.Traits = ts
	m.RarityTier = rarity.Tier(tier)
	m.CreatedAt = m.CreatedAt.UTC()

	return m, nil
}
