package sqlxrepos

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/view"
)

type snapshotRow struct {
	ID          uuid.UUID      `db:"id"`
	Collection  string         `db:"collection"`
	Payload     types.JSONText `db:"payload"`
	RecordCount int            `db:"record_count"`
	ETag        null.String    `db:"etag"` // NULL for rows saved before etags
	FetchedAt   time.Time      `db:"fetched_at"`
}

func newSnapshotRow(snap portal.Snapshot) (snapshotRow, error) {
	records := snap.Records
	if records == nil {
		records = []view.Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return snapshotRow{}, errors.Wrap(err, "encoding snapshot")
	}
	sum := sha256.Sum256(payload)
	return snapshotRow{
		ID:          uuid.New(),
		Collection:  snap.Collection,
		Payload:     types.JSONText(payload),
		RecordCount: len(records),
		ETag:        null.StringFrom(hex.EncodeToString(sum[:])),
		FetchedAt:   snap.FetchedAt.UTC(),
	}, nil
}

func (row snapshotRow) snapshot() (portal.Snapshot, error) {
	var records []view.Record
	if err := portal.DecodeJSON(row.Payload, &records); err != nil {
		return portal.Snapshot{}, errors.Wrapf(err, "decoding snapshot %s", row.ID)
	}
	return portal.Snapshot{Collection: row.Collection, Records: records, FetchedAt: row.FetchedAt.UTC()}, nil
}

type snapshotRepository struct {
	db *sqlx.DB
}

var _ portal.SnapshotStore = (*snapshotRepository)(nil) // interface compliance check

func NewSnapshotRepository(db *sqlx.DB) portal.SnapshotStore {
	return &snapshotRepository{db: db}
}

// SaveSnapshot inserts snap, or only refreshes the fetch time of the latest snapshot when the records did not change.
func (repo *snapshotRepository) SaveSnapshot(ctx context.Context, snap portal.Snapshot) error {
	row, err := newSnapshotRow(snap)
	if err != nil {
		return err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var latest snapshotRow
	err = tx.GetContext(ctx, &latest, `
		SELECT id, etag FROM record_snapshots
		WHERE collection = $1
		ORDER BY fetched_at DESC
		LIMIT 1`, row.Collection)
	switch {
	case err == nil && latest.ETag.Valid && latest.ETag.String == row.ETag.String:
		_, err = tx.ExecContext(ctx, `UPDATE record_snapshots SET fetched_at = $1 WHERE id = $2`, row.FetchedAt, latest.ID)
	case err == nil || errors.Cause(err) == sql.ErrNoRows:
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO record_snapshots (id, collection, payload, record_count, etag, fetched_at)
			VALUES (:id, :collection, :payload, :record_count, :etag, :fetched_at)`, row)
	}
	if err != nil {
		return errors.Wrap(err, "saving snapshot")
	}
	return errors.Wrap(tx.Commit(), "saving snapshot")
}

func (repo *snapshotRepository) LatestSnapshot(ctx context.Context, collection string) (portal.Snapshot, error) {
	var row snapshotRow
	err := repo.db.GetContext(ctx, &row, `
		SELECT id, collection, payload, record_count, etag, fetched_at FROM record_snapshots
		WHERE collection = $1
		ORDER BY fetched_at DESC
		LIMIT 1`, collection)
	if err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return portal.Snapshot{}, portal.ErrNoSnapshot
		}
		return portal.Snapshot{}, errors.Wrap(err, "loading snapshot")
	}
	return row.snapshot()
}
