package dummydb

import (
	"context"

	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/view"
)

// snapshots kept per collection
const maxSnapshots = 5

type snapshotRepository struct {
	db *snapshotTable
}

var _ portal.SnapshotStore = (*snapshotRepository)(nil) // interface compliance check

func NewSnapshotRepository(db *DB) portal.SnapshotStore {
	return &snapshotRepository{db: db.snapshots}
}

func (repo *snapshotRepository) SaveSnapshot(_ context.Context, snap portal.Snapshot) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	records := make([]view.Record, len(snap.Records))
	copy(records, snap.Records)
	snap.Records = records

	snaps := append(repo.db.table[snap.Collection], snap)
	if len(snaps) > maxSnapshots {
		snaps = snaps[len(snaps)-maxSnapshots:]
	}
	repo.db.table[snap.Collection] = snaps
	return nil
}

func (repo *snapshotRepository) LatestSnapshot(_ context.Context, collection string) (portal.Snapshot, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	snaps := repo.db.table[collection]
	if len(snaps) == 0 {
		return portal.Snapshot{}, portal.ErrNoSnapshot
	}
	return snaps[len(snaps)-1], nil
}
