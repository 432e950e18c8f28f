package dummydb

import (
	"context"

	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/view"
)

type recordSource struct {
	db *recordTable
}

var _ portal.Source = (*recordSource)(nil) // interface compliance check

// NewSource serves the records stored in db, keyed by collection name.
func NewSource(db *DB) portal.Source {
	return &recordSource{db: db.records}
}

func (src *recordSource) Fetch(ctx context.Context, c portal.Collection) ([]view.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src.db.RLock()
	defer src.db.RUnlock()

	records := src.db.table[c.Name]
	out := make([]view.Record, len(records))
	copy(out, records)
	return out, nil
}
