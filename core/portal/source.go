package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/view"
)

// ErrNoSnapshot is returned by SnapshotStore when a collection was never saved.
var ErrNoSnapshot = errors.New("no snapshot saved")

type (
	// Snapshot is a saved copy of a collection's records.
	Snapshot struct {
		Collection string
		Records    []view.Record
		FetchedAt  time.Time // UTC
	}

	// SnapshotStore persists the last known records of each collection.
	SnapshotStore interface {
		SaveSnapshot(ctx context.Context, snap Snapshot) error
		LatestSnapshot(ctx context.Context, collection string) (Snapshot, error)
	}

	// CachedSource serves the records of its upstream source and falls back to the latest
	// saved snapshot while the upstream is failing.
	CachedSource struct {
		upstream Source
		store    SnapshotStore
		log      core.Logger
		nowFunc  func() time.Time
	}
)

var _ Source = (*CachedSource)(nil)

func NewCachedSource(upstream Source, store SnapshotStore, log core.Logger) *CachedSource {
	return &CachedSource{upstream: upstream, store: store, log: log, nowFunc: time.Now}
}

func (src *CachedSource) Fetch(ctx context.Context, c Collection) ([]view.Record, error) {
	records, err := src.upstream.Fetch(ctx, c)
	if err == nil {
		snap := Snapshot{Collection: c.Name, Records: records, FetchedAt: src.nowFunc().UTC()}
		if serr := src.store.SaveSnapshot(ctx, snap); serr != nil {
			src.log.Error("saving snapshot", serr, map[string]interface{}{"collection": c.Name})
		}
		return records, nil
	}

	snap, serr := src.store.LatestSnapshot(ctx, c.Name)
	if serr != nil {
		if errors.Cause(serr) != ErrNoSnapshot {
			src.log.Error("loading snapshot", serr, map[string]interface{}{"collection": c.Name})
		}
		return nil, errors.Wrap(ErrSourceUnavailable, err.Error())
	}
	src.log.Warn("serving saved snapshot", err, map[string]interface{}{
		"collection": c.Name,
		"fetched_at": snap.FetchedAt,
	})
	return snap.Records, nil
}

// DecodeJSON decodes records data into v. Numbers are kept as json.Number so that
// integer IDs beyond 2^53 are neither rounded nor confused with one another.
func DecodeJSON(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("invalid character after top-level value")
	}
	return nil
}
