package dummydb

import (
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/view"
)

type (
	DB struct {
		records   *recordTable
		snapshots *snapshotTable
	}

	recordTable struct {
		sync.RWMutex
		table map[string][]view.Record // {collection: records}
	}

	snapshotTable struct {
		sync.RWMutex
		table map[string][]portal.Snapshot // {collection: snapshots, oldest first}
	}
)

func Open() (*DB, error) {
	db := &DB{
		records:   &recordTable{table: make(map[string][]view.Record)},
		snapshots: &snapshotTable{table: make(map[string][]portal.Snapshot)},
	}
	return db, nil
}

// OpenFile opens a DB seeded from a JSON file of the form {"<collection>": [{...}, ...]}.
func OpenFile(path string) (*DB, error) {
	db, _ := Open()
	if err := db.LoadFile(path); err != nil {
		return nil, err
	}
	return db, nil
}

// LoadFile replaces the records of every collection found in the JSON file at path.
func (db *DB) LoadFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading seed file")
	}
	var data map[string][]view.Record
	if err := portal.DecodeJSON(content, &data); err != nil {
		return errors.Wrapf(err, "decoding seed file %s", path)
	}
	for name, records := range data {
		db.Put(name, records)
	}
	return nil
}

// Put replaces the records of collection.
func (db *DB) Put(collection string, records []view.Record) {
	db.records.Lock()
	defer db.records.Unlock()
	db.records.table[collection] = records
}
