package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cast"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/user"
	"github.com/trezcool/chuo/core/view"
	"github.com/trezcool/chuo/storage/database/dummy"
)

// FixturePath is the path of the portal records fixture.
func FixturePath() string {
	return filepath.Join(core.Getwd(), "tests", "testdata", "portal.json")
}

// PrepareDB returns an in-memory DB seeded with the portal fixture.
func PrepareDB(t *testing.T) *dummydb.DB {
	t.Helper()
	db, err := dummydb.OpenFile(FixturePath())
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// Records fetches the fixture records of collection.
func Records(t *testing.T, collection string) []view.Record {
	t.Helper()
	c, err := portal.Lookup(collection)
	if err != nil {
		t.Fatalf("Records() failed: %v", err)
	}
	records, err := dummydb.NewSource(PrepareDB(t)).Fetch(context.Background(), c)
	if err != nil {
		t.Fatalf("Records() failed: %v", err)
	}
	return records
}

// IDs returns the "id" field of each record as a float.
func IDs(records []view.Record) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, cast.ToFloat64(r["id"]))
	}
	return out
}

func AdminSession() user.Session {
	return user.Session{UserID: "1", Username: "admin", Email: "admin@uni.ac.tz", Roles: []string{user.RoleAdminPrincipal}}
}

func TeacherSession() user.Session {
	return user.Session{UserID: "50", Username: "teacher", Email: "teacher@uni.ac.tz", Roles: []string{user.RoleTeacher}}
}

func StudentSession(id int) user.Session {
	return user.Session{
		UserID:   fmt.Sprint(id),
		Username: fmt.Sprintf("student%d", id),
		Email:    fmt.Sprintf("student%d@uni.ac.tz", id),
		Roles:    []string{user.RoleStudent},
	}
}

// LogEntry is a message recorded by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger recording what it is given.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) add(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

// Levels returns the level of each recorded entry.
func (l *Logger) Levels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Level
	}
	return out
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.add("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.add("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.add("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.add("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.add("fatal", msg, args) }

// FailingSource is a portal.Source that always fails with Err.
type FailingSource struct {
	Err error
}

func (src FailingSource) Fetch(context.Context, portal.Collection) ([]view.Record, error) {
	return nil, src.Err
}
