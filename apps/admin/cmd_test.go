package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"testing"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/tests"
)

type mailer struct {
	mu   sync.Mutex
	sent []*core.EmailMessage
}

func (m *mailer) SendMessages(messages ...*core.EmailMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, messages...)
}

func (m *mailer) Wait() {}

func setup(t *testing.T) (*commandLine, *bytes.Buffer, *mailer) {
	t.Helper()
	out := new(bytes.Buffer)
	mailSvc := new(mailer)
	conf := &core.Config{AppName: "Chuo", View: core.ViewConfig{DefaultPageSize: 10, MaxPageSize: 50}}
	return &commandLine{
		conf:    conf,
		logger:  &testutil.Logger{},
		out:     out,
		mailSvc: mailSvc,
		openDB: func(context.Context) (*sql.DB, error) {
			return sql.Open("postgres", "postgres://localhost/chuo_test?sslmode=disable") // lazy, never dialed
		},
	}, out, mailSvc
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "help flag", args: []string{"view", "-h"}, wantErr: errHelp},
		{name: "view: no args", args: []string{"view"}, wantErr: errHelp},
		{name: "view: no file", args: []string{"view", "-collection", "complaints"}, wantErr: errHelp},
		{name: "digest: no recipient", args: []string{"digest", "-collection", "complaints"}, wantErr: errHelp},
		{name: "migrate: no command", args: []string{"migrate"}, wantErr: errHelp},
		{
			name: "view: malformed filter", args: []string{"view", "-collection", "complaints", "-filter", "status"},
			wantErrStr: `invalid value "status" for flag -filter: filter "status" must be of form field=value`,
		},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}

func Test_commandLine_view(t *testing.T) {
	file := testutil.FixturePath()

	t.Run("unknown collection", func(t *testing.T) {
		cli, _, _ := setup(t)
		err := cli.run([]string{"admin", "view", "-collection", "grades", "-file", file})
		assert.Equal(t, portal.ErrUnknownCollection, errors.Cause(err))
	})

	t.Run("unsortable field", func(t *testing.T) {
		cli, _, _ := setup(t)
		err := cli.run([]string{"admin", "view", "-collection", "complaints", "-file", file, "-ordering", "status"})
		assert.EqualError(t, err, `cannot order complaints by "status"`)
	})

	t.Run("json", func(t *testing.T) {
		cli, out, _ := setup(t)
		isTerminalFunc = func() bool { return true }

		args := []string{
			"admin", "view", "-collection", "complaints", "-file", file,
			"-filter", "status=Pending", "-ordering", "-importance", "-json",
		}
		require.NoError(t, cli.run(args))

		var got struct {
			Items      []map[string]interface{} `json:"items"`
			TotalItems int                      `json:"total_items"`
			Ordering   string                   `json:"ordering"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		ids := make([]float64, len(got.Items))
		for i, it := range got.Items {
			ids[i], _ = it["id"].(float64)
		}
		assert.Equal(t, []float64{3, 1, 5}, ids)
		assert.Equal(t, 3, got.TotalItems)
		assert.Equal(t, "-importance", got.Ordering)
	})

	t.Run("json when not a terminal", func(t *testing.T) {
		cli, out, _ := setup(t)
		isTerminalFunc = func() bool { return false }

		require.NoError(t, cli.run([]string{"admin", "view", "-collection", "students", "-file", file}))
		assert.True(t, json.Valid(out.Bytes()))
	})

	t.Run("table", func(t *testing.T) {
		cli, out, _ := setup(t)
		isTerminalFunc = func() bool { return true }

		args := []string{"admin", "view", "-collection", "students", "-file", file, "-page", "2", "-page-size", "3"}
		require.NoError(t, cli.run(args))
		assert.Contains(t, out.String(), "Roll No.")
		assert.Contains(t, out.String(), "Émile Dubois")
		assert.NotContains(t, out.String(), "Amani Juma")
		assert.Contains(t, out.String(), `Page 2 of 2 (4 records, ordering "name")`)
	})

	t.Run("no match", func(t *testing.T) {
		cli, out, _ := setup(t)
		isTerminalFunc = func() bool { return true }

		require.NoError(t, cli.run([]string{"admin", "view", "-collection", "students", "-file", file, "-search", "nobody"}))
		assert.Contains(t, out.String(), "No matching records.")
	})
}

func Test_commandLine_digest(t *testing.T) {
	file := testutil.FixturePath()

	tests := []struct {
		cliTest
		wantTo      []string
		wantSubject string
	}{
		{
			cliTest: cliTest{name: "bad recipients", args: []string{"-collection", "complaints", "-to", "not an email"},
				wantErrStr: "parsing recipients: mail: no angle-addr"},
		},
		{
			cliTest:     cliTest{name: "digest", args: []string{"-collection", "complaints", "-to", "dean@uni.ac.tz, Registrar <registrar@uni.ac.tz>", "-filter", "category=Hostel"}},
			wantTo:      []string{"dean@uni.ac.tz", "registrar@uni.ac.tz"},
			wantSubject: "Complaints: 2 matching record(s)",
		},
		{
			cliTest:     cliTest{name: "limited digest", args: []string{"-collection", "students", "-to", "dean@uni.ac.tz", "-limit", "1"}},
			wantTo:      []string{"dean@uni.ac.tz"},
			wantSubject: "Students: 4 matching record(s)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out, mailSvc := setup(t)
			args := append([]string{"admin", "digest", "-file", file}, tt.args...)

			err := cli.run(args)
			checkErr(t, tt.cliTest, err)
			if err != nil {
				assert.Empty(t, mailSvc.sent)
				return
			}

			require.Len(t, mailSvc.sent, 1)
			msg := mailSvc.sent[0]
			to := make([]string, len(msg.To))
			for i, a := range msg.To {
				to[i] = a.Address
			}
			assert.Equal(t, tt.wantTo, to)
			assert.Equal(t, tt.wantSubject, msg.Subject)
			require.Len(t, msg.Attachments, 1)
			assert.Contains(t, out.String(), tt.wantSubject)
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, _ := setup(t)

	gooseRunFunc = func(ctx context.Context, db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "snapshot_index", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(args))
		})
	}
}
