package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/user"
)

var (
	isTerminalFunc = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) } // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf    *core.Config
	logger  core.Logger
	out     io.Writer
	mailSvc core.EmailService
	openDB  func(ctx context.Context) (*sql.DB, error)
}

// adminSession is the session the CLI commands compute views as.
func adminSession() user.Session {
	return user.Session{UserID: "admin", Username: "admin", Roles: []string{user.RoleAdminPrincipal}}
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  view -collection NAME -file PATH [view flags] [-json] - list a view of a JSON records file")
	_, _ = fmt.Fprintln(cli.out, "  digest -collection NAME -to EMAIL[,EMAIL] [-file PATH] [-limit N] [view flags] - email a view digest")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run snapshot store migrations (up, down, status, ...)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "view":
		return cli.view(args[2:])
	case "digest":
		return cli.digest(args[2:])
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// filterFlags collects repeated `-filter field=value` flags.
type filterFlags []string

func (f *filterFlags) String() string { return strings.Join(*f, ",") }

func (f *filterFlags) Set(s string) error {
	if !strings.Contains(s, "=") {
		return fmt.Errorf("filter %q must be of form field=value", s)
	}
	*f = append(*f, s)
	return nil
}

// viewFlags are the flags shared by the commands computing a view.
type viewFlags struct {
	collection string
	file       string
	search     string
	ordering   string
	page       int
	pageSize   int
	filters    filterFlags
}

func (vf *viewFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&vf.collection, "collection", "", "The collection to list: "+strings.Join(collectionNames(), ", "))
	fs.StringVar(&vf.file, "file", "", "A JSON file of the form {\"<collection>\": [{...}, ...]}")
	fs.StringVar(&vf.search, "search", "", "Free-text search")
	fs.StringVar(&vf.ordering, "ordering", "", "Sort field, prefixed with '-' for descending")
	fs.IntVar(&vf.page, "page", 1, "The page to show")
	fs.IntVar(&vf.pageSize, "page-size", 0, "The page size")
	fs.Var(&vf.filters, "filter", "A field filter, e.g. status=Pending or date_from=2024-01-01 (repeatable)")
}

// query returns the flags as the query parameters understood by portal.Collection.StateFromQuery.
func (vf *viewFlags) query() url.Values {
	q := make(url.Values)
	if vf.search != "" {
		q.Set(portal.ParamSearch, vf.search)
	}
	if vf.ordering != "" {
		q.Set(portal.ParamOrdering, vf.ordering)
	}
	if vf.page > 0 {
		q.Set(portal.ParamPage, strconv.Itoa(vf.page))
	}
	if vf.pageSize > 0 {
		q.Set(portal.ParamPageSize, strconv.Itoa(vf.pageSize))
	}
	for _, f := range vf.filters {
		kv := strings.SplitN(f, "=", 2)
		q.Add(kv[0], kv[1])
	}
	return q
}

func collectionNames() []string {
	all := portal.All()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
	}
	return names
}

// parse parses args into fs, turning help requests into errHelp.
func (cli *commandLine) parse(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(cli.out)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}
