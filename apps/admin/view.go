package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core/portal"
	dummydb "github.com/trezcool/chuo/storage/database/dummy"
)

func (cli *commandLine) view(args []string) error {
	var vf viewFlags
	cmd := flag.NewFlagSet("view", flag.ContinueOnError)
	vf.register(cmd)
	asJSON := cmd.Bool("json", false, "Print the page as JSON (default when stdout is not a terminal)")
	if err := cli.parse(cmd, args); err != nil {
		return err
	}
	if vf.collection == "" || vf.file == "" {
		cmd.Usage()
		return errHelp
	}

	c, err := portal.Lookup(vf.collection)
	if err != nil {
		return err
	}
	db, err := dummydb.OpenFile(vf.file)
	if err != nil {
		return err
	}
	svc := portal.NewService(dummydb.NewSource(db), cli.logger, 0)

	state, err := c.StateFromQuery(vf.query(), cli.conf.View.DefaultPageSize)
	if err != nil {
		return err
	}
	listing, err := svc.List(context.Background(), adminSession(), c, state)
	if err != nil {
		return err
	}

	if *asJSON || !isTerminalFunc() {
		enc := json.NewEncoder(cli.out)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(listing), "encoding listing")
	}
	return cli.printTable(c, listing)
}

func (cli *commandLine) printTable(c portal.Collection, listing portal.Listing) error {
	w := tabwriter.NewWriter(cli.out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(portal.Columns(c), "\t"))
	for _, row := range portal.Rows(c, listing.Items) {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return errors.Wrap(err, "printing table")
	}

	if listing.TotalItems == 0 {
		_, _ = fmt.Fprintln(cli.out, "No matching records.")
		return nil
	}
	_, _ = fmt.Fprintf(cli.out, "Page %d of %d (%d records, ordering %q)\n",
		listing.CurrentPage, listing.TotalPages, listing.TotalItems, listing.Ordering)
	return nil
}
