package main

import (
	"context"
	"flag"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/core/portal"
	dummydb "github.com/trezcool/chuo/storage/database/dummy"
	"github.com/trezcool/chuo/storage/restapi"
)

const defaultDigestLimit = 50

func (cli *commandLine) digest(args []string) error {
	var vf viewFlags
	cmd := flag.NewFlagSet("digest", flag.ContinueOnError)
	vf.register(cmd)
	to := cmd.String("to", "", "Comma separated recipients")
	limit := cmd.Int("limit", defaultDigestLimit, "The maximum number of records in the digest")
	if err := cli.parse(cmd, args); err != nil {
		return err
	}
	if vf.collection == "" || *to == "" || *limit < 1 {
		cmd.Usage()
		return errHelp
	}

	recipients, err := mail.ParseAddressList(*to)
	if err != nil {
		return errors.Wrap(err, "parsing recipients")
	}
	c, err := portal.Lookup(vf.collection)
	if err != nil {
		return err
	}

	var source portal.Source
	if vf.file != "" {
		db, err := dummydb.OpenFile(vf.file)
		if err != nil {
			return err
		}
		source = dummydb.NewSource(db)
	} else {
		source = restapi.NewClient(cli.conf.Backend, cli.logger)
	}
	svc := portal.NewService(source, cli.logger, 0)

	state, err := c.StateFromQuery(vf.query(), cli.conf.View.DefaultPageSize)
	if err != nil {
		return err
	}
	addrs := make([]mail.Address, len(recipients))
	for i, r := range recipients {
		addrs[i] = *r
	}
	msg, err := svc.Digest(context.Background(), adminSession(), c, state, *limit, addrs...)
	if err != nil {
		return err
	}

	cli.mailSvc.SendMessages(msg)
	cli.mailSvc.Wait()
	_, _ = fmt.Fprintf(cli.out, "Digest sent to %s: %s\n", *to, msg.Subject)
	return nil
}
