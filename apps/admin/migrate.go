package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/chuo/storage/database"
)

var gooseRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	ctx := context.Background()
	db, err := cli.openDB(ctx)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()

	return gooseRunFunc(ctx, db, args[0], args[1:]...)
}
