package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/trezcool/chuo/core"
	emailsvc "github.com/trezcool/chuo/services/email"
	logsvc "github.com/trezcool/chuo/services/logger"
	"github.com/trezcool/chuo/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		conf:    conf,
		logger:  logger,
		out:     os.Stdout,
		mailSvc: mailSvc,
		openDB: func(ctx context.Context) (*sql.DB, error) {
			if err := database.CreateIfNotExist(ctx, conf.Database); err != nil {
				return nil, err
			}
			db, err := database.Open(ctx, conf.Database)
			if err != nil {
				return nil, err
			}
			return db.DB, nil
		},
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}
