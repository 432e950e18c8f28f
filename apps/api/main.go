package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	echoapi "github.com/trezcool/chuo/apps/api/echo"
	"github.com/trezcool/chuo/core"
	"github.com/trezcool/chuo/core/portal"
	"github.com/trezcool/chuo/core/user"
	logsvc "github.com/trezcool/chuo/services/logger"
	"github.com/trezcool/chuo/storage/database"
	dummydb "github.com/trezcool/chuo/storage/database/dummy"
	sqlxrepos "github.com/trezcool/chuo/storage/database/sqlx"
	"github.com/trezcool/chuo/storage/restapi"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	srcLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "SOURCE : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)

	// set up the records source
	source, db, err := setUpSource(conf, srcLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up records source: %v", err), err)
	}
	if db != nil {
		defer func() {
			if err := db.Close(); err != nil {
				srcLogger.Error("Failed to close database", err)
			}
		}()
	}

	// set up services
	portalSvc := portal.NewService(source, logger, conf.View.MaxPageSize)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(&echoapi.Options{
		Conf:           conf,
		PortalSvc:      portalSvc,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		SignalShutdown: func() { shutdown <- syscall.SIGTERM },
	})

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + conf.Server.Address)
		serverErrors <- server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			logger.Error(fmt.Sprintf("server error: %v", err), err)
		}

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
		}
	}
}

// setUpSource returns the source the portal reads records from:
// the seed file in DEV, the university backend otherwise.
// Backend records are snapshotted to the database when it is enabled, in memory if not.
func setUpSource(conf *core.Config, logger core.Logger) (portal.Source, *sqlx.DB, error) {
	if conf.Backend.SeedFile != "" {
		mem, err := dummydb.OpenFile(conf.Backend.SeedFile)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("serving records from " + conf.Backend.SeedFile)
		return dummydb.NewSource(mem), nil, nil
	}

	client := restapi.NewClient(conf.Backend, logger)
	if !conf.Database.Enabled {
		mem, err := dummydb.Open()
		if err != nil {
			return nil, nil, err
		}
		return portal.NewCachedSource(client, dummydb.NewSnapshotRepository(mem), logger), nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), conf.Backend.Timeout*3)
	defer cancel()

	if err := database.CreateIfNotExist(ctx, conf.Database); err != nil {
		return nil, nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(ctx, conf.Database)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening database")
	}
	if err = database.Migrate(ctx, db.DB, "up"); err != nil {
		_ = db.Close()
		return nil, nil, errors.Wrap(err, "migrating database")
	}
	return portal.NewCachedSource(client, sqlxrepos.NewSnapshotRepository(db), logger), db, nil
}
