package main

import (
	"log"
	"os"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/license"
	"github.com/darasahq/darasa/core/user"
	emailsvc "github.com/darasahq/darasa/services/email"
	logsvc "github.com/darasahq/darasa/services/logger"
	"github.com/darasahq/darasa/storage/database"
	sqlxrepos "github.com/darasahq/darasa/storage/database/sqlx"
)

func main() {
	conf, err := core.NewConfig()
	errAndDie(err)

	// set up logging
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewZerologLogger(conf)
	} else {
		stdLogger := log.New(os.Stdout, "DARASA-API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
		logger = logsvc.NewRollbarLogger(stdLogger, conf)
	}

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(database.Ping(db))
	errAndDie(database.Migrate(db))

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(conf, sqlxrepos.NewUserRepository(db), mailSvc, logger)

	// set up the license availability checker
	tokens := license.NewTokenSource(conf, nil)
	presence := license.NewPresenceClient(conf, tokens, nil)
	registry := license.NewRegistry(conf)
	checker := license.NewChecker(registry, presence)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Conf:     conf,
			UserSvc:  usrSvc,
			Checker:  checker,
			Registry: registry,
			Logger:   logger,
		},
	)
	errAndDie(app.Start())
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
