package main

import (
	"context"
	"fmt"
	"os"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/finance"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/services/logger"
	"github.com/trezcool/shule/storage/database"
	"github.com/trezcool/shule/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.New("ADMIN", conf)

	// set up DB; migrations are left to the `migrate` command
	if err := database.CreateIfNotExist(context.Background(), conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:     db,
		conf:   conf,
		finSvc: finance.NewService(sqlxrepos.NewFinanceRepository(db), emailsvc.NewConsoleService(conf), logger, conf),
		acaSvc: academic.NewService(sqlxrepos.NewAcademicRepository(db)),
		out:    os.Stdout,
	}
	err = cli.run(os.Args[1:])
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
