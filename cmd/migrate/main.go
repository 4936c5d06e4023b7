// migrate applies or reverts the embedded schema migrations against the
// database named by the DB_* environment variables.
//
//	migrate up       apply every pending migration (default)
//	migrate down     revert the most recent migration
//	migrate status   print the state of each migration
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/iliyamo/docmanager/internal/config"
	"github.com/iliyamo/docmanager/internal/database"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var dsn string
	flagSet := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	flagSet.StringVar(&dsn, "dsn", "", "MySQL DSN (default: built from DB_* variables)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	command := "up"
	if args := flagSet.Args(); len(args) > 0 {
		command = args[0]
	}

	if dsn == "" {
		config.LoadDotEnv()
		d, err := config.LoadDatabase()
		if err != nil {
			return err
		}
		dsn = database.DSN(d.User, d.Pass, d.Host, d.Port, d.Name)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	switch command {
	case "up":
		return database.Migrate(ctx, db)
	case "down":
		return database.Rollback(ctx, db)
	case "status":
		return database.MigrationStatus(ctx, db)
	default:
		return fmt.Errorf("unknown command %q (want up, down or status)", command)
	}
}
