// seedadmin creates the bootstrap admin account.  Running it again with
// the same email is a no-op.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/iliyamo/docmanager/internal/config"
	"github.com/iliyamo/docmanager/internal/database"
	"github.com/iliyamo/docmanager/internal/logging"
	"github.com/iliyamo/docmanager/internal/repository"
	"github.com/iliyamo/docmanager/internal/service"
	"github.com/iliyamo/docmanager/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	seed := config.LoadSeedConfig()

	flagSet := pflag.NewFlagSet("seedadmin", pflag.ContinueOnError)
	flagSet.StringVar(&seed.Email, "email", seed.Email, "admin email (SEED_ADMIN_EMAIL)")
	flagSet.StringVar(&seed.Password, "password", seed.Password, "admin password (SEED_ADMIN_PASSWORD)")
	flagSet.StringVar(&seed.Name, "name", seed.Name, "admin display name (SEED_ADMIN_NAME)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if seed.Email == "" || seed.Password == "" {
		return fmt.Errorf("email and password are required")
	}

	d, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	ctx := context.Background()
	db, err := database.Open(ctx, database.DSN(d.User, d.Pass, d.Host, d.Port, d.Name))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	logger := logging.New("info", "text", os.Stderr)
	// EnsureAdmin issues no token, so no issuer is needed.
	auth := service.NewAuthService(repository.NewUserRepo(db), nil, utils.DefaultBcryptCost, logger)

	u, created, err := auth.EnsureAdmin(ctx, service.RegisterInput{Email: seed.Email, Password: seed.Password, Name: seed.Name})
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("admin %s created (id %s)\n", u.Email, u.ID)
	} else {
		fmt.Printf("user %s already exists with role %s\n", u.Email, u.Role)
	}
	return nil
}
