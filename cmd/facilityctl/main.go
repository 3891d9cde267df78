// facilityctl is the operator tool for a facility-booking deployment.  It
// reads the same environment as the API server.
//
//	facilityctl migrate
//	facilityctl promote --email boss@example.com [--password secret]
//	facilityctl seed --file facilities.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/iliyamo/facility-booking/internal/config"
	"github.com/iliyamo/facility-booking/internal/database"
	"github.com/iliyamo/facility-booking/internal/repository"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage()
		return nil
	}
	switch args[0] {
	case "migrate", "promote", "seed":
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	cmd, rest := args[0], args[1:]
	var email, password, file string
	flagSet := pflag.NewFlagSet("facilityctl "+cmd, pflag.ContinueOnError)
	switch cmd {
	case "promote":
		flagSet.StringVar(&email, "email", "", "account to create or promote")
		flagSet.StringVar(&password, "password", "", "password when the account does not exist yet")
	case "seed":
		flagSet.StringVarP(&file, "file", "f", "facilities.yaml", "YAML file listing facilities")
	}
	if err := flagSet.Parse(rest); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	switch cmd {
	case "migrate":
		fmt.Println("schema is up to date")
	case "promote":
		if email == "" {
			return errors.New("--email is required")
		}
		created, err := repository.EnsurePrivileged(ctx, repository.NewAccountRepo(db), email, password, cfg.BcryptCost)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("created privileged account %s\n", email)
		} else {
			fmt.Printf("%s is privileged\n", email)
		}
	case "seed":
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		items, err := parseSeed(data)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		n, err := seedFacilities(ctx, repository.NewBookingRepo(db), items)
		if err != nil {
			return err
		}
		fmt.Printf("added %d of %d facilities\n", n, len(items))
	}
	return nil
}

func printUsage() {
	fmt.Fprint(os.Stderr, `usage: facilityctl <command> [flags]

commands:
  migrate                       create missing tables
  promote --email E [--password P]
                                create or promote a privileged account
  seed [--file facilities.yaml] add facilities that do not exist yet
`)
}
