// Command createadmin creates an administrator account in the configured
// database. It reads the same configuration sources as the server and adds
// -handle and -password; without -password it prompts on the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/flagx"
	"github.com/dmitrijs2005/gophgate/internal/logging"
	"github.com/dmitrijs2005/gophgate/internal/server/auth"
	"github.com/dmitrijs2005/gophgate/internal/server/config"
	"github.com/dmitrijs2005/gophgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophgate/internal/server/services"
	"golang.org/x/term"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "createadmin:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var handle, password string

	fs := flag.NewFlagSet("createadmin", flag.ContinueOnError)
	fs.StringVar(&handle, "handle", "admin", "administrator handle")
	fs.StringVar(&password, "password", "", "administrator password (prompted when empty)")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-handle", "--handle", "-password", "--password"})); err != nil {
		return err
	}

	cfg, err := config.Load(args, os.LookupEnv)
	if err != nil {
		return err
	}

	if password == "" {
		password, err = promptPassword(out)
		if err != nil {
			return err
		}
	}

	logger, err := logging.New(cfg.LogBackend, cfg.LogLevel, os.Stderr)
	if err != nil {
		return err
	}

	db, repos, err := repomanager.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repos.RunMigrations(ctx, db); err != nil {
		return err
	}

	hasher, err := auth.NewPasswordHasher(cfg.BcryptCost, 1, nil)
	if err != nil {
		return err
	}

	admin := services.NewAccountAdminService(services.Dependencies{
		DB:     db,
		Repos:  repos,
		Hasher: hasher,
		Logger: logger,
	})

	acc, err := admin.EnsureAdmin(ctx, handle, password)
	if errors.Is(err, common.ErrDuplicateHandle) {
		return fmt.Errorf("account %q already exists", services.NormalizeHandle(handle))
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "admin account %s created (id %s)\n", acc.Handle, acc.ID)
	return nil
}

func promptPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no -password given and stdin is not a terminal")
	}

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	defer common.WipeByteArray(first)
	if err != nil {
		return "", err
	}
	fmt.Fprint(out, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	defer common.WipeByteArray(second)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
