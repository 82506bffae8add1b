// hrauthctl provisions tenant users and policy documents
//
//	hrauthctl create-user -d postgres://... -t <tenant> --email hr@example.com --role Manager
//	hrauthctl set-policy -d postgres://... -t <tenant> -f policy.json
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/hrauth/internal/db"
	"github.com/nkiryanov/hrauth/internal/logger"
	"github.com/nkiryanov/hrauth/internal/repository"
	"github.com/nkiryanov/hrauth/internal/repository/postgres"
	"github.com/nkiryanov/hrauth/internal/service/policy"
	"github.com/nkiryanov/hrauth/internal/service/user"
)

const usage = `usage: hrauthctl <command> [flags]

commands:
  create-user   create tenant user
  set-policy    replace tenant policy document
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdin, os.Stdout, os.Getenv, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type command struct {
	flags *pflag.FlagSet
	exec  func(ctx context.Context, storage repository.Storage) error

	dsn    string
	tenant string
}

func run(ctx context.Context, stdin io.Reader, stdout io.Writer, getenv func(string) string, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	var cmd *command
	switch args[0] {
	case "create-user":
		cmd = createUserCommand(stdin, stdout)
	case "set-policy":
		cmd = setPolicyCommand(stdin, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}

	cmd.flags.StringVarP(&cmd.dsn, "database", "d", getenv("DATABASE_URI"), "Database connection string")
	cmd.flags.StringVarP(&cmd.tenant, "tenant", "t", "", "Tenant id")
	if err := cmd.flags.Parse(args[1:]); err != nil {
		return err
	}

	if cmd.dsn == "" {
		return errors.New("database is required")
	}

	pool, err := db.ConnectAndMigrate(ctx, cmd.dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	return cmd.exec(ctx, postgres.NewStorage(pool))
}

func (c *command) tenantID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.tenant)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid tenant %q", c.tenant)
	}
	return id, nil
}

func createUserCommand(stdin io.Reader, stdout io.Writer) *command {
	c := &command{flags: pflag.NewFlagSet("create-user", pflag.ContinueOnError)}

	email := c.flags.String("email", "", "User email")
	password := c.flags.String("password", "", "User password, read from stdin if empty")
	roles := c.flags.StringSlice("role", nil, "User role, may be repeated")
	systemAdmin := c.flags.Bool("system-admin", false, "Grant system administrator")

	c.exec = func(ctx context.Context, storage repository.Storage) error {
		tenantID, err := c.tenantID()
		if err != nil {
			return err
		}

		if *password == "" {
			line, err := bufio.NewReader(stdin).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read password: %w", err)
			}
			*password = strings.TrimRight(line, "\r\n")
		}

		u, err := user.NewService(nil, storage.User()).CreateUser(ctx, user.NewUser{
			TenantID:      tenantID,
			Email:         *email,
			Password:      *password,
			Roles:         *roles,
			IsSystemAdmin: *systemAdmin,
		})
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(stdout, u.ID)
		return err
	}
	return c
}

func setPolicyCommand(stdin io.Reader, stdout io.Writer) *command {
	c := &command{flags: pflag.NewFlagSet("set-policy", pflag.ContinueOnError)}

	file := c.flags.StringP("file", "f", "-", "Policy document file, '-' for stdin")

	c.exec = func(ctx context.Context, storage repository.Storage) error {
		tenantID, err := c.tenantID()
		if err != nil {
			return err
		}

		var raw []byte
		if *file == "-" {
			raw, err = io.ReadAll(stdin)
		} else {
			raw, err = os.ReadFile(*file)
		}
		if err != nil {
			return fmt.Errorf("read policy document: %w", err)
		}

		engine := policy.New(storage.TenantConfig(), logger.NewNoOpLogger())
		if err := engine.SetDocument(ctx, tenantID, raw); err != nil {
			return err
		}

		_, err = fmt.Fprintln(stdout, "policy document updated")
		return err
	}
	return c
}
