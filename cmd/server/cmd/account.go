package cmd

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/storage/postgres"
	"github.com/hackbox-events/server/internal/validation"
)

type accountFlags struct {
	email         string
	name          string
	role          string
	committeeID   string
	committeeName string
	mobile        string
	password      string
}

var newAccount accountFlags

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage admin, convenor and member accounts",
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long: `Create an account directly in the database.

A random password is generated and printed once when --password is omitted.

Examples:
  server account create --email admin@college.edu --name "Dean" --role admin
  server account create --email convenor@college.edu --name "Priya" --role convenor \
    --committee-id coding --committee-name "Coding Club"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbURL, _, err := migrationTarget()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		pool, err := postgres.Open(ctx, dbURL, 2)
		if err != nil {
			return err
		}
		defer pool.Close()

		repo, err := postgres.NewRepository(pool)
		if err != nil {
			return err
		}
		service := accounts.NewService(repo.Accounts(), nil, zerolog.Nop())
		return createAccount(ctx, cmd.OutOrStdout(), service, newAccount)
	},
}

func init() {
	f := accountCreateCmd.Flags()
	f.StringVar(&newAccount.email, "email", "", "login email (required)")
	f.StringVar(&newAccount.name, "name", "", "display name (required)")
	f.StringVar(&newAccount.role, "role", "member", "role: admin, convenor or member")
	f.StringVar(&newAccount.committeeID, "committee-id", "", "committee id (required for convenors)")
	f.StringVar(&newAccount.committeeName, "committee-name", "", "committee display name")
	f.StringVar(&newAccount.mobile, "mobile", "", "mobile number")
	f.StringVar(&newAccount.password, "password", "", "password (generated when empty)")
	_ = accountCreateCmd.MarkFlagRequired("email")
	_ = accountCreateCmd.MarkFlagRequired("name")

	accountCmd.AddCommand(accountCreateCmd)
}

type accountCreator interface {
	Create(ctx context.Context, input accounts.NewAccount) (*accounts.Account, error)
}

func createAccount(ctx context.Context, out io.Writer, service accountCreator, flags accountFlags) error {
	password := flags.password
	generated := password == ""
	if generated {
		var err error
		if password, err = generatePassword(18); err != nil {
			return err
		}
	}

	account, err := service.Create(ctx, accounts.NewAccount{
		Email:     flags.email,
		Password:  password,
		Name:      flags.name,
		Role:      flags.role,
		Committee: accounts.Committee{ID: flags.committeeID, Name: flags.committeeName},
		Mobile:    flags.mobile,
	})
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			return fmt.Errorf("invalid account: %w", verrs)
		}
		return fmt.Errorf("create account: %w", err)
	}

	fmt.Fprintf(out, "Created %s account %s (%s)\n", account.Role, account.Email, account.ID)
	if generated {
		fmt.Fprintf(out, "Password: %s\n", password)
	}
	return nil
}

func generatePassword(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
