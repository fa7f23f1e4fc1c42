package cli

import (
	"errors"
	"fmt"

	"github.com/lazypower/decisionos/internal/auth"
	"github.com/lazypower/decisionos/internal/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <account-id>",
	Short: "Mint a session token for an account",
	Long:  "Mint a bearer token signed with JWT_SECRET. Intended for local development in place of a real sign-in flow.",
	Args:  cobra.ExactArgs(1),
	RunE:  runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	a, err := auth.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.SessionTTL)
	if errors.Is(err, auth.ErrNoSecret) {
		return fmt.Errorf("set JWT_SECRET to mint tokens")
	}
	if err != nil {
		return err
	}
	tok, err := a.Issue(args[0])
	if err != nil {
		return fmt.Errorf("issue token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
