package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AyushLimaye7/login-registration-dashboard/internal/contracts"
	"github.com/AyushLimaye7/login-registration-dashboard/internal/external/mmmapi"
)

var (
	loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Long: `Signs in with email and password. The token is kept in the
configured token store (TOKEN_STORE) for later commands.

The password is read from --password, then MMM_PASSWORD, then stdin.

Example:
  go run ./cmd/dashboard login --email alice@example.com`,
		RunE: runLogin,
	}

	registerCmd = &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Long: `Creates an account. Registration signs in immediately.

Example:
  go run ./cmd/dashboard register --email alice@example.com --username alice`,
		RunE: runRegister,
	}

	logoutCmd = &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored token",
		RunE:  runLogout,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show session and API health",
		RunE:  runStatus,
	}
)

var (
	authEmail    string
	authUsername string
	authPassword string
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)

	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (prefer MMM_PASSWORD or stdin)")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&authUsername, "username", "", "display name")
	_ = registerCmd.MarkFlagRequired("username")
}

// readPassword resolves the password from flag, environment or stdin
func readPassword() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if pw := os.Getenv("MMM_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	password, err := readPassword()
	if err != nil {
		return err
	}
	return signIn(cmd.Context(), func(ctx context.Context, rt *runtime) (contracts.Session, error) {
		return rt.sessions.Login(ctx, authEmail, password)
	})
}

func runRegister(cmd *cobra.Command, args []string) error {
	password, err := readPassword()
	if err != nil {
		return err
	}
	return signIn(cmd.Context(), func(ctx context.Context, rt *runtime) (contracts.Session, error) {
		return rt.sessions.Register(ctx, authEmail, authUsername, password)
	})
}

func signIn(ctx context.Context, call func(context.Context, *runtime) (contracts.Session, error)) error {
	rt, err := bootstrapCLI(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	s, err := call(ctx, rt)
	if err != nil {
		p := contracts.UserMessage(err)
		PrintError(p.Message)
		return err
	}

	PrintSuccess(fmt.Sprintf("Signed in as %s", s.Username()))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := bootstrapCLI(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	if _, err := rt.sessions.Restore(ctx); err != nil {
		rt.log.WithError(err).Debug("Session restore failed before logout")
	}
	rt.sessions.Logout(ctx)

	PrintSuccess("Signed out")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := bootstrapCLI(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	PrintDoubleSeparator()
	fmt.Println("  MMM Dashboard Status")
	PrintSeparator()

	PrintKeyValue("API", rt.api.BaseURL(), 12)
	latency, healthErr := rt.api.Health(ctx)
	switch {
	case healthErr == nil:
		PrintKeyValue("API health", fmt.Sprintf("healthy (%s)", latency.Round(time.Millisecond)), 12)
	case mmmapi.IsUnavailable(healthErr):
		PrintKeyValue("API health", "unreachable", 12)
	default:
		PrintKeyValue("API health", healthErr.Error(), 12)
	}

	PrintKeyValue("Token store", rt.cfg.Session.TokenStore, 12)
	s, err := rt.sessions.Restore(ctx)
	PrintKeyValue("Session", string(s.Status), 12)
	if s.IsAuthenticated() {
		PrintKeyValue("User", s.Username(), 12)
		if account, err := rt.controller.Account(ctx); err == nil {
			PrintKeyValue("Account age", fmt.Sprintf("%d days", account.Stats.AccountAgeDays), 12)
		}
	}
	if err != nil {
		PrintWarning(contracts.UserMessage(err).Message)
	}
	PrintDoubleSeparator()
	return nil
}
