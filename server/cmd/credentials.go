package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/phambaophuc/image-ingest/internal/services/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage credentials stored in redis",
}

// passwordEnv supplies the password when --password-stdin is not given.
const passwordEnv = "INGEST_CREDENTIAL_PASSWORD"

var credentialsSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Store a bcrypt hash of the password for username",
	Long: "Store a bcrypt hash of the password for username. The password is read\n" +
		"from the first line of stdin with --password-stdin, otherwise from " + passwordEnv + ".",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fromStdin, _ := cmd.Flags().GetBool("password-stdin")
		password, err := promptOrReadPassword(cmd, fromStdin)
		if err != nil {
			return err
		}

		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		client := newRedisClient(cfg)
		defer client.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		verifier := auth.NewRedisVerifier(client, cfg.Auth.RedisKey)
		if err := verifier.SetCredential(ctx, args[0], password); err != nil {
			return err
		}

		logger.Info("Credential stored", zap.String("username", args[0]), zap.String("key", cfg.Auth.RedisKey))
		return nil
	},
}

// promptOrReadPassword asks without echo when stdin is a terminal.
func promptOrReadPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && fromStdin && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		if len(raw) == 0 {
			return "", errors.New("password is empty")
		}
		return string(raw), nil
	}
	return readPassword(cmd.InOrStdin(), fromStdin)
}

// readPassword keeps the secret off the command line, where it would show up
// in the process list and shell history.
func readPassword(in io.Reader, fromStdin bool) (string, error) {
	if !fromStdin {
		password := os.Getenv(passwordEnv)
		if password == "" {
			return "", fmt.Errorf("password required: pass --password-stdin or set %s", passwordEnv)
		}
		return password, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password from stdin: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password read from stdin is empty")
	}
	return password, nil
}

func init() {
	credentialsSetCmd.Flags().Bool("password-stdin", false, "read the password from stdin")
	credentialsCmd.AddCommand(credentialsSetCmd)
}
