// Command tokencheck inspects and mutates the credentials a dashauth client
// keeps on disk. It is a manual testing aid for the refresh flow.
//
//	tokencheck login -email ops@example.com
//	tokencheck show
//	tokencheck expire
//	tokencheck probe
//	tokencheck clear
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aussiebroadwan/dashauth/internal/inspect"
	"github.com/aussiebroadwan/dashauth/pkg/authsdk"
	"github.com/aussiebroadwan/dashauth/pkg/slogx"
	"golang.org/x/term"
)

const usage = `usage: tokencheck [flags] <command> [command flags]

commands:
  login    log in and store the token pair (-email, -otp)
  show     report stored keys and token expiry
  expire   rewrite the stored access token's exp into the past
  probe    call GET /v1/me and report whether a refresh happened
  clear    remove all stored credentials
  enroll   enroll TOTP for the stored session
  logout   revoke the stored session and clear credentials

environment:
  DASHAUTH_URL          service base URL (default http://localhost:8080)
  DASHAUTH_CREDENTIALS  credential database (default dashauth-credentials.db)
`

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("tokencheck", flag.ContinueOnError)
	fs.Usage = func() { fmt.Fprint(os.Stderr, usage) }

	baseURL := fs.String("url", getEnvOrDefault("DASHAUTH_URL", "http://localhost:8080"), "service base URL")
	credPath := fs.String("credentials", getEnvOrDefault("DASHAUTH_CREDENTIALS", "dashauth-credentials.db"), "credential database path")
	level := fs.String("log-level", "info", "log level")
	timeout := fs.Duration("timeout", 30*time.Second, "overall command timeout")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	logger := slogx.New(slogx.Config{
		Service: "tokencheck",
		Level:   *level,
		Format:  "text",
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	ctx = slogx.WithContext(ctx, logger)

	store, err := authsdk.OpenSQLiteCredentialStore(ctx, *credPath)
	if err != nil {
		logger.Error("failed to open credential store", "path", *credPath, "err", err)
		return 1
	}
	defer store.Close()

	client := authsdk.NewSDKClient(*baseURL)
	insp := inspect.New(store, client, logger)

	cmd, args := fs.Arg(0), fs.Args()[1:]
	var ok bool
	switch cmd {
	case "show":
		insp.Show(ctx)
		ok = true
	case "expire":
		ok = insp.ExpireAccessToken(ctx)
	case "clear":
		ok = insp.Clear(ctx)
	case "probe":
		ok = insp.Probe(ctx).OK
	case "login":
		ok = login(ctx, client, store, args)
	case "enroll":
		ok = enroll(ctx, client, store)
	case "logout":
		ok = logout(ctx, client, store)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}

	if !ok {
		return 1
	}
	return 0
}

func login(ctx context.Context, client *authsdk.SDKClient, store authsdk.CredentialStore, args []string) bool {
	log := slogx.FromContext(ctx)

	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	otp := fs.String("otp", "", "one-time code, if MFA is enabled")
	if err := fs.Parse(args); err != nil {
		return false
	}
	if *email == "" {
		log.Error("login needs -email")
		return false
	}

	password, err := readPassword("Password: ")
	if err != nil {
		log.Error("failed to read password", "err", err)
		return false
	}

	session, err := client.LoginSession(ctx, store, authsdk.LoginRequest{
		Email:    *email,
		Password: password,
		OTP:      *otp,
	})
	if err != nil {
		log.Error("login failed", "err", err)
		return false
	}

	log.Info("logged in", "email", *email, "access_exp", session.ExpiresAt().Format(time.RFC3339))
	return true
}

func enroll(ctx context.Context, client *authsdk.SDKClient, store authsdk.CredentialStore) bool {
	log := slogx.FromContext(ctx)

	session, err := client.ResumeSession(ctx, store)
	if err != nil {
		log.Error("failed to resume session", "err", err)
		return false
	}

	enrollment, err := session.EnrollMFA(ctx)
	if err != nil {
		log.Error("enrollment failed", "err", err)
		return false
	}

	fmt.Printf("Add this account to your authenticator app:\n\n  %s\n\nSecret: %s\n\n", enrollment.URL, enrollment.Secret)

	code, err := readLine("Code: ")
	if err != nil {
		log.Error("failed to read code", "err", err)
		return false
	}

	user, err := session.VerifyMFA(ctx, code)
	if err != nil {
		log.Error("verification failed", "err", err)
		return false
	}

	log.Info("mfa enabled", "user_id", user.ID)
	return true
}

func logout(ctx context.Context, client *authsdk.SDKClient, store authsdk.CredentialStore) bool {
	log := slogx.FromContext(ctx)

	session, err := client.ResumeSession(ctx, store)
	if err != nil {
		log.Error("failed to resume session", "err", err)
		return false
	}
	if err := session.Logout(ctx); err != nil {
		log.Error("logout failed", "err", err)
		return false
	}

	log.Info("logged out")
	return true
}

// readPassword prompts without echo when stdin is a terminal.
func readPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readLine("")
	}

	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(os.Stderr, prompt)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
