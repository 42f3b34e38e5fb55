package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"

	"golang.org/x/term"

	"github.com/libertas-alpha/auth-service/pkg/client"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

// readPassword is a seam for tests; production reads from the terminal
// without echo.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(data), nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "Usage: auth <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  register         Create a new account")
	fmt.Fprintln(out, "  login            Log in and store the session")
	fmt.Fprintln(out, "  me               Show the current identity")
	fmt.Fprintln(out, "  forgot-password  Request a password reset link")
	fmt.Fprintln(out, "  reset-password   Complete a password reset")
	fmt.Fprintln(out, "  logout           Discard the stored session")
	fmt.Fprintln(out, "  version          Print build info")
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(os.Stderr)
		return errors.New("command required")
	}

	command, args := args[0], args[1:]
	if command == "version" {
		fmt.Fprintf(out, "auth version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
		return nil
	}
	if command == "help" {
		usage(out)
		return nil
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	serverURL := fs.String("server", envOr("AUTH_SERVER_URL", "http://localhost:8080"), "Auth service base URL")
	sessionPath := fs.String("session", "", "Session file path (default ~/.auth-service/session.json)")

	var username, email, token string
	switch command {
	case "register":
		fs.StringVar(&username, "username", "", "Username")
		fs.StringVar(&email, "email", "", "Email address")
	case "login", "forgot-password":
		fs.StringVar(&email, "email", "", "Email address")
	case "reset-password":
		fs.StringVar(&token, "token", "", "Reset token from the emailed link")
	case "me", "logout":
	default:
		usage(os.Stderr)
		return fmt.Errorf("unknown command %q", command)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *sessionPath == "" {
		path, err := client.DefaultSessionPath()
		if err != nil {
			return err
		}
		*sessionPath = path
	}

	c := client.New(*serverURL, client.NewFileSessionStore(*sessionPath))
	c.OnUnauthenticated = func() {
		fmt.Fprintln(os.Stderr, "Session expired, please log in again")
	}

	ctx := context.Background()

	switch command {
	case "register":
		if username == "" || email == "" {
			return errors.New("-username and -email are required")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		user, msg, err := c.Register(ctx, username, email, password)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(out, msg)
		fmt.Fprintf(out, "Wallet address: %s\n", user.WalletAddress)
		return nil

	case "login":
		if email == "" {
			return errors.New("-email is required")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}
		user, err := c.Login(ctx, email, password)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(out, "Logged in as %s (%s)\n", user.Username, user.Email)
		return nil

	case "me":
		user, err := c.Me(ctx)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(out, "ID:      %d\n", user.ID)
		fmt.Fprintf(out, "User:    %s\n", user.Username)
		fmt.Fprintf(out, "Email:   %s\n", user.Email)
		fmt.Fprintf(out, "Wallet:  %s\n", user.WalletAddress)
		return nil

	case "forgot-password":
		if email == "" {
			return errors.New("-email is required")
		}
		msg, err := c.ForgotPassword(ctx, email)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(out, msg)
		return nil

	case "reset-password":
		if token == "" {
			return errors.New("-token is required")
		}
		password, err := readPassword("New password: ")
		if err != nil {
			return err
		}
		msg, err := c.ResetPassword(ctx, token, password)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(out, msg)
		return nil

	case "logout":
		if err := c.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")
		return nil
	}

	return nil
}

// describe turns the client's typed errors into actionable messages.
func describe(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}

	var tErr *client.TransportError
	if errors.As(err, &tErr) {
		switch tErr.Kind {
		case client.KindUnreachable:
			return fmt.Errorf("cannot reach the server at %s, is it running?", tErr.URL)
		case client.KindNonJSON:
			return fmt.Errorf("%s did not answer like an auth service, check the -server URL", tErr.URL)
		}
	}
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
