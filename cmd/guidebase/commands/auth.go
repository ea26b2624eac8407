package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/guidebase/guidebase/internal/gateway"
	"github.com/guidebase/guidebase/internal/session"
)

// LoginCommand signs in as an editor and persists the verified credential.
// The password is read from GUIDEBASE_PASSWORD or prompted on stdin.
// Usage: guidebase login <username>
func LoginCommand(args []string) error {
	flags := parseArgs(args)
	if len(flags.positional) < 1 {
		return fmt.Errorf("usage: guidebase login <username>")
	}
	username := flags.positional[0]

	password := os.Getenv("GUIDEBASE_PASSWORD")
	if password == "" {
		fmt.Print("Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	sess, closeStore, err := newSession(cfg, client)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	if err := sess.Login(ctx, username, password); err != nil {
		var authErr *gateway.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("invalid username or password")
		}
		return fmt.Errorf("%s", gateway.UserFriendlyMessage(err))
	}

	fmt.Printf("Signed in as %s.\n", username)
	return nil
}

// LogoutCommand clears the stored credential. It never touches the network.
func LogoutCommand(args []string) error {
	flags := parseArgs(args)

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	sess, closeStore, err := newSession(cfg, client)
	if err != nil {
		return err
	}
	defer closeStore()

	sess.Logout()
	fmt.Println("Signed out.")
	return nil
}

// StatusCommand restores the stored credential, re-verifies it, and reports
// the resulting session state.
func StatusCommand(args []string) error {
	flags := parseArgs(args)

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	client, err := newClient(cfg)
	if err != nil {
		return err
	}
	sess, closeStore, err := newSession(cfg, client)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	err = sess.Restore(ctx)

	switch sess.State() {
	case session.Valid:
		fmt.Println("Session: valid")
	case session.Invalid:
		fmt.Printf("Session: expired (%s)\n", sess.Notice())
	default:
		if err != nil && !errors.Is(err, session.ErrSuperseded) {
			fmt.Printf("Session: unverified (%s)\n", gateway.UserFriendlyMessage(err))
		} else {
			fmt.Println("Session: not signed in")
		}
	}
	return nil
}
