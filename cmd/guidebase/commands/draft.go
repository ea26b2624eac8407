package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/guidebase/guidebase/internal/editor"
	"github.com/guidebase/guidebase/internal/gateway"
	"github.com/guidebase/guidebase/internal/session"
)

// NewCommand scaffolds a fresh draft file.
// Usage: guidebase new <file.yaml>
func NewCommand(args []string) error {
	flags := parseArgs(args)
	if len(flags.positional) < 1 {
		return fmt.Errorf("usage: guidebase new <file.yaml>")
	}
	path := flags.positional[0]

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	data, err := yaml.Marshal(editor.NewDraft())
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write draft: %w", err)
	}

	fmt.Printf("Created %s. Fill it in, then run: guidebase apply %s\n", path, path)
	return nil
}

// ValidateCommand checks a draft file without touching the network.
// Usage: guidebase validate <file.yaml>
func ValidateCommand(args []string) error {
	flags := parseArgs(args)
	if len(flags.positional) < 1 {
		return fmt.Errorf("usage: guidebase validate <file.yaml>")
	}
	path := flags.positional[0]

	draft, err := editor.LoadDraft(path)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
	}

	fieldErrs := editor.Validate(draft)
	if len(fieldErrs) == 0 {
		fmt.Printf("%s is valid.\n", path)
		return nil
	}

	fmt.Printf("%s has %d problem(s):\n", path, len(fieldErrs))
	for _, fe := range fieldErrs {
		fmt.Printf("  - %s\n", fe)
	}
	return fmt.Errorf("draft is not valid")
}

// ApplyCommand submits a draft, creating a new guide or updating an existing
// one depending on whether the draft carries an id. On success the draft file
// is rewritten with the canonical persisted record.
// Usage: guidebase apply <file.yaml>
func ApplyCommand(args []string) error {
	flags := parseArgs(args)
	if len(flags.positional) < 1 {
		return fmt.Errorf("usage: guidebase apply <file.yaml>")
	}
	path := flags.positional[0]

	draft, err := editor.LoadDraft(path)
	if err != nil {
		return fmt.Errorf("load draft: %w", err)
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

	if err := restoreSession(ctx, sess); err != nil {
		return err
	}

	pipeline := editor.NewPipeline(client, sess, nil)
	wasNew := draft.IsNew()

	guide, err := pipeline.Submit(ctx, draft)
	if err != nil {
		return submitError(err, sess)
	}

	// Persist the canonical record back so the next apply is an update.
	data, marshalErr := yaml.Marshal(editor.DraftFromGuide(guide))
	if marshalErr == nil {
		marshalErr = os.WriteFile(path, data, 0o644)
	}
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "warning: could not rewrite %s: %v\n", path, marshalErr)
	}

	if wasNew {
		fmt.Printf("Created guide %s (%s).\n", guide.Slug, guide.ID)
	} else {
		fmt.Printf("Updated guide %s (%s).\n", guide.Slug, guide.ID)
	}
	return nil
}

// DeleteCommand removes a guide by id, confirming first unless -y is given.
// Usage: guidebase delete <id> [-y]
func DeleteCommand(args []string) error {
	flags := parseArgs(args)
	if len(flags.positional) < 1 {
		return fmt.Errorf("usage: guidebase delete <id> [-y]")
	}
	id := flags.positional[0]

	if !flags.yes {
		fmt.Printf("Are you sure you want to delete guide %s? [y/N] ", id)
		response, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			fmt.Println("\nDelete cancelled (failed to read input).")
			return nil
		}
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Delete cancelled.")
			return nil
		}
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

	if err := restoreSession(ctx, sess); err != nil {
		return err
	}

	pipeline := editor.NewPipeline(client, sess, nil)
	if err := pipeline.Delete(ctx, id); err != nil {
		return submitError(err, sess)
	}

	fmt.Printf("Deleted guide %s.\n", id)
	return nil
}

// restoreSession re-verifies the stored credential before a mutation.
func restoreSession(ctx context.Context, sess *session.Manager) error {
	if err := sess.Restore(ctx); err != nil && !errors.Is(err, session.ErrSuperseded) {
		var authErr *gateway.AuthError
		if errors.As(err, &authErr) {
			return fmt.Errorf("%s", sess.Notice())
		}
		return fmt.Errorf("%s", gateway.UserFriendlyMessage(err))
	}
	if sess.State() != session.Valid {
		return fmt.Errorf("not signed in. Run: guidebase login <username>")
	}
	return nil
}

// submitError translates pipeline failures into CLI-friendly messages.
func submitError(err error, sess *session.Manager) error {
	var invalid *editor.DraftInvalidError
	if errors.As(err, &invalid) {
		var sb strings.Builder
		fmt.Fprintf(&sb, "draft has %d problem(s):\n", len(invalid.Fields))
		for _, fe := range invalid.Fields {
			fmt.Fprintf(&sb, "  - %s\n", fe)
		}
		return fmt.Errorf("%s", strings.TrimRight(sb.String(), "\n"))
	}

	if errors.Is(err, session.ErrNotSignedIn) {
		return fmt.Errorf("not signed in. Run: guidebase login <username>")
	}

	var authErr *gateway.AuthError
	if errors.As(err, &authErr) {
		return fmt.Errorf("%s", sess.Notice())
	}

	var reqErr *gateway.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("the service rejected the submission: %s", reqErr.Error())
	}

	return fmt.Errorf("%s", gateway.UserFriendlyMessage(err))
}
