package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/guidebase/guidebase/internal/catalog"
	"github.com/guidebase/guidebase/internal/gateway"
	"github.com/guidebase/guidebase/internal/render"
)

// ShowCommand renders a single guide.
// Usage: guidebase show <id-or-slug> [--format=html|markdown|json] [-o file]
func ShowCommand(args []string) error {
	flags := parseArgs(args)
	if len(flags.positional) < 1 {
		return fmt.Errorf("usage: guidebase show <id-or-slug> [--format=html|markdown|json] [-o file]")
	}
	idOrSlug := flags.positional[0]

	format := flags.format
	if format == "table" {
		format = "html"
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	guide, err := client.GetGuide(ctx, idOrSlug)
	if err != nil {
		return fmt.Errorf("%s", gateway.UserFriendlyMessage(err))
	}

	var out string
	switch format {
	case "html":
		body, err := render.GuideHTML(guide)
		if err != nil {
			return fmt.Errorf("render guide: %w", err)
		}
		out = body
	case "markdown", "md":
		out = guideMarkdown(guide)
	case "json":
		if flags.output == "" {
			return outputJSON(guide)
		}
		return writeOutputJSON(flags.output, guide)
	default:
		return fmt.Errorf("unknown format: %s. Valid formats: html, markdown, json", format)
	}

	if flags.output != "" {
		return os.WriteFile(flags.output, []byte(out), 0o644)
	}
	fmt.Print(out)
	return nil
}

// guideMarkdown reassembles a guide into a single markdown document.
func guideMarkdown(g *catalog.Guide) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", g.Title)
	fmt.Fprintf(&sb, "> %s · %s · %d min\n\n", g.Category.Title, g.Difficulty, g.EstimatedMinutes)
	if g.Summary != "" {
		sb.WriteString(g.Summary)
		sb.WriteString("\n\n")
	}
	if g.Introduction != "" {
		sb.WriteString(g.Introduction)
		sb.WriteString("\n\n")
	}
	if g.Prerequisites != "" {
		sb.WriteString("## Prerequisites\n\n")
		sb.WriteString(g.Prerequisites)
		sb.WriteString("\n\n")
	}

	for _, s := range g.Sections {
		fmt.Fprintf(&sb, "## %s\n\n%s\n\n", s.Title, s.Content)
		if s.CodeSnippet != "" {
			if s.CodeTitle != "" {
				fmt.Fprintf(&sb, "**%s**\n\n", s.CodeTitle)
			}
			fmt.Fprintf(&sb, "```%s\n%s\n```\n\n", s.CodeLanguage, strings.TrimRight(s.CodeSnippet, "\n"))
		}
		if s.CtaLabel != "" {
			fmt.Fprintf(&sb, "[%s](%s)\n\n", s.CtaLabel, s.CtaURL)
		}
	}

	if len(g.Resources) > 0 {
		sb.WriteString("## Resources\n\n")
		for _, r := range g.Resources {
			fmt.Fprintf(&sb, "- [%s](%s) (%s): %s\n", r.Title, r.URL, r.Type, r.Description)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func writeOutputJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
