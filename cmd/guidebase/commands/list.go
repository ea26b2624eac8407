package commands

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/guidebase/guidebase/internal/catalog"
	"github.com/guidebase/guidebase/internal/gateway"
)

// maxColumnWidth caps table columns before truncation.
const maxColumnWidth = 50

// ListCommand prints the published guide collection.
// Usage: guidebase list [--format=table|json|csv] [--category=slug]
func ListCommand(args []string) error {
	flags := parseArgs(args)

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

	sync := catalog.NewSynchronizer(client)
	guides, err := sync.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("%s", gateway.UserFriendlyMessage(err))
	}

	if slug := flags.extra["category"]; slug != "" {
		filtered := guides[:0]
		for _, g := range guides {
			if g.Category.Slug == slug {
				filtered = append(filtered, g)
			}
		}
		guides = filtered
	}

	if len(guides) == 0 {
		fmt.Println("No guides found.")
		return nil
	}

	switch flags.format {
	case "json":
		return outputJSON(guides)
	case "csv":
		return outputGuidesCSV(guides)
	case "table":
		outputGuidesTable(guides)
		return nil
	default:
		return fmt.Errorf("unknown format: %s. Valid formats: table, json, csv", flags.format)
	}
}

// CategoriesCommand prints the category collection.
// Usage: guidebase categories [--format=table|json]
func CategoriesCommand(args []string) error {
	flags := parseArgs(args)

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

	categories, err := client.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("%s", gateway.UserFriendlyMessage(err))
	}

	if len(categories) == 0 {
		fmt.Println("No categories found.")
		return nil
	}

	if flags.format == "json" {
		return outputJSON(categories)
	}

	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c.Slug, c.Title, c.Description})
	}
	printTable([]string{"slug", "title", "description"}, rows)
	return nil
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func guideRow(g catalog.GuideSummary) []string {
	return []string{
		g.ID,
		g.Slug,
		g.Title,
		g.Category.Slug,
		g.Difficulty,
		strconv.Itoa(g.EstimatedMinutes),
		g.UpdatedAt.Format("2006-01-02 15:04"),
	}
}

var guideColumns = []string{"id", "slug", "title", "category", "difficulty", "minutes", "updated"}

func outputGuidesCSV(guides []catalog.GuideSummary) error {
	w := csv.NewWriter(os.Stdout)
	if err := w.Write(guideColumns); err != nil {
		return err
	}
	for _, g := range guides {
		if err := w.Write(guideRow(g)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func outputGuidesTable(guides []catalog.GuideSummary) {
	rows := make([][]string, 0, len(guides))
	for _, g := range guides {
		rows = append(rows, guideRow(g))
	}
	printTable(guideColumns, rows)
	fmt.Printf("\n%d guide(s)\n", len(guides))
}

func truncateString(s string) string {
	// Truncate on rune boundaries; titles are not always ASCII.
	runes := []rune(s)
	if len(runes) <= maxColumnWidth {
		return s
	}
	return string(runes[:maxColumnWidth-3]) + "..."
}

// printTable prints rows as an aligned text table.
func printTable(columns []string, rows [][]string) {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, val := range row {
			if i >= len(widths) {
				break
			}
			if w := len(truncateString(val)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var header strings.Builder
	var separator strings.Builder
	for i, col := range columns {
		if i > 0 {
			header.WriteString(" | ")
			separator.WriteString("-+-")
		}
		header.WriteString(fmt.Sprintf("%-*s", widths[i], col))
		separator.WriteString(strings.Repeat("-", widths[i]))
	}
	fmt.Println(header.String())
	fmt.Println(separator.String())

	for _, row := range rows {
		var line strings.Builder
		for i := range columns {
			if i > 0 {
				line.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = truncateString(row[i])
			}
			line.WriteString(fmt.Sprintf("%-*s", widths[i], val))
		}
		fmt.Println(line.String())
	}
}
