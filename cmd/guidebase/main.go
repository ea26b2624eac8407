// Command guidebase is the CLI for browsing, previewing, and editing guides
// on a remote guide service.
package main

import (
	"fmt"
	"os"

	"github.com/guidebase/guidebase/cmd/guidebase/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "list":
		err = commands.ListCommand(args)
	case "show":
		err = commands.ShowCommand(args)
	case "categories":
		err = commands.CategoriesCommand(args)
	case "login":
		err = commands.LoginCommand(args)
	case "logout":
		err = commands.LogoutCommand(args)
	case "status":
		err = commands.StatusCommand(args)
	case "new":
		err = commands.NewCommand(args)
	case "validate":
		err = commands.ValidateCommand(args)
	case "apply":
		err = commands.ApplyCommand(args)
	case "delete":
		err = commands.DeleteCommand(args)
	case "serve":
		err = commands.ServeCommand(args)
	case "version":
		fmt.Printf("guidebase version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("guidebase - Browse and edit guides from the command line")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  guidebase list                     List published guides")
	fmt.Println("  guidebase show <slug>              Show a single guide")
	fmt.Println("  guidebase categories               List guide categories")
	fmt.Println("  guidebase login <username>         Sign in as an editor")
	fmt.Println("  guidebase logout                   Sign out")
	fmt.Println("  guidebase status                   Show session status")
	fmt.Println("  guidebase new <file.yaml>          Scaffold a new draft file")
	fmt.Println("  guidebase validate <file.yaml>     Validate a draft file")
	fmt.Println("  guidebase apply <file.yaml>        Submit a draft (create or update)")
	fmt.Println("  guidebase delete <id>              Delete a guide")
	fmt.Println("  guidebase serve [drafts-dir]       Start the local preview server")
	fmt.Println("  guidebase version                  Show version")
	fmt.Println("  guidebase help                     Show this help")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  guidebase list --format=json            # Machine-readable list")
	fmt.Println("  guidebase show intro-to-testing         # Render a guide as HTML")
	fmt.Println("  guidebase show intro-to-testing -o x.html")
	fmt.Println("  guidebase login alice                   # Password read from stdin")
	fmt.Println("  guidebase apply drafts/my-guide.yaml    # Create or update")
	fmt.Println("  guidebase delete 42 -y                  # Skip the confirmation")
	fmt.Println("  guidebase serve ./drafts --port 4280    # Preview with live reload")
}
