package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"WishBoard/internal/config"
)

// ErrUsage signals bad arguments; Dispatch answers it with the command's usage line.
var ErrUsage = errors.New("usage")

// Command is one wishboard subcommand.
type Command interface {
	// Name is what the user types, e.g. "feed".
	Name() string
	// Description is the one-line summary printed in help.
	Description() string
	// Usage is the argument synopsis without the binary name, e.g. "wish <id>".
	Usage() string
	// Run gets the arguments that follow the command name.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

var registry = map[string]Command{}

// Out — общий writer для вывода CLI, в тестах подменяется.
var Out io.Writer = os.Stdout

// RegisterCmd is called from init() of every command file.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get returns a command by name.
func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List returns all registered commands sorted by name.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	slices.SortFunc(list, func(a, b Command) int { return strings.Compare(a.Name(), b.Name()) })
	return list
}

// helpSections orders the help output; commands missing here land in "Other".
var helpSections = []struct {
	title string
	names []string
}{
	{"Session", []string{"login", "logout", "whoami", "onboarding"}},
	{"Browse", []string{"feed", "recent", "wish", "board", "bookmarks"}},
	{"Board", []string{"board-add", "board-remove"}},
	{"Social", []string{"bookmark", "unbookmark", "follow", "unfollow"}},
	{"Create", []string{"create"}},
}

// FormatGlobalUsage builds the help text listing every registered command.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("wishboard — wishlist client\n\n")
	b.WriteString("Usage:\n  wishboard [--base-url <host:port>] [--stats] <command> [args]\n")
	b.WriteString("  wishboard help <command>\n")

	seen := map[string]bool{}
	section := func(title string, cmds []Command) {
		if len(cmds) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s:\n", title)
		for _, c := range cmds {
			seen[c.Name()] = true
			fmt.Fprintf(&b, "  %-44s %s\n", c.Usage(), c.Description())
		}
	}
	for _, s := range helpSections {
		var cmds []Command
		for _, name := range s.names {
			if c, ok := Get(name); ok {
				cmds = append(cmds, c)
			}
		}
		section(s.title, cmds)
	}
	var rest []Command
	for _, c := range List() {
		if !seen[c.Name()] {
			rest = append(rest, c)
		}
	}
	section("Other", rest)
	return b.String()
}

func printUsage(c Command) {
	fmt.Fprintf(Out, "usage: wishboard %s\n", c.Usage())
}
