package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strings"

	"WishBoard/internal/cli/api"
	"WishBoard/internal/config"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// Dispatch runs the command named by args[0] and returns the process exit code.
func Dispatch(ctx context.Context, cfg *config.Config, args []string) int {
	// --help может стоять среди глобальных флагов
	if slices.ContainsFunc(os.Args[1:], func(a string) bool { return a == "--help" || a == "-h" }) {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitOK
	}
	if !flag.Parsed() {
		flag.Parse()
	}

	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitUsage
	}

	name := strings.ToLower(args[0])
	if name == "help" {
		return help(args[1:])
	}

	c, ok := Get(name)
	if !ok {
		return unknown(name)
	}

	err := c.Run(ctx, cfg, args[1:])
	if err == nil {
		return exitOK
	}
	if errors.Is(err, ErrUsage) {
		printUsage(c)
		return exitUsage
	}
	fmt.Fprintf(Out, "wishboard %s: %v\n", name, err)
	if hint := authHint(err); hint != "" {
		fmt.Fprintln(Out, hint)
	}
	return exitFailure
}

// help handles "wishboard help [command]".
func help(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(Out, FormatGlobalUsage())
		return exitOK
	}
	c, ok := Get(strings.ToLower(args[0]))
	if !ok {
		return unknown(args[0])
	}
	printUsage(c)
	fmt.Fprintf(Out, "\n%s\n", c.Description())
	return exitOK
}

func unknown(name string) int {
	fmt.Fprintf(Out, "wishboard: unknown command %q\n\n", name)
	fmt.Fprint(Out, FormatGlobalUsage())
	return exitUsage
}

// authHint suggests logging in again when the server rejected the token.
func authHint(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return "hint: the session has expired, run `wishboard login <token>` again"
	}
	return ""
}
