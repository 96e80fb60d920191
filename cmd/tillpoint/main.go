// Package main provides the tillpoint command, which migrates and checks the
// collections a point-of-sale front end persists.
//
// Usage:
//
//	tillpoint [flags] <command> [args]
//
// Commands:
//
//	migrate             rename legacy product names to short codes
//	migrate-hierarchy   add category and product type to cart and order items
//	validate            list names still in legacy form
//	check               check cart and orders against the catalog
//	restore [id]        restore the latest product-name backup, or the one with id
//	backups             list product-name and hierarchy backups
//	stats               print migration statistics and unreachable aliases
//	report <path>       write an XLSX report
//	seed                write a legacy-named sample dataset
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/tillpoint/tillpoint-server/internal/config"
	"github.com/tillpoint/tillpoint-server/internal/di"
	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
	"github.com/tillpoint/tillpoint-server/internal/logger"
)

var errUsage = errors.New("usage: tillpoint [flags] <migrate|migrate-hierarchy|validate|check|restore [id]|backups|stats|report <path>|seed>")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	injector := di.NewContainer(args)

	if err := di.Bootstrap(injector); err != nil {
		// The store may already be open.
		if serr := injector.Shutdown(); serr != nil {
			fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", serr)
		}
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			log.Error("Shutdown error", "error", err)
		}
	}()

	cfg := do.MustInvoke[*config.Config](injector)
	if len(cfg.Args) == 0 {
		fmt.Fprintln(os.Stderr, errUsage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, ok := commands[cfg.Args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n%v\n", cfg.Args[0], errUsage)
		return 2
	}

	if err := cmd(ctx, &env{injector: injector, out: out, args: cfg.Args[1:]}); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, errUsage)
			return 2
		}
		log.WithField("command", cfg.Args[0]).
			WithError(err).
			Error("Command failed", "code", domainerrors.CodeOf(err))
		return 1
	}
	return 0
}

// env is what a command runs with.
type env struct {
	injector do.Injector
	out      io.Writer
	args     []string
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
