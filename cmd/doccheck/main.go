// Command doccheck verifies document generation against the shop service
// and maintains the document templates it relies on.
//
//	doccheck verify   -order <id> [-status DELIVERED] [-timeout 30s] [-poll 1s]
//	doccheck sync     [-dir templates] [-keys invoice,refund]
//	doccheck generate [-out dir] [-keys ...] [-upload]
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/erpsystem/doccheck/internal/config"
	"github.com/erpsystem/doccheck/pkg/logger"
)

const (
	exitOK     = 0
	exitFailed = 1
	exitUsage  = 2
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return exitUsage
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return exitUsage
	}

	switch args[0] {
	case "verify":
		return runVerify(ctx, cfg, args[1:], stdout)
	case "sync":
		return runSync(ctx, cfg, args[1:], stdout)
	case "generate":
		return runGenerate(ctx, cfg, args[1:], stdout)
	case "help", "-h", "--help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stdout, "unknown command %q\n\n", args[0])
		usage(stdout)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: doccheck <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  verify     trigger a status change and check that documents are generated")
	fmt.Fprintln(w, "  sync       push template sources from disk to the templates service")
	fmt.Fprintln(w, "  generate   render a sample PDF for every template")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "run 'doccheck <command> -h' for command flags")
}
