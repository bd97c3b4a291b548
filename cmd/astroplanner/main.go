package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}
	if err := newRoot(os.Stdout).Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRoot(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "astroplanner",
		Usage:     "Plan astronomical observation sessions",
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file", Sources: cli.EnvVars("ASTRO_CONFIG")},
			&cli.StringFlag{Name: "api-url", Usage: "planner server base URL (overrides config)"},
			&cli.DurationFlag{Name: "timeout", Value: -1, Usage: "request timeout, 0 disables (overrides config)"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: formatTable, Usage: "table, json or yaml"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging on stderr"},
		},
		Commands: []*cli.Command{
			serveCommand(),
			registerCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			locationsCommand(),
			sessionsCommand(),
			planCommand(),
			editCommand(),
			targetsCommand(),
			weatherCommand(),
			logsCommand(),
			geocodeCommand(),
			exportCommand(),
		},
	}
}

// timeoutFlag returns the --timeout override, or false when it was not given.
func timeoutFlag(cmd *cli.Command) (time.Duration, bool) {
	d := cmd.Duration("timeout")
	return d, d >= 0
}
