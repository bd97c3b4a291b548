package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"astroplanner/internal/adapter/api"
	"astroplanner/internal/config"
	"astroplanner/internal/logging"
	"astroplanner/internal/planner"
	"astroplanner/internal/tz"
)

// env is what a client command needs: settings, an API client carrying the
// stored token, and an output printer.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	client *api.Client
	out    *printer
}

func newEnv(cmd *cli.Command) (*env, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if u := cmd.String("api-url"); u != "" {
		cfg.Client.BaseURL = u
	}
	if d, ok := timeoutFlag(cmd); ok {
		cfg.Client.Timeout = d
	}

	out, err := newPrinter(cmd.Root().Writer, cmd.String("output"))
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if cmd.Bool("verbose") {
		if logger, err = logging.New("debug", "console"); err != nil {
			return nil, err
		}
	}

	client := api.New(cfg.Client.BaseURL, cfg.Client.Timeout, logger)
	token := cfg.Client.Token
	if token == "" {
		if token, err = readToken(tokenPath(cfg)); err != nil {
			return nil, err
		}
	}
	client.SetToken(token)

	return &env{cfg: cfg, logger: logger, client: client, out: out}, nil
}

// planner loads a planner over the API client. Close it when done.
func (e *env) planner(ctx context.Context) (*planner.Planner, error) {
	ambient := e.cfg.Client.Timezone
	if ambient == "" {
		ambient = tz.Ambient()
	}
	p := planner.New(e.client, planner.Options{Logger: e.logger, AmbientTZ: ambient})
	if err := p.Load(ctx); err != nil {
		p.Close()
		return nil, plannerErr(p, err)
	}
	return p, nil
}

// plannerErr prefers the planner's user-facing message over the raw error.
func plannerErr(p *planner.Planner, err error) error {
	if msg := p.Err(); msg != "" {
		return errors.New(msg)
	}
	return err
}

func tokenPath(cfg *config.Config) string {
	if cfg.Client.TokenFile != "" {
		return cfg.Client.TokenFile
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".astroplanner", "token")
	}
	return filepath.Join(home, ".astroplanner", "token")
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func saveToken(path, token string) error {
	if token == "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove token: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// argID parses the n-th positional argument as an id.
func argID(cmd *cli.Command, n int, name string) (int64, error) {
	raw := cmd.Args().Get(n)
	if raw == "" {
		return 0, fmt.Errorf("missing %s argument", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}
