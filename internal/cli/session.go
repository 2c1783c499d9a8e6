package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/artpar/impit/internal/config"
	"github.com/artpar/impit/internal/cookies"
	"github.com/artpar/impit/internal/cookies/sqlite"
	"github.com/artpar/impit/internal/logging"
	"github.com/artpar/impit/internal/storage/filesystem"
	"github.com/spf13/cobra"
)

// session is the configuration, logger and open cookie repository of
// one command invocation.
type session struct {
	config config.Config
	logger *slog.Logger
	repo   cookies.Repository
}

// open loads the configuration and opens the configured cookie store.
func (g *GlobalOptions) open(cmd *cobra.Command) (*session, error) {
	var opts []config.Option
	if g.DataDir != "" {
		opts = append(opts, config.WithDataDir(g.DataDir))
	}
	if g.Store != "" {
		opts = append(opts, config.WithStore(g.Store))
	}
	if g.LogLevel != "" {
		opts = append(opts, config.WithLogLevel(g.LogLevel))
	}

	cfg, err := config.Load(g.ConfigPath, opts...)
	if err != nil {
		return nil, err
	}

	logger := logging.WithStore(
		logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr()),
		cfg.Store, cfg.StorePath(),
	)

	repo, err := openRepository(cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("opened cookie store")

	return &session{config: cfg, logger: logger, repo: repo}, nil
}

func openRepository(cfg config.Config) (cookies.Repository, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch cfg.Store {
	case config.StoreYAML:
		return filesystem.NewCookieStore(cfg.StorePath())
	default:
		return sqlite.New(cfg.StorePath())
	}
}

// load reads the persisted jar, skipping expired cookies.
func (s *session) load(ctx context.Context) (*cookies.Jar, error) {
	jar, err := cookies.Load(ctx, s.repo, false)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("loaded cookies", "count", jar.Len())
	return jar, nil
}

// save persists jar, replacing what the store held.
func (s *session) save(ctx context.Context, jar *cookies.Jar) error {
	if err := cookies.Save(ctx, s.repo, jar); err != nil {
		return err
	}
	s.logger.Debug("saved cookies", "count", jar.Len())
	return nil
}

// Close closes the cookie repository.
func (s *session) Close() error {
	return s.repo.Close()
}
