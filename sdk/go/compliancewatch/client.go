package compliancewatch

import (
	"context"

	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// Client holds the assessment pipeline for in-process gating.
// Safe for concurrent use.
type Client struct {
	cfg clientConfig
	app *app.App
}

// New creates a Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := clientConfig{blockAt: LevelBlock}
	for _, o := range opts {
		o(&cfg)
	}

	appCfg, hash, err := config.Load(cfg.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.denylistPath != "" {
		appCfg.DenylistPath = cfg.denylistPath
	}
	appCfg.KnowledgeFiles = append(appCfg.KnowledgeFiles, cfg.knowledgeFiles...)
	if cfg.seedDemo != nil {
		appCfg.SeedDemo = *cfg.seedDemo
	}

	a, err := app.New(context.Background(), appCfg, hash)
	if err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, app: a}, nil
}

// Check assesses payload without calling anything. Result.Blocked reports
// whether the level reached the blocking threshold.
func (c *Client) Check(ctx context.Context, category Category, payload any) (Result, error) {
	cat, err := model.ParseCategory(string(category))
	if err != nil {
		return Result{}, err
	}
	r, err := c.app.Engine().Assess(ctx, cat, payload)
	if err != nil {
		return Result{}, err
	}
	return toResult(r, c.cfg.blockAt), nil
}

// Close flushes pending alerts and closes the audit log and history.
func (c *Client) Close() error {
	return c.app.Close()
}
