// Package app assembles the assessment engine and its side channels (audit
// log, history database, webhook alerts) from a configuration, and reloads
// them when the configuration changes.
package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/ppiankov/compliancewatch/internal/alert"
	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/audit"
	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/denylist"
	"github.com/ppiankov/compliancewatch/internal/embedding"
	"github.com/ppiankov/compliancewatch/internal/history"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/logging"
	"github.com/ppiankov/compliancewatch/internal/similarity"
)

// App owns every long-lived component of a running compliancewatch process.
type App struct {
	path string

	mu         sync.RWMutex
	cfg        *config.Config
	configHash string
	alerts     *alert.Dispatcher

	store   *knowledge.Store
	engine  *assess.Engine
	audit   *audit.Log
	history *history.Store
}

// Load reads the configuration at path (empty = default location) and
// builds the app.
func Load(ctx context.Context, path string) (*App, error) {
	cfg, hash, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	a, err := New(ctx, cfg, hash)
	if err != nil {
		return nil, err
	}
	a.path = path
	return a, nil
}

// New builds the app from an already-loaded configuration.
func New(ctx context.Context, cfg *config.Config, configHash string) (*App, error) {
	backend, err := buildBackend(cfg.Similarity)
	if err != nil {
		return nil, err
	}
	deny, err := denylist.Load(cfg.DenylistPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		configHash: configHash,
		alerts:     alert.NewDispatcher(cfg.Alerts),
		store:      knowledge.NewStore(),
	}

	if err := a.ingestKnowledgeFiles(ctx, cfg.KnowledgeFiles); err != nil {
		return nil, err
	}

	if cfg.AuditLog != "" {
		if a.audit, err = audit.Open(cfg.AuditLog); err != nil {
			return nil, err
		}
	}
	if cfg.HistoryDB != "" {
		if a.history, err = history.Open(cfg.HistoryDB); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.engine = assess.New(a.store,
		assess.WithBackend(backend),
		assess.WithDenylist(deny),
		assess.WithScoring(cfg.Scoring),
		assess.WithLazySeed(cfg.SeedDemo),
		assess.WithObserver(a.observe),
	)

	logging.From(ctx).Debug("app initialized",
		"backend", backend.Name(),
		"denylist_entries", deny.Len(),
		"audit_log", cfg.AuditLog,
		"history_db", cfg.HistoryDB,
		"alerts", len(cfg.Alerts),
	)
	return a, nil
}

// Engine returns the assessment engine.
func (a *App) Engine() *assess.Engine { return a.engine }

// Store returns the knowledge store.
func (a *App) Store() *knowledge.Store { return a.store }

// History returns the history database, or nil when disabled.
func (a *App) History() *history.Store { return a.history }

// ConfigPath is the file Reload re-reads. Empty means the default location.
func (a *App) ConfigPath() string { return a.path }

// Config returns the active configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// ConfigHash returns the hash of the active configuration file.
func (a *App) ConfigHash() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.configHash
}

// WatchPaths lists the files whose change should trigger Reload.
func (a *App) WatchPaths() []string {
	cfg := a.Config()
	paths := []string{a.path}
	if a.path == "" {
		paths[0] = config.DefaultPath()
	}
	if cfg.DenylistPath != "" {
		paths = append(paths, cfg.DenylistPath)
	}
	return append(paths, cfg.KnowledgeFiles...)
}

// Reload re-reads the configuration and swaps the similarity backend,
// denylist, scoring, alerts and knowledge files. The audit log and history
// database stay open on their original paths. On error the running
// configuration is kept.
func (a *App) Reload(ctx context.Context) error {
	cfg, hash, err := config.Load(a.path)
	if err != nil {
		return err
	}
	backend, err := buildBackend(cfg.Similarity)
	if err != nil {
		return err
	}
	deny, err := denylist.Load(cfg.DenylistPath)
	if err != nil {
		return err
	}
	if err := a.ingestKnowledgeFiles(ctx, cfg.KnowledgeFiles); err != nil {
		return err
	}

	a.engine.Reconfigure(backend, deny, cfg.Scoring)

	a.mu.Lock()
	old := a.cfg
	a.cfg = cfg
	a.configHash = hash
	a.alerts = alert.NewDispatcher(cfg.Alerts)
	a.mu.Unlock()

	logger := logging.From(ctx)
	if old.AuditLog != cfg.AuditLog || old.HistoryDB != cfg.HistoryDB {
		logger.Warn("audit_log and history_db changes take effect on restart")
	}
	logger.Info("configuration reloaded",
		"config_hash", hash,
		"backend", backend.Name(),
		"denylist_entries", deny.Len(),
	)
	return nil
}

// WaitAlerts blocks until in-flight webhook deliveries finish.
func (a *App) WaitAlerts() {
	a.mu.RLock()
	d := a.alerts
	a.mu.RUnlock()
	d.Wait()
}

// Close waits for alerts and closes the audit log and history database.
func (a *App) Close() error {
	a.WaitAlerts()
	var errs []error
	if a.audit != nil {
		errs = append(errs, a.audit.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	return errors.Join(errs...)
}

func (a *App) ingestKnowledgeFiles(ctx context.Context, paths []string) error {
	for _, path := range paths {
		f, err := knowledge.LoadFile(path)
		if err != nil {
			return err
		}
		counts, err := a.store.IngestFile(f)
		if err != nil {
			return goerr.Wrap(err, "failed to ingest knowledge file", goerr.V("path", path))
		}
		logging.From(ctx).Info("knowledge file ingested",
			"path", path, "policies", counts.Policies, "cases", counts.Cases)
	}
	return nil
}

func buildBackend(cfg config.Similarity) (similarity.Backend, error) {
	var provider embedding.Provider
	if cfg.EmbeddingURL != "" {
		provider = embedding.NewClient(cfg.EmbeddingURL, embedding.WithTimeout(cfg.Timeout))
	}
	return similarity.New(cfg.Strategy, provider)
}

// observe fans a completed assessment out to the audit log, the history
// database and the alert webhooks. Failures are logged, never returned: the
// assessment itself has already succeeded.
func (a *App) observe(ctx context.Context, r *assess.Result) {
	logger := logging.From(ctx)

	a.mu.RLock()
	hash := a.configHash
	dispatcher := a.alerts
	a.mu.RUnlock()

	backend := a.engine.BackendName()
	subject := r.Subject()
	signals := r.SignalCodes()

	if a.audit != nil {
		citations := make([]audit.AuditCitation, 0, len(r.Citations))
		for _, c := range r.Citations {
			citations = append(citations, audit.AuditCitation{Type: c.Type, ID: c.ID, Score: c.Score})
		}
		err := a.audit.Record(audit.AuditEntry{
			Timestamp:    r.Timestamp.UTC().Format(audit.TimestampFormat),
			AssessmentID: r.AssessmentID,
			Category:     string(r.Category),
			Subject:      subject,
			Level:        string(r.Risk.Level),
			Probability:  r.Risk.Probability,
			Signals:      signals,
			Citations:    citations,
			Backend:      backend,
			ConfigHash:   hash,
		})
		if err != nil {
			logger.Warn("audit record failed", "assessment_id", r.AssessmentID, slog.Any("error", err))
		}
	}

	if a.history != nil {
		if err := a.history.Record(ctx, r, backend); err != nil {
			logger.Warn("history record failed", "assessment_id", r.AssessmentID, slog.Any("error", err))
		}
	}

	if dispatcher != nil {
		dispatcher.Dispatch(alert.AlertEvent{
			Timestamp:    r.Timestamp.UTC().Format(audit.TimestampFormat),
			AssessmentID: r.AssessmentID,
			Category:     string(r.Category),
			Subject:      subject,
			Level:        string(r.Risk.Level),
			Probability:  r.Risk.Probability,
			Signals:      signals,
			ConfigHash:   hash,
		})
	}
}
