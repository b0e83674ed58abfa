package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gg7/gentoostats/internal/types"
)

// BackendFactory opens the package-database collaborators for a client
// configuration. main supplies the portage implementation.
type BackendFactory func(cfg types.ClientConfig) (Backend, error)

// Manager provides the main API for gentoostats commands.
// It wires configuration, policy and the package database into the services.
type Manager struct {
	configStore ConfigStore
	newBackend  BackendFactory
	ui          UICallback
	progress    ProgressTracker
	transport   Transport
}

// NewManager creates a Manager reading the client config at configPath
// (empty means the system default).
func NewManager(configPath string, newBackend BackendFactory) *Manager {
	return NewManagerWithStore(NewFileConfigStore(configPath), newBackend)
}

// NewManagerWithStore creates a Manager with a custom ConfigStore (useful for testing)
func NewManagerWithStore(store ConfigStore, newBackend BackendFactory) *Manager {
	return &Manager{
		configStore: store,
		newBackend:  newBackend,
		ui:          &SilentUICallback{},
	}
}

// SetUICallback sets the UI callback for user interactions
func (m *Manager) SetUICallback(ui UICallback) {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	m.ui = ui
}

// SetProgressTracker sets the tracker used while enumerating packages
func (m *Manager) SetProgressTracker(p ProgressTracker) {
	m.progress = p
}

// SetTransport overrides the HTTP transport built from the client config.
func (m *Manager) SetTransport(t Transport) {
	m.transport = t
}

// ConfigPath returns the path to gentoostats.yml
func (m *Manager) ConfigPath() string {
	return m.configStore.Path()
}

// Config loads gentoostats.yml with defaults applied.
func (m *Manager) Config() (types.ClientConfig, error) {
	return m.configStore.Load()
}

// LoadPolicy reads the payload policy named by cfg.
func (m *Manager) LoadPolicy(cfg types.ClientConfig) (*Policy, error) {
	return LoadPolicy(cfg.PayloadFile)
}

// BuildReport assembles the report the policy allows.
func (m *Manager) BuildReport(ctx context.Context, cfg types.ClientConfig) (*types.Report, error) {
	policy, err := m.LoadPolicy(cfg)
	if err != nil {
		return nil, err
	}
	if m.newBackend == nil {
		return nil, errors.New("no package database backend configured")
	}
	backend, err := m.newBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open package database: %w", err)
	}

	var sets *SetResolver
	if backend.Groups != nil {
		sets = NewSetResolver(backend.Groups)
	}

	slog.Debug("building report",
		"root", cfg.Root,
		"policy", policy.Source(),
		"disabled", len(policy.Disabled()))

	builder := NewPayloadBuilder(policy, backend.Env, backend.Packages, backend.Metadata, sets, BuildOptions{
		Workers:  cfg.Workers,
		Progress: m.progress,
	})
	return builder.Build(ctx)
}

// Dump builds the report and serializes it without submitting.
func (m *Manager) Dump(ctx context.Context, cfg types.ClientConfig, human bool) ([]byte, error) {
	report, err := m.BuildReport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return SerializeReport(report, human)
}

// Submit builds the report, uploads it and records the attempt in the local
// history. History failures are logged and never fail the submission.
func (m *Manager) Submit(ctx context.Context, cfg types.ClientConfig, opts SubmitOptions) (SubmitResult, error) {
	auth, err := m.configStore.LoadAuth(cfg.AuthFile)
	if err != nil {
		return SubmitResult{}, err
	}

	report, err := m.BuildReport(ctx, cfg)
	if err != nil {
		return SubmitResult{}, err
	}

	transport := m.transport
	if transport == nil && !opts.Pretend {
		t, err := NewHTTPTransport(cfg.CAFile, cfg.Insecure, cfg.TimeoutDuration())
		if err != nil {
			return SubmitResult{}, err
		}
		transport = t
	}

	result, err := NewSubmitService(transport, m.ui).Submit(ctx, report, auth, opts)

	status := types.StatusSubmitted
	switch {
	case opts.Pretend:
		status = types.StatusPretend
	case err != nil:
		status = types.StatusFailed
	}
	m.recordHistory(ctx, cfg, opts.Server, status, report)

	return result, err
}

func (m *Manager) recordHistory(ctx context.Context, cfg types.ClientConfig, server, status string, report *types.Report) {
	store, err := OpenHistoryStore(ctx, cfg.HistoryDB)
	if err != nil {
		slog.Warn("submission history unavailable", "path", cfg.HistoryDB, "error", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, server, status, report); err != nil {
		slog.Warn("failed to record submission", "path", cfg.HistoryDB, "error", err)
	}
}

// History returns the most recent submissions, newest first.
func (m *Manager) History(ctx context.Context, cfg types.ClientConfig, limit int) ([]types.SubmissionRecord, error) {
	if _, err := os.Stat(cfg.HistoryDB); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	store, err := OpenHistoryStore(ctx, cfg.HistoryDB)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.List(ctx, limit)
}

// SBOM builds the report and renders its package section as an SBOM.
func (m *Manager) SBOM(ctx context.Context, cfg types.ClientConfig, format SBOMFormat, documentName string) ([]byte, error) {
	report, err := m.BuildReport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSBOMGenerator(documentName).Generate(report, format)
}

// Watch calls onChange once immediately and again whenever the policy file
// changes, until ctx is cancelled.
func (m *Manager) Watch(ctx context.Context, cfg types.ClientConfig, onChange func() error) error {
	if err := onChange(); err != nil {
		m.ui.ShowError("Preview failed", err.Error())
	}
	return WatchPolicy(ctx, cfg.PayloadFile, m.ui, onChange)
}

// InitResult lists what Init wrote and what it left alone.
type InitResult struct {
	Written []string
	Skipped []string
}

// Init writes the default payload policy and client config. Existing files
// are kept unless force is set.
func (m *Manager) Init(cfg types.ClientConfig, force bool) (InitResult, error) {
	var result InitResult

	files := []struct {
		path string
		data []byte
	}{
		{cfg.PayloadFile, DefaultPolicyDocument()},
		{m.configStore.Path(), initDocument(cfg)},
	}

	for _, f := range files {
		store := NewYAMLStore[struct{}](f.path, true)
		if store.Exists() && !force {
			result.Skipped = append(result.Skipped, f.path)
			continue
		}
		if err := store.WriteRaw(f.data, 0o644); err != nil {
			return result, fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
		}
		result.Written = append(result.Written, f.path)
	}
	return result, nil
}
