// Package monitors wires concrete monitor implementations into the
// core's MonitorFactory port.
package monitors

import (
	"github.com/tessera-labs/specsync/internal/core/domain"
	"github.com/tessera-labs/specsync/internal/core/ports/driven"
	"github.com/tessera-labs/specsync/internal/monitors/filesystem"
	"github.com/tessera-labs/specsync/internal/monitors/git"
)

// Ensure Factory implements the interface.
var _ driven.MonitorFactory = (*Factory)(nil)

// Factory builds real git and filesystem monitors from configuration.
type Factory struct{}

// NewFactory creates a monitor factory.
func NewFactory() *Factory {
	return &Factory{}
}

// NewGitMonitor builds a monitor polling the config's repository clone.
func (*Factory) NewGitMonitor(cfg domain.SourceConfig) driven.GitMonitor {
	return git.New(cfg.SourcePath, cfg.GitBranch)
}

// NewFileMonitor builds a monitor watching the config's directory root.
func (*Factory) NewFileMonitor(cfg domain.SourceConfig) (driven.FileMonitor, error) {
	return filesystem.New(cfg.SourcePath)
}
