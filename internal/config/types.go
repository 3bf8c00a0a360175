package config

// Config is the top-level persisted configuration: defaults for the
// dispatcher's directory policy and the per-tool executable overrides
// forwarded to the downstream engine.
type Config struct {
	// Directory policy defaults; command-line flags OR into these.
	Backup bool `json:"backup,omitempty"`
	Force  bool `json:"force,omitempty"`
	TmpDir bool `json:"tmpdir,omitempty"`

	// JournalPath is the SQLite run journal location. Empty disables the
	// journal entirely.
	JournalPath string `json:"journal_path,omitempty"`

	// ExePaths maps a tool identifier to an executable path. Entries are
	// forwarded untouched to the engine; unknown tools are allowed. The
	// reserved key "engine" selects the runner executable itself.
	ExePaths map[string]string `json:"exe_paths,omitempty"`
}
