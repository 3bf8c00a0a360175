package config

// DefaultConfig returns the built-in configuration: the conventional tool
// executables on PATH and the journal under the user's config directory
// (resolved by the caller).
func DefaultConfig() *Config {
	return &Config{
		ExePaths: map[string]string{
			"yosys":   "yosys",
			"abc":     "yosys-abc",
			"smtbmc":  "yosys-smtbmc",
			"suprove": "suprove",
			"aigbmc":  "aigbmc",
			"avy":     "avy",
			"engine":  "svy-engine",
		},
	}
}
