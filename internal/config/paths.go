package config

import "path/filepath"

const (
	// Global layout under ULTAH_HOME.
	ConfigFilePath = "config.toml"
	LogsDirPath    = "logs"
	PIDFilePath    = "ultah.pid"
	UsageFilePath  = "usage.jsonl"
)

func homeConfigPath(home string) string {
	return filepath.Join(home, ConfigFilePath)
}

func defaultHomePath(home string) string {
	return filepath.Join(home, ".ultah")
}

func (c *Config) ConfigPath() string {
	return homeConfigPath(c.HomeDir)
}

// ResolvePath anchors relative data paths at the home directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.HomeDir == "" {
		return p
	}
	return filepath.Join(c.HomeDir, p)
}

func (c *Config) RecordsPath() string {
	return c.ResolvePath(c.Data.RecordsPath)
}

func (c *Config) PricesPath() string {
	return c.ResolvePath(c.Data.PricesPath)
}

// SnapshotPath is empty when snapshots are disabled.
func (c *Config) SnapshotPath() string {
	return c.ResolvePath(c.Data.SnapshotPath)
}

func (c *Config) ReportDir() string {
	return c.ResolvePath(c.Data.ReportDir)
}

func (c *Config) LogsDir() string {
	return filepath.Join(c.HomeDir, LogsDirPath)
}

func (c *Config) PIDPath() string {
	return filepath.Join(c.HomeDir, PIDFilePath)
}

// UsagePath is the JSONL log of LLM token usage.
func (c *Config) UsagePath() string {
	return filepath.Join(c.LogsDir(), UsageFilePath)
}
