package config

import (
	"os/exec"
	"strings"
	"time"
)

// UnknownCommit is recorded when the working directory is not a git checkout
const UnknownCommit = "unknown"

// MetadataCollector handles collecting metadata for experiments
type MetadataCollector struct {
	timestamp time.Time
	gitCommit string
}

func NewMetadataCollector() *MetadataCollector {
	commit, err := getCurrentGitCommit()
	if err != nil {
		commit = UnknownCommit
	}
	return &MetadataCollector{
		timestamp: time.Now().UTC(),
		gitCommit: commit,
	}
}

func getCurrentGitCommit() (string, error) {
	out, err := exec.Command("git", "rev-parse", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// PopulateMetadata fills in the metadata fields of the config
func (mc *MetadataCollector) PopulateMetadata(config *ExperimentConfig) {
	config.Metadata.Timestamp = mc.timestamp.Format("2006-01-02 15:04:05")
	config.Metadata.GitCommit = mc.gitCommit
}
