package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configHeader = `# DittoMeta Configuration File
#
# Values can be overridden with DITTOMETA_* environment variables,
# e.g. DITTOMETA_STORAGE_TYPE=sqlite or DITTOMETA_LOGGING_LEVEL=DEBUG.

`

// InitConfig writes a default configuration file to the default location.
//
// Returns the path written. Fails if the file exists and force is false.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	if err := InitConfigToPath(path, force); err != nil {
		return "", err
	}
	return path, nil
}

// InitConfigToPath writes a default configuration file to path, creating
// parent directories as needed.
func InitConfigToPath(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content, err := generateYAMLWithComments(GetDefaultConfig())
	if err != nil {
		return err
	}

	// The file may hold storage credentials.
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateYAMLWithComments renders cfg as YAML with a comment above each section.
func generateYAMLWithComments(cfg *Config) (string, error) {
	sections := []struct {
		key     string
		comment string
		value   any
	}{
		{
			key:     "logging",
			comment: "# Logging: level (DEBUG, INFO, WARN, ERROR), format (text, json),\n# output (stdout, stderr, or a file path rotated automatically)",
			value:   cfg.Logging,
		},
		{
			key:     "storage",
			comment: "# Durable storage: type selects one of memory, badger, sqlite, s3, consul.\n# Only the section named by type is used.",
			value:   cfg.Storage,
		},
		{
			key:     "metadata",
			comment: "# Per-item metadata records are stored under key_prefix + item id",
			value:   cfg.Metadata,
		},
		{
			key:     "aliases",
			comment: "# Alias records are stored under key_prefix + alias name",
			value:   cfg.Aliases,
		},
		{
			key:     "metrics",
			comment: "# Prometheus metrics endpoint",
			value:   cfg.Metrics,
		},
	}

	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, section := range sections {
		var value yaml.Node
		if err := value.Encode(section.value); err != nil {
			return "", fmt.Errorf("failed to encode %s section: %w", section.key, err)
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: section.key, HeadComment: section.comment},
			&value,
		)
	}

	var buf bytes.Buffer
	buf.WriteString(configHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to render config: %w", err)
	}

	return buf.String(), nil
}
