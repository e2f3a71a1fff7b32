package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/store"
)

const (
	configDirName  = "chitai-admin"
	configFileName = "auth.json"
)

// UserConfig represents the user's local state stored in
// ~/.config/chitai-admin/auth.json
type UserConfig struct {
	SelectedServer string `json:"selected_server"`

	// Auth holds the persisted credential (user, token, name) per server URL
	Auth map[string]store.Credential `json:"auth,omitempty"`
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file. The file holds tokens, so
// it is only readable by the owner.
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// SetSelectedServer updates the selected server URL and saves the config
func SetSelectedServer(serverURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.SelectedServer = serverURL
	return Save(cfg)
}

// GetSelectedServer returns the selected server URL, or empty string if not set
func GetSelectedServer() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	return cfg.SelectedServer, nil
}

// CredentialStore persists one server's auth credential in the user config
type CredentialStore struct {
	Server string
}

// LoadCredential returns the stored credential, zero when none is stored
func (c CredentialStore) LoadCredential() (store.Credential, error) {
	cfg, err := Load()
	if err != nil {
		return store.Credential{}, err
	}
	return cfg.Auth[c.Server], nil
}

// SaveCredential stores cred; an empty credential removes the entry
func (c CredentialStore) SaveCredential(cred store.Credential) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	if cred == (store.Credential{}) {
		delete(cfg.Auth, c.Server)
	} else {
		if cfg.Auth == nil {
			cfg.Auth = make(map[string]store.Credential)
		}
		cfg.Auth[c.Server] = cred
	}

	return Save(cfg)
}
