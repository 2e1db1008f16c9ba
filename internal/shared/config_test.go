package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ymsync.db" {
			t.Errorf("expected database path ./ymsync.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 8888 {
			t.Errorf("expected server port 8888, got %d", config.Server.Port)
		}

		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8888/callback" {
			t.Errorf("unexpected redirect uri %s", config.Credentials.Spotify.RedirectURI)
		}

		if config.Sync.StateFile != "spotify_yandex_state.json" {
			t.Errorf("expected default state file, got %s", config.Sync.StateFile)
		}

		if config.Sync.RetryAttempts != 3 || config.Sync.RetryDelay() != 3*time.Second {
			t.Errorf("unexpected retry settings: %d attempts, %v delay", config.Sync.RetryAttempts, config.Sync.RetryDelay())
		}

		if config.Launcher.EnvDir != "venv" || config.Launcher.LogFile != "sync.log" {
			t.Errorf("unexpected launcher defaults: %+v", config.Launcher)
		}

		if config.Credentials.Spotify.Configured() {
			t.Error("placeholder credentials should not count as configured")
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[credentials.yandex]
token = "ya_token"

[launcher]
base_dir = "/opt/sync"
env_dir = ""
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if !config.Credentials.Spotify.Configured() {
			t.Error("expected spotify credentials to count as configured")
		}
		if config.Credentials.Yandex.Token != "ya_token" {
			t.Errorf("expected yandex token, got %s", config.Credentials.Yandex.Token)
		}
		if config.Launcher.BaseDir != "/opt/sync" {
			t.Errorf("expected base dir /opt/sync, got %s", config.Launcher.BaseDir)
		}
		if config.Launcher.EnvDir != "" {
			t.Errorf("expected env dir to be cleared, got %s", config.Launcher.EnvDir)
		}
		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:8888/callback" {
			t.Errorf("missing keys should keep defaults, got redirect %s", config.Credentials.Spotify.RedirectURI)
		}
		if config.Launcher.LogFile != "sync.log" {
			t.Errorf("missing keys should keep defaults, got log file %s", config.Launcher.LogFile)
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[broken"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("SaveConfig round trip", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		config := DefaultConfig()
		config.Credentials.Yandex.Token = "saved"

		if err := SaveConfig(configPath, config); err != nil {
			t.Fatalf("failed to save config: %v", err)
		}

		loaded, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load saved config: %v", err)
		}
		if loaded.Credentials.Yandex.Token != "saved" {
			t.Errorf("expected saved token, got %s", loaded.Credentials.Yandex.Token)
		}
	})
}

func TestApplyEnvFile(t *testing.T) {
	t.Run("overlays values from dotenv file", func(t *testing.T) {
		for _, key := range []string{"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "YANDEX_MUSIC_TOKEN", "STATE_FILE"} {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		envPath := filepath.Join(t.TempDir(), ".env")
		content := "SPOTIFY_CLIENT_ID=env_id\nSPOTIFY_CLIENT_SECRET=env_secret\nYANDEX_MUSIC_TOKEN=env_token\nSTATE_FILE=custom_state.json\n"
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		if err := config.ApplyEnvFile(envPath); err != nil {
			t.Fatalf("ApplyEnvFile() error = %v", err)
		}

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env_id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Yandex.Token != "env_token" {
			t.Errorf("expected env_token, got %s", config.Credentials.Yandex.Token)
		}
		if config.Sync.StateFile != "custom_state.json" {
			t.Errorf("expected custom_state.json, got %s", config.Sync.StateFile)
		}
	})

	t.Run("exported environment wins", func(t *testing.T) {
		t.Setenv("YANDEX_MUSIC_TOKEN", "from_env")

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("YANDEX_MUSIC_TOKEN=from_file\n"), 0600); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}

		config := DefaultConfig()
		if err := config.ApplyEnvFile(envPath); err != nil {
			t.Fatalf("ApplyEnvFile() error = %v", err)
		}
		if config.Credentials.Yandex.Token != "from_env" {
			t.Errorf("expected from_env, got %s", config.Credentials.Yandex.Token)
		}
	})

	t.Run("missing file is not an error", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.ApplyEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
			t.Errorf("expected no error for missing env file, got %v", err)
		}
	})
}

func TestTokenCache(t *testing.T) {
	t.Run("save and load", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".spotify_token_cache")
		token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

		if err := SaveToken(path, token); err != nil {
			t.Fatalf("SaveToken() error = %v", err)
		}

		loaded, err := LoadToken(path)
		if err != nil {
			t.Fatalf("LoadToken() error = %v", err)
		}
		if loaded.AccessToken != "access" || loaded.RefreshToken != "refresh" {
			t.Errorf("unexpected token %+v", loaded)
		}
	})

	t.Run("missing cache is not authenticated", func(t *testing.T) {
		_, err := LoadToken(filepath.Join(t.TempDir(), "none"))
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("corrupt cache is not authenticated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad")
		if err := os.WriteFile(path, []byte("{nope"), 0600); err != nil {
			t.Fatalf("failed to write cache: %v", err)
		}
		_, err := LoadToken(path)
		if !errors.Is(err, ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}
