package push

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"bingo-live/internal/config"
)

func TestParseTargetsJSONFilters(t *testing.T) {
	raw := `[
		{"platform": "Discord", "endpoint": " https://hooks.example/a ", "scope_type": "ALL", "enabled": true},
		{"platform": "discord", "endpoint": "https://hooks.example/b", "scope_type": "game", "scope_value": "g1", "enabled": false},
		{"platform": "feishu", "endpoint": "", "enabled": true},
		{"platform": "feishu", "endpoint": "https://hooks.example/c", "scope_type": "room", "enabled": true},
		{"platform": "feishu", "endpoint": "https://hooks.example/d", "event_allowlist": [" Game_Won "], "enabled": true}
	]`
	targets, err := parseTargetsJSON(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("targets = %v, want 2", targets)
	}
	if targets[0].Platform != "discord" || targets[0].Endpoint != "https://hooks.example/a" || targets[0].ScopeType != "all" {
		t.Errorf("first target = %+v", targets[0])
	}
	if targets[1].ScopeType != "all" {
		t.Errorf("default scope = %q, want all", targets[1].ScopeType)
	}
	if targets[1].EventAllowlist[0] != "game_won" {
		t.Errorf("allowlist = %v", targets[1].EventAllowlist)
	}
}

func TestFromServerDisabled(t *testing.T) {
	cfg, err := FromServer(config.ServerConfig{PushEnabled: false, PushConfigJSON: "not json"})
	if err != nil {
		t.Fatalf("disabled config: %v", err)
	}
	if cfg.Enabled {
		t.Fatal("cfg.Enabled = true")
	}
}

func TestFromServerReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "push.json")
	if err := os.WriteFile(path, []byte(`[{"platform":"discord","endpoint":"https://hooks.example/a","enabled":true}]`), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := FromServer(config.ServerConfig{
		PushEnabled:        true,
		PushConfigPath:     path,
		PushRetryBaseMS:    250,
		PushConfigReloadMS: 100,
	})
	if err != nil {
		t.Fatalf("from server: %v", err)
	}
	if len(cfg.Targets) != 1 {
		t.Fatalf("targets = %v", cfg.Targets)
	}
	if cfg.Workers != 2 {
		t.Errorf("workers = %d, want default 2", cfg.Workers)
	}
	if cfg.RetryBase != 250*time.Millisecond {
		t.Errorf("retry base = %v", cfg.RetryBase)
	}
}

func TestFromServerBadJSON(t *testing.T) {
	if _, err := FromServer(config.ServerConfig{PushEnabled: true, PushConfigJSON: "{"}); err == nil {
		t.Fatal("expected parse error")
	}
}
