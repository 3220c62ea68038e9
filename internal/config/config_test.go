package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
server:
  port: 9090

database:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  name: kanban_prod
  user: kanban
  password: hunter2

auth:
  secret: super-secret
  session_ttl: 12h

notifications:
  slack_webhook_url: https://hooks.slack.com/services/T0/B0/XYZ
  due_reminder_schedule: "0 * * * *"
`

const minimalYAML = `
auth:
  secret: dev-secret
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "mysql" {
		t.Errorf("Database.Driver = %q, want %q", cfg.Database.Driver, "mysql")
	}
	if cfg.Database.Host != "10.0.0.5" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "10.0.0.5")
	}
	if cfg.Database.Port != 3307 {
		t.Errorf("Database.Port = %d, want 3307", cfg.Database.Port)
	}
	if cfg.Database.Name != "kanban_prod" {
		t.Errorf("Database.Name = %q, want %q", cfg.Database.Name, "kanban_prod")
	}
	if cfg.Auth.SessionTTL != 12*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want 12h", cfg.Auth.SessionTTL)
	}
	if cfg.Notifications.SlackWebhookURL == "" {
		t.Error("Notifications.SlackWebhookURL is empty")
	}
	if cfg.Notifications.DueReminderSchedule != "0 * * * *" {
		t.Errorf("DueReminderSchedule = %q, want %q", cfg.Notifications.DueReminderSchedule, "0 * * * *")
	}
}

func TestParse_MinimalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want default sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "kanban.db" {
		t.Errorf("Database.Path = %q, want default kanban.db", cfg.Database.Path)
	}
	if cfg.Auth.SessionTTL != 24*time.Hour {
		t.Errorf("Auth.SessionTTL = %v, want default 24h", cfg.Auth.SessionTTL)
	}
	if cfg.Notifications.DueReminderSchedule != "@hourly" {
		t.Errorf("DueReminderSchedule = %q, want default @hourly", cfg.Notifications.DueReminderSchedule)
	}
}

func TestParse_MySQLDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
database:
  driver: mysql
  name: kanban
auth:
  secret: s
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Database.Host != "127.0.0.1" {
		t.Errorf("Database.Host = %q, want default 127.0.0.1", cfg.Database.Host)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("Database.Port = %d, want default 3306", cfg.Database.Port)
	}
	if cfg.Database.User != "root" {
		t.Errorf("Database.User = %q, want default root", cfg.Database.User)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing secret",
			yaml:    "server:\n  port: 8080\n",
			wantErr: "auth.secret is required",
		},
		{
			name:    "unknown driver",
			yaml:    "database:\n  driver: mongodb\nauth:\n  secret: s\n",
			wantErr: "is not supported",
		},
		{
			name:    "mysql without name",
			yaml:    "database:\n  driver: mysql\nauth:\n  secret: s\n",
			wantErr: "database.name is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("{not yaml"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "config: parse") {
		t.Errorf("error = %q, want config: parse prefix", err.Error())
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kanban.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Auth.Secret != "dev-secret" {
		t.Errorf("Auth.Secret = %q, want %q", cfg.Auth.Secret, "dev-secret")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
