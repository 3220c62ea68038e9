package db

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PRANJALBANSALJI/Kanban/internal/config"
	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

func TestMySQLDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want []string
	}{
		{
			name: "default local",
			cfg:  config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "kanban"},
			want: []string{"root@tcp(127.0.0.1:3306)/kanban", "parseTime=true"},
		},
		{
			name: "with password",
			cfg:  config.DatabaseConfig{User: "app", Password: "pw", Host: "db.internal", Port: 3307, Name: "kanban_prod"},
			want: []string{"app:pw@tcp(db.internal:3307)/kanban_prod", "parseTime=true"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MySQLDSN(tt.cfg)
			for _, frag := range tt.want {
				if !strings.Contains(got, frag) {
					t.Errorf("MySQLDSN() = %q, want to contain %q", got, frag)
				}
			}
		})
	}
}

func TestConnect_UnsupportedDriver(t *testing.T) {
	_, err := Connect(config.DatabaseConfig{Driver: "mongodb"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "unsupported driver") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "unsupported driver")
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestAutoMigrate(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, table := range []string{"profiles", "boards", "board_members", "columns", "cards", "labels", "card_labels", "audit_logs", "notifications"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("table %q not created", table)
		}
	}
}

func TestSeedAdmin(t *testing.T) {
	db := openTestDB(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	if err := SeedAdmin(db, "ops@example.com", "Ops", "s3cret"); err != nil {
		t.Fatalf("SeedAdmin: %v", err)
	}

	var p models.Profile
	if err := db.Where("email = ?", "ops@example.com").First(&p).Error; err != nil {
		t.Fatalf("admin profile not found: %v", err)
	}
	if p.Role != "admin" {
		t.Errorf("Role = %q, want admin", p.Role)
	}
	if p.PasswordHash == "" || p.PasswordHash == "s3cret" {
		t.Error("password should be stored hashed")
	}

	// Seeding again with the same email must not create a second row.
	if err := SeedAdmin(db, "ops@example.com", "Ops Two", "other"); err != nil {
		t.Fatalf("SeedAdmin (second): %v", err)
	}
	var count int64
	db.Model(&models.Profile{}).Where("email = ?", "ops@example.com").Count(&count)
	if count != 1 {
		t.Errorf("profile count = %d, want 1", count)
	}
}
