package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	return db
}

func TestAutoMigrate(t *testing.T) {
	db := setupTestDB(t)

	err := AutoMigrate(db)
	if err != nil {
		t.Fatalf("AutoMigrate failed: %v", err)
	}

	if !db.Migrator().HasTable("links") {
		t.Error("Expected table links to exist")
	}
	for _, column := range []string{"code", "target_url", "note", "is_active", "is_deleted", "created_at", "updated_at"} {
		if !db.Migrator().HasColumn(&Link{}, column) {
			t.Errorf("Expected column %s to exist", column)
		}
	}
}

func TestLinkDefaults(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)

	link := Link{Code: "abc1234", TargetURL: "https://example.com"}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}
	if link.ID == 0 {
		t.Error("Expected link ID to be set after create")
	}

	var loaded Link
	db.First(&loaded, link.ID)
	if loaded.IsActive {
		t.Error("Expected new link to be inactive")
	}
	if loaded.IsDeleted {
		t.Error("Expected new link not to be deleted")
	}
	if loaded.Note != nil {
		t.Errorf("Expected nil note, got %q", *loaded.Note)
	}
	if loaded.CreatedAt.IsZero() || loaded.UpdatedAt.IsZero() {
		t.Error("Expected timestamps to be set")
	}
}

func TestCodeUniqueness(t *testing.T) {
	db := setupTestDB(t)
	AutoMigrate(db)

	link1 := Link{Code: "unique1", TargetURL: "https://example1.com", IsDeleted: true}
	if err := db.Create(&link1).Error; err != nil {
		t.Fatalf("Failed to create link: %v", err)
	}

	// Deleted rows still hold their code.
	link2 := Link{Code: "unique1", TargetURL: "https://example2.com"}
	if err := db.Create(&link2).Error; err == nil {
		t.Error("Expected error when creating link with duplicate code")
	}
}

func TestRedirectable(t *testing.T) {
	tests := []struct {
		name      string
		isActive  bool
		isDeleted bool
		expected  bool
	}{
		{"active", true, false, true},
		{"inactive", false, false, false},
		{"deleted", true, true, false},
		{"inactive and deleted", false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link := Link{IsActive: tt.isActive, IsDeleted: tt.isDeleted}
			if got := link.Redirectable(); got != tt.expected {
				t.Errorf("Expected Redirectable() = %v, got %v", tt.expected, got)
			}
		})
	}
}
