package repositories

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestUserRepositoryGetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewUserRepository(db)

	t.Run("Found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{"id", "fullname", "email", "password_hash", "created_at", "updated_at"}).
			AddRow("usr_1", "Dana Owner", "dana@bistro.example", "$2a$10$hash", 1234567890, 1234567890)

		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
			WithArgs("dana@bistro.example").
			WillReturnRows(rows)

		user, err := repo.GetByEmail("dana@bistro.example")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if user == nil || user.ID != "usr_1" {
			t.Errorf("Expected usr_1, got %+v", user)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM users WHERE email = ?").
			WithArgs("ghost@bistro.example").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmail("ghost@bistro.example")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if user != nil {
			t.Errorf("Expected nil user, got %+v", user)
		}
	})
}

func TestWebhookRepositoryListForEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWebhookRepository(db)

	columns := []string{"id", "organization_id", "url", "events", "secret", "status", "retry_count", "last_triggered_at", "last_error", "created_at"}

	// Event filtering happens in Go after loading the org's active hooks, so
	// both the exact subscription and the wildcard must come back.
	rows := sqlmock.NewRows(columns).
		AddRow("wh_1", "org_1", "https://a.example/hook", `["device.paired"]`, "s1", "active", 0, nil, nil, 1234567890).
		AddRow("wh_2", "org_1", "https://b.example/hook", `["*"]`, "s2", "active", 0, nil, nil, 1234567890).
		AddRow("wh_3", "org_1", "https://c.example/hook", `["license.updated"]`, "s3", "active", 0, nil, nil, 1234567890)

	mock.ExpectQuery("SELECT (.+) FROM webhooks WHERE organization_id = ?").
		WithArgs("org_1").
		WillReturnRows(rows)

	hooks, err := repo.ListForEvent("org_1", "device.paired")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(hooks) != 2 {
		t.Fatalf("Expected 2 hooks, got %d", len(hooks))
	}
	if hooks[0].ID != "wh_1" || hooks[1].ID != "wh_2" {
		t.Errorf("Expected wh_1 and wh_2, got %s and %s", hooks[0].ID, hooks[1].ID)
	}
}

func TestWebhookRepositoryDisableExceeded(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewWebhookRepository(db)

	mock.ExpectExec("UPDATE webhooks SET status = 'failed'").
		WithArgs(5).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DisableExceeded(5)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 disabled, got %d", n)
	}
}
