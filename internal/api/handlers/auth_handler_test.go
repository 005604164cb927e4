package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	pkgErrors "promptdepot/internal/pkg/errors"
	"promptdepot/internal/platform/repositories"
)

func TestAuthHandler_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	handler := NewAuthHandler(repositories.NewUserRepository(db))

	registerRequest := func(body string) *http.Request {
		req, _ := http.NewRequest("POST", "/api/auth/users", bytes.NewBufferString(body))
		return req
	}

	t.Run("New User", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnResult(sqlmock.NewResult(1, 1))

		rr := httptest.NewRecorder()
		handler.Register(rr, registerRequest(`{"externalId":"ext_1","email":"one@example.com"}`))

		if rr.Code != http.StatusCreated {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusCreated)
		}
	})

	t.Run("Retried Registration", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint})

		rows := sqlmock.NewRows([]string{"id", "external_id", "email", "name", "avatar_url", "created_at", "updated_at"}).
			AddRow("usr_1", "ext_1", "one@example.com", nil, nil, 1234567890, 1234567890)
		mock.ExpectQuery("SELECT (.+) FROM users WHERE external_id = ?").
			WithArgs("ext_1").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler.Register(rr, registerRequest(`{"externalId":"ext_1","email":"one@example.com"}`))

		if rr.Code != http.StatusCreated {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusCreated)
		}

		var body struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body.User.ID != "usr_1" {
			t.Errorf("Expected existing user usr_1, got %q", body.User.ID)
		}
	})

	t.Run("Email Collision", func(t *testing.T) {
		// Same email, different external id: the recovery lookup finds
		// nothing, so the response is a conflict rather than a 201 with a
		// null user.
		mock.ExpectExec("INSERT INTO users").
			WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint})

		emptyRows := sqlmock.NewRows([]string{"id", "external_id", "email", "name", "avatar_url", "created_at", "updated_at"})
		mock.ExpectQuery("SELECT (.+) FROM users WHERE external_id = ?").
			WithArgs("ext_2").
			WillReturnRows(emptyRows)

		rr := httptest.NewRecorder()
		handler.Register(rr, registerRequest(`{"externalId":"ext_2","email":"one@example.com"}`))

		if rr.Code != http.StatusConflict {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusConflict)
		}

		var body pkgErrors.ErrorResponse
		if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		if body.Code != pkgErrors.ErrCodeConflict {
			t.Errorf("Expected code %s, got %s", pkgErrors.ErrCodeConflict, body.Code)
		}
	})
}
