package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewUser(t *testing.T) {
	validUsername := "alice"
	validPassword := "correct horse battery staple"

	user, err := NewUser(validUsername, validPassword)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if user.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if user.Username != validUsername {
		t.Errorf("Expected username %s, got %s", validUsername, user.Username)
	}

	if user.Password != validPassword {
		t.Errorf("Expected password %s, got %s", validPassword, user.Password)
	}

	if user.IsStaff || user.IsSuperuser {
		t.Error("Expected new users to carry no role flags")
	}

	if user.CreatedAt.IsZero() {
		t.Error("Expected non-zero CreatedAt time")
	}

	// Empty username
	_, err = NewUser("", validPassword)
	if err != ErrEmptyUsername {
		t.Errorf("Expected error %v, got %v", ErrEmptyUsername, err)
	}

	// Username too long
	_, err = NewUser(strings.Repeat("a", 151), validPassword)
	if err != ErrUsernameTooLong {
		t.Errorf("Expected error %v, got %v", ErrUsernameTooLong, err)
	}

	// Empty password
	_, err = NewUser(validUsername, "")
	if err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}

	// Password beyond bcrypt's input limit
	_, err = NewUser(validUsername, strings.Repeat("p", 73))
	if err != ErrPasswordTooLong {
		t.Errorf("Expected error %v, got %v", ErrPasswordTooLong, err)
	}
}

func TestUserValidate(t *testing.T) {
	validUser := User{
		ID:             uuid.New(),
		Username:       "alice",
		HashedPassword: "$2a$10$somethinghashed",
	}

	// A stored user carries only the hash
	if err := validUser.Validate(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	invalidUser := validUser
	invalidUser.ID = uuid.Nil
	if err := invalidUser.Validate(); err != ErrEmptyUserID {
		t.Errorf("Expected error %v, got %v", ErrEmptyUserID, err)
	}

	invalidUser = validUser
	invalidUser.HashedPassword = ""
	if err := invalidUser.Validate(); err != ErrEmptyPassword {
		t.Errorf("Expected error %v, got %v", ErrEmptyPassword, err)
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		name        string
		isStaff     bool
		isSuperuser bool
		want        bool
	}{
		{"regular user", false, false, false},
		{"staff", true, false, true},
		{"superuser", false, true, true},
		{"staff and superuser", true, true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			user := User{IsStaff: tc.isStaff, IsSuperuser: tc.isSuperuser}
			if got := user.IsAdmin(); got != tc.want {
				t.Errorf("Expected IsAdmin() = %v, got %v", tc.want, got)
			}
		})
	}
}
