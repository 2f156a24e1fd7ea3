package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/internal/users"
	pkgAuth "github.com/angelmondragon/kitstore-backend/pkg/auth"
	"github.com/angelmondragon/kitstore-backend/pkg/config"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "kitstore",
	ExpirationMinutes: 30,
}

func TestServiceLoginAdminRoleInToken(t *testing.T) {
	password := "admin-secret"
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@kitstore.test",
		PasswordHash: mustHashPassword(t, password),
		FirstName:    "Ada",
		Role:         enums.UserRoleAdmin,
		IsActive:     true,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := buildTestService(t, repo)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "  ADMIN@kitstore.test ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if !claims.IsAdmin() {
		t.Fatalf("expected admin claim, got %s", claims.Role)
	}
	if resp.RefreshToken != "refresh-token" {
		t.Fatalf("expected refresh token to be set")
	}
	if user.LastLoginAt == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestServiceLoginRejectsBadPasswordAndInactiveUsers(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "fan@example.com",
		PasswordHash: mustHashPassword(t, "right-password"),
		Role:         enums.UserRoleCustomer,
		IsActive:     true,
	}
	repo := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	svc := buildTestService(t, repo)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	user.IsActive = false
	_, err = svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "right-password"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for inactive user, got %v", err)
	}

	_, err = svc.Login(context.Background(), LoginRequest{Email: "nobody@example.com", Password: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for unknown user, got %v", err)
	}
}

func TestServiceRegisterCreatesCustomer(t *testing.T) {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	svc := buildTestService(t, repo)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Kofi",
		LastName:  "Mensah",
		Email:     "Kofi@Example.com",
		Password:  "long-enough",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Email != "kofi@example.com" {
		t.Fatalf("expected normalised email, got %s", resp.User.Email)
	}
	if resp.User.Role != enums.UserRoleCustomer {
		t.Fatalf("expected customer role, got %s", resp.User.Role)
	}
	stored := repo.byEmail["kofi@example.com"]
	if stored == nil || stored.PasswordHash == "long-enough" {
		t.Fatalf("expected hashed password to be stored")
	}

	_, err = svc.Register(context.Background(), RegisterRequest{
		FirstName: "Kofi",
		LastName:  "Mensah",
		Email:     "kofi@example.com",
		Password:  "long-enough",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict for duplicate email, got %v", err)
	}
}

func buildTestService(t *testing.T, repo *stubUserRepo) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: &stubSessionManager{refreshToken: "refresh-token"},
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	byEmail map[string]*models.User
}

func (s *stubUserRepo) Create(_ context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	for _, user := range s.byEmail {
		if user.ID == id {
			user.LastLoginAt = &at
		}
	}
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(context.Context, uuid.UUID, string) error {
	return nil
}

type stubSessionManager struct {
	refreshToken string
}

func (s *stubSessionManager) Generate(context.Context, string) (string, error) {
	return s.refreshToken, nil
}
