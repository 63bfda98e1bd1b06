package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"devfolio/internal/common"
	"devfolio/internal/server/auth"
	"devfolio/internal/server/config"
	"devfolio/internal/server/models"
)

type fakeVerifier struct {
	identity *auth.Identity
	err      error
}

func (f *fakeVerifier) Verify(ctx context.Context, raw string) (*auth.Identity, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.identity, nil
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
}

func TestRegisterLocal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := NewUserService(db, rm, nil, testConfig())

	u, err := s.RegisterLocal(context.Background(), "  Alice  ", "s3cret", "Alice", "Doe")
	if err != nil {
		t.Fatalf("RegisterLocal error: %v", err)
	}
	if u.Username == nil || *u.Username != "alice" {
		t.Fatalf("username not normalized: %v", u.Username)
	}
	if !u.Active || u.Role != models.RoleUser {
		t.Fatalf("unexpected defaults: active=%v role=%q", u.Active, u.Role)
	}
	if u.PasswordHash == nil || *u.PasswordHash == "s3cret" {
		t.Fatal("password must be stored hashed")
	}

	_, err = s.RegisterLocal(context.Background(), "ALICE", "other", "A", "B")
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("duplicate username: want ErrConflict, got %v", err)
	}

	_, err = s.RegisterLocal(context.Background(), "   ", "pw", "A", "B")
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("blank username: want ErrValidation, got %v", err)
	}
}

func TestLoginLocal(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := NewUserService(db, rm, nil, testConfig())

	if _, err := s.RegisterLocal(context.Background(), "bob", "pw-bob", "Bob", "Lee"); err != nil {
		t.Fatalf("RegisterLocal error: %v", err)
	}

	pair, err := s.LoginLocal(context.Background(), "bob", "pw-bob")
	if err != nil {
		t.Fatalf("LoginLocal error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}

	claims, err := auth.ParseToken(pair.AccessToken, []byte("k"))
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if claims.UserID != 1 || claims.Role != models.RoleUser {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := s.LoginLocal(context.Background(), "bob", "wrong"); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("wrong password: want ErrUnauthorized, got %v", err)
	}
	if _, err := s.LoginLocal(context.Background(), "nobody", "pw"); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("unknown user: want ErrUnauthorized, got %v", err)
	}
}

func TestLoginLocal_DisabledAccount(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := NewUserService(db, rm, nil, testConfig())

	u, err := s.RegisterLocal(context.Background(), "carol", "pw", "Carol", "Ng")
	if err != nil {
		t.Fatalf("RegisterLocal error: %v", err)
	}
	if err := s.SetUserActive(context.Background(), u.ID, false); err != nil {
		t.Fatalf("SetUserActive error: %v", err)
	}

	if _, err := s.LoginLocal(context.Background(), "carol", "pw"); !errors.Is(err, common.ErrForbidden) {
		t.Fatalf("disabled account: want ErrForbidden, got %v", err)
	}
}

func TestLoginFederated_CreatesAccountOnFirstSight(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	verifier := &fakeVerifier{identity: &auth.Identity{
		Provider:  "google",
		Subject:   "sub-123",
		Email:     "dana@example.com",
		FirstName: "Dana",
		LastName:  "Kim",
	}}
	s := NewUserService(db, rm, verifier, testConfig())

	pair, err := s.LoginFederated(context.Background(), "raw-id-token")
	if err != nil {
		t.Fatalf("LoginFederated error: %v", err)
	}
	if pair.AccessToken == "" {
		t.Fatal("empty access token")
	}

	u, err := rm.users.GetByProvider(context.Background(), "google", "sub-123")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if u.FirstName != "Dana" || u.HasLocalCredential() {
		t.Fatalf("unexpected account: %+v", u)
	}

	// Second login must reuse the account, not create another.
	if _, err := s.LoginFederated(context.Background(), "raw-id-token"); err != nil {
		t.Fatalf("second LoginFederated error: %v", err)
	}
	if len(rm.users.byID) != 1 {
		t.Fatalf("want 1 account, got %d", len(rm.users.byID))
	}
}

func TestLoginFederated_InvalidToken(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := NewUserService(db, rm, &fakeVerifier{err: common.ErrInvalidToken}, testConfig())

	if _, err := s.LoginFederated(context.Background(), "bad"); !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestRefreshToken_RotatesToken(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	rm := newFakeRepoManager()
	s := NewUserService(db, rm, nil, testConfig())

	if _, err := s.RegisterLocal(context.Background(), "erin", "pw", "Erin", "Wu"); err != nil {
		t.Fatalf("RegisterLocal error: %v", err)
	}
	pair, err := s.LoginLocal(context.Background(), "erin", "pw")
	if err != nil {
		t.Fatalf("LoginLocal error: %v", err)
	}

	next, err := s.RefreshToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken error: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token must rotate")
	}

	// The old token is gone.
	if _, err := s.RefreshToken(context.Background(), pair.RefreshToken); !errors.Is(err, common.ErrInvalidToken) {
		t.Fatalf("used token: want ErrInvalidToken, got %v", err)
	}
}

func TestRefreshToken_Expired(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	rm := newFakeRepoManager()
	rm.refreshTokens.byToken["stale"] = &models.RefreshToken{
		UserID:  1,
		Token:   "stale",
		Expires: time.Now().Add(-time.Minute),
	}
	s := NewUserService(db, rm, nil, testConfig())

	if _, err := s.RefreshToken(context.Background(), "stale"); !errors.Is(err, common.ErrRefreshTokenExpired) {
		t.Fatalf("want ErrRefreshTokenExpired, got %v", err)
	}
}

func TestUpdateProfileAndAdminOps(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()
	rm := newFakeRepoManager()
	s := NewUserService(db, rm, nil, testConfig())

	u, err := s.RegisterLocal(context.Background(), "frank", "pw", "Frank", "Old")
	if err != nil {
		t.Fatalf("RegisterLocal error: %v", err)
	}

	updated, err := s.UpdateProfile(context.Background(), u.ID, "Frank", "New")
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if updated.LastName != "New" {
		t.Fatalf("LastName = %q", updated.LastName)
	}

	if err := s.SetUserRole(context.Background(), u.ID, models.RoleAdmin); err != nil {
		t.Fatalf("SetUserRole error: %v", err)
	}
	got, _ := s.GetUser(context.Background(), u.ID)
	if !got.IsAdmin() {
		t.Fatal("role not applied")
	}

	if err := s.SetUserRole(context.Background(), u.ID, "superuser"); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("unknown role: want ErrValidation, got %v", err)
	}
}
