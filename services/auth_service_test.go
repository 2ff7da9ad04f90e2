package services

import (
	"context"
	"testing"
	"time"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"readova/config"
	"readova/models"
)

func newTestAuthService(t *testing.T, maxAttempts int) (*AuthService, *Deps) {
	t.Helper()

	d, _ := newTestDeps(t)
	withRedis(t, d)
	jwtService := config.NewJWTService(config.JWTConfig{
		SecretKey:      "test-secret",
		ExpirationTime: time.Hour,
		Issuer:         "readova",
	}, d.Clock)
	return NewAuthService(d, jwtService, config.AuthConfig{
		MaxLoginAttempts:   maxAttempts,
		LoginBlockDuration: 15 * time.Minute,
	}), d
}

func TestRegisterAndDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t, 5)

	user, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "Ada@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "secret1", user.Password)

	_, err = svc.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, fields, _ := MessageOf(err)
	assert.Contains(t, fields, "email")
}

func TestRegisterConcurrentDuplicateEmail(t *testing.T) {
	svc, d := newTestAuthService(t, 5)

	// 在插入前抢先写入同一邮箱，模拟两个注册请求同时通过了存在性检查
	inserted := false
	require.NoError(t, d.DB.Callback().Create().Before("gorm:create").Register("test:concurrent_register", func(tx *gorm.DB) {
		if inserted || tx.Statement.Table != "users" {
			return
		}
		inserted = true
		now := d.Clock.Now().UTC()
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO users (name, email, password, is_admin, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			"Other", "ada@example.com", "x", false, now, now,
		)
	}))

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.NotValid))
	_, fields, _ := MessageOf(err)
	assert.Equal(t, "The email has already been taken.", fields["email"])
}

func TestLoginAndLogout(t *testing.T) {
	svc, _ := newTestAuthService(t, 5)

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "wrong"}, "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.Unauthorized))
	assert.Equal(t, InvalidCredentialsMessage, err.Error())

	user, token, err := svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "secret1"}, "10.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.False(t, svc.IsRevoked(context.Background(), claims.ID))

	require.NoError(t, svc.Logout(context.Background(), claims))
	assert.True(t, svc.IsRevoked(context.Background(), claims.ID))
}

func TestLoginLockout(t *testing.T) {
	svc, _ := newTestAuthService(t, 2)

	_, err := svc.Register(context.Background(), &RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "wrong"}, "10.0.0.1")
		require.True(t, errors.Is(err, errors.Unauthorized))
	}

	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "secret1"}, "10.0.0.1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.QuotaLimitExceeded))

	// 其他IP不受影响
	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "secret1"}, "10.0.0.2")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	svc, d := newTestAuthService(t, 5)

	alice := createUser(t, d, "alice@example.com", false)
	bob := createUser(t, d, "bob@example.com", false)
	admin := createUser(t, d, "admin@example.com", true)
	book := createBook(t, d, "g1", "Dune", "1.00")
	_, err := NewBorrowService(d).Borrow(context.Background(), &BorrowRequest{UserID: alice.ID, BookID: book.ID, Days: 1})
	require.NoError(t, err)

	err = svc.DeleteUser(context.Background(), &config.Claims{UserID: bob.ID}, "alice@example.com")
	assert.True(t, errors.Is(err, errors.Forbidden))

	err = svc.DeleteUser(context.Background(), &config.Claims{UserID: admin.ID, IsAdmin: true}, "missing@example.com")
	assert.True(t, errors.Is(err, errors.NotFound))

	require.NoError(t, svc.DeleteUser(context.Background(), &config.Claims{UserID: alice.ID}, "alice@example.com"))

	var borrows int64
	require.NoError(t, d.DB.Model(&models.Borrow{}).Count(&borrows).Error)
	assert.Zero(t, borrows)

	require.NoError(t, svc.DeleteUser(context.Background(), &config.Claims{UserID: admin.ID, IsAdmin: true}, "bob@example.com"))
	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@example.com", users[0].Email)
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newTestAuthService(t, 5)
	cfg := config.AdminConfig{Name: "Root", Email: "root@example.com", Password: "rootpass"}

	require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))
	require.NoError(t, svc.EnsureAdmin(context.Background(), cfg))

	user, err := svc.GetUserByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, _, err = svc.Login(context.Background(), &LoginRequest{Email: "root@example.com", Password: "rootpass"}, "127.0.0.1")
	assert.NoError(t, err)
}
