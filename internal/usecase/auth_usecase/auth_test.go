package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, f repository.StaffFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]model.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) RecordLogin(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

func (m *MockUserRepository) CountActiveAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditRepository) List(ctx context.Context, f repository.AuditLogFilter) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, f)
	logs, _ := args.Get(0).([]model.AuditLog)
	return logs, args.Get(1).(int64), args.Error(2)
}

// =====================
// Helper
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func newLoginUC(userRepo *MockUserRepository) *LoginUsecase {
	return NewLoginUsecase(userRepo, NewBcryptPasswordVerifier(), NewJWTIssuer("test-secret", 15*time.Minute), fixedClock{testNow})
}

// =====================
// Login
// =====================

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	userRepo := new(MockUserRepository)

	userRepo.On("FindByEmail", mock.Anything, "admin@farmacia.com").Return(&model.User{
		ID:           7,
		Email:        "admin@farmacia.com",
		PasswordHash: mustHash(t, "CorrectHorse42"),
		Role:         model.RoleAdmin,
		TokenVersion: 3,
		IsActive:     true,
	}, nil)
	userRepo.On("RecordLogin", mock.Anything, int64(7), testNow).Return(nil)

	out, err := newLoginUC(userRepo).Execute(ctx, LoginInput{Email: " Admin@Farmacia.com ", Password: "CorrectHorse42"})
	require.NoError(t, err)

	assert.Equal(t, int64(7), out.User.ID)
	require.NotNil(t, out.User.LastLoginAt)
	assert.True(t, out.User.LastLoginAt.Equal(testNow))
	assert.Equal(t, 900, out.Token.ExpiresIn)
	assert.Equal(t, 3, out.Token.TokenVersion)

	assert.NotEmpty(t, out.Token.AccessToken)

	userRepo.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "a@farmacia.com").Return(&model.User{
		ID: 1, PasswordHash: mustHash(t, "CorrectHorse42"), IsActive: true,
	}, nil)

	_, err := newLoginUC(userRepo).Execute(context.Background(), LoginInput{Email: "a@farmacia.com", Password: "nope"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	userRepo.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "ghost@farmacia.com").Return(nil, repository.ErrUserNotFound)

	_, err := newLoginUC(userRepo).Execute(context.Background(), LoginInput{Email: "ghost@farmacia.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "off@farmacia.com").Return(&model.User{
		ID: 2, PasswordHash: mustHash(t, "CorrectHorse42"), IsActive: false,
	}, nil)

	_, err := newLoginUC(userRepo).Execute(context.Background(), LoginInput{Email: "off@farmacia.com", Password: "CorrectHorse42"})
	assert.ErrorIs(t, err, ErrUserInactive)
}

func TestLogin_RepositoryError(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "a@farmacia.com").Return(nil, errors.New("db down"))

	_, err := newLoginUC(userRepo).Execute(context.Background(), LoginInput{Email: "a@farmacia.com", Password: "x"})
	assert.EqualError(t, err, "db down")
}

// =====================
// JWT
// =====================

func TestJWTIssuer_RoundTrip(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Hour)
	now := time.Now()

	tok, exp, err := issuer.Issue(42, model.RoleStaff, 5, now)
	require.NoError(t, err)
	assert.WithinDuration(t, now.Add(time.Hour), exp, time.Second)

	claims, err := ParseAccessToken(tok, []byte("secret"))
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "STAFF", claims.Role)
	assert.Equal(t, 5, claims.TokenVersion)

	_, err = ParseAccessToken(tok, []byte("other"))
	assert.Error(t, err)
}

func TestJWTIssuer_Expired(t *testing.T) {
	issuer := NewJWTIssuer("secret", time.Minute)
	tok, _, err := issuer.Issue(1, model.RoleAdmin, 0, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = ParseAccessToken(tok, []byte("secret"))
	assert.Error(t, err)
}

// =====================
// RegisterStaff / EnsureAdmin
// =====================

func TestRegisterStaff_Success(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "staff@farmacia.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "staff@farmacia.com" && u.Role == model.RoleStaff && u.IsActive &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("LongEnoughPw1")) == nil
	})).Return(nil)

	uc := NewRegisterStaffUsecase(userRepo, NewBcryptPasswordHasher(bcrypt.MinCost), fixedClock{testNow})
	u, err := uc.Execute(context.Background(), RegisterStaffInput{Email: "Staff@Farmacia.com", Password: "LongEnoughPw1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStaff, u.Role)

	userRepo.AssertExpectations(t)
}

func TestRegisterStaff_Validation(t *testing.T) {
	uc := NewRegisterStaffUsecase(new(MockUserRepository), NewBcryptPasswordHasher(bcrypt.MinCost), fixedClock{testNow})
	ctx := context.Background()

	_, err := uc.Execute(ctx, RegisterStaffInput{Email: "not-an-email", Password: "LongEnoughPw1"})
	assert.ErrorIs(t, err, ErrInvalidEmailFormat)

	_, err = uc.Execute(ctx, RegisterStaffInput{Email: "a@farmacia.com", Password: "short"})
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = uc.Execute(ctx, RegisterStaffInput{Email: "a@farmacia.com", Password: "password1234"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = uc.Execute(ctx, RegisterStaffInput{Email: "a@farmacia.com", Password: "LongEnoughPw1", Role: "USER"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestEnsureAdmin_ExistingIsNoop(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "admin@farmacia.com").Return(&model.User{ID: 1}, nil)

	uc := NewRegisterStaffUsecase(userRepo, NewBcryptPasswordHasher(bcrypt.MinCost), fixedClock{testNow})
	created, err := uc.EnsureAdmin(context.Background(), "admin@farmacia.com", "LongEnoughPw1")
	require.NoError(t, err)
	assert.False(t, created)
	userRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestEnsureAdmin_Creates(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByEmail", mock.Anything, "admin@farmacia.com").Return(nil, repository.ErrUserNotFound)
	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleAdmin
	})).Return(nil)

	uc := NewRegisterStaffUsecase(userRepo, NewBcryptPasswordHasher(bcrypt.MinCost), fixedClock{testNow})
	created, err := uc.EnsureAdmin(context.Background(), "admin@farmacia.com", "LongEnoughPw1")
	require.NoError(t, err)
	assert.True(t, created)
}

// =====================
// ForceLogout
// =====================

func TestForceLogout(t *testing.T) {
	userRepo := new(MockUserRepository)
	audit := new(MockAuditRepository)

	userRepo.On("FindByID", mock.Anything, int64(9)).Return(&model.User{ID: 9, TokenVersion: 2}, nil)
	userRepo.On("IncrementTokenVersion", mock.Anything, int64(9)).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionForceLogout && l.ActorUserID == 1 && l.ResourceID == 9 &&
			l.AfterJSON == `{"token_version":3}`
	})).Return(nil)

	out, err := NewForceLogoutUsecase(userRepo, audit, fixedClock{testNow}).Execute(context.Background(), 1, 9)
	require.NoError(t, err)
	assert.Equal(t, 3, out.NewTokenVersion)

	userRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestForceLogout_UnknownUser(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, int64(9)).Return(nil, repository.ErrUserNotFound)

	_, err := NewForceLogoutUsecase(userRepo, new(MockAuditRepository), fixedClock{testNow}).Execute(context.Background(), 1, 9)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	userRepo.AssertNotCalled(t, "IncrementTokenVersion", mock.Anything, mock.Anything)
}

// =====================
// StaffAccounts
// =====================

func newStaffUC(userRepo *MockUserRepository, audit *MockAuditRepository) *StaffAccountsUsecase {
	return NewStaffAccountsUsecase(userRepo, audit, fixedClock{testNow})
}

func TestStaffAccounts_List(t *testing.T) {
	userRepo := new(MockUserRepository)
	active := true
	userRepo.On("List", mock.Anything, mock.MatchedBy(func(f repository.StaffFilter) bool {
		return f.Role != nil && *f.Role == model.RoleStaff && f.Active != nil && *f.Active && f.Limit == 50
	})).Return([]model.User{{ID: 2, Email: "ana@farmacia.com", Role: model.RoleStaff, IsActive: true}}, int64(1), nil)

	out, err := newStaffUC(userRepo, nil).List(context.Background(), StaffListInput{Role: " staff ", Active: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
	assert.Equal(t, 50, out.Limit)
	userRepo.AssertExpectations(t)
}

func TestStaffAccounts_List_Validation(t *testing.T) {
	uc := newStaffUC(new(MockUserRepository), nil)

	_, err := uc.List(context.Background(), StaffListInput{Role: "OWNER"})
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = uc.List(context.Background(), StaffListInput{Limit: 101})
	assert.ErrorIs(t, err, ErrInvalidPaging)
}

func TestStaffAccounts_Deactivate(t *testing.T) {
	userRepo := new(MockUserRepository)
	audit := new(MockAuditRepository)

	userRepo.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, Role: model.RoleStaff, IsActive: true, TokenVersion: 1}, nil)
	userRepo.On("SetActive", mock.Anything, int64(5), false).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateUserStatus && l.ActorUserID == 1 && l.ResourceID == 5 &&
			l.AfterJSON == `{"is_active":false,"token_version":2}`
	})).Return(nil)

	out, err := newStaffUC(userRepo, audit).SetActive(context.Background(), 1, 5, false)
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	assert.Equal(t, 2, out.TokenVersion)

	//スタッフの停止で管理者数は見ない
	userRepo.AssertNotCalled(t, "CountActiveAdmins", mock.Anything)
	userRepo.AssertExpectations(t)
	audit.AssertExpectations(t)
}

func TestStaffAccounts_SameStateIsNoop(t *testing.T) {
	userRepo := new(MockUserRepository)
	userRepo.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, Role: model.RoleStaff, IsActive: true}, nil)

	out, err := newStaffUC(userRepo, new(MockAuditRepository)).SetActive(context.Background(), 1, 5, true)
	require.NoError(t, err)
	assert.True(t, out.IsActive)
	userRepo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

func TestStaffAccounts_Guards(t *testing.T) {
	userRepo := new(MockUserRepository)
	uc := newStaffUC(userRepo, new(MockAuditRepository))

	_, err := uc.SetActive(context.Background(), 3, 3, false)
	assert.ErrorIs(t, err, ErrSelfTarget)

	userRepo.On("FindByID", mock.Anything, int64(2)).Return(&model.User{ID: 2, Role: model.RoleAdmin, IsActive: true}, nil)
	userRepo.On("CountActiveAdmins", mock.Anything).Return(int64(1), nil)
	_, err = uc.SetActive(context.Background(), 3, 2, false)
	assert.ErrorIs(t, err, ErrLastAdmin)

	userRepo.On("FindByID", mock.Anything, int64(9)).Return(nil, repository.ErrUserNotFound)
	_, err = uc.SetActive(context.Background(), 3, 9, false)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	userRepo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}
