package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/repository"
)

// スタッフ登録の入力
type RegisterStaffInput struct {
	Email    string
	Password string
	Role     model.Role
}

// RegisterStaffUsecaseは管理画面アカウントの作成。
// 起動時の管理者作成と、管理者によるスタッフ追加の両方で使う。
type RegisterStaffUsecase struct {
	userRepo repository.UserRepository
	hasher   PasswordHasher
	clock    Clock
}

// DI
func NewRegisterStaffUsecase(
	userRepo repository.UserRepository,
	hasher PasswordHasher,
	clock Clock,
) *RegisterStaffUsecase {
	return &RegisterStaffUsecase{
		userRepo: userRepo,
		hasher:   hasher,
		clock:    clock,
	}
}

func (u *RegisterStaffUsecase) Execute(ctx context.Context, in RegisterStaffInput) (model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))

	// emailの形式チェック
	if !isValidEmailFormat(email) {
		return model.User{}, ErrInvalidEmailFormat
	}

	// password の長さチェック（最小12文字）
	if len(in.Password) < 12 {
		return model.User{}, ErrPasswordTooShort
	}

	// よくある弱いパスワードの拒否
	if isWeakPassword(in.Password) {
		return model.User{}, ErrWeakPassword
	}

	role := in.Role
	if role == "" {
		role = model.RoleStaff
	}
	if role != model.RoleStaff && role != model.RoleAdmin {
		return model.User{}, ErrInvalidRole
	}

	// email重複チェック
	existing, err := u.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return model.User{}, ErrEmailAlreadyExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return model.User{}, err
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}

	now := u.clock.Now()
	user := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return model.User{}, err
	}
	return *user, nil
}

// EnsureAdmin は指定メールのユーザーが無ければADMINとして作る。
// 既にあれば何もしない（created=false）。
func (u *RegisterStaffUsecase) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	_, err := u.Execute(ctx, RegisterStaffInput{Email: email, Password: password, Role: model.RoleAdmin})
	if errors.Is(err, ErrEmailAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// メールチェック
func isValidEmailFormat(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// パスワードのよくある弱いパスワード
func isWeakPassword(password string) bool {
	normalized := strings.ToLower(strings.TrimSpace(password))

	weak := map[string]struct{}{
		"password":     {},
		"password1234": {},
		"123456789012": {},
		"qwertyuiop12": {},
		"admin1234567": {},
		"farmacia1234": {},
	}

	_, ok := weak[normalized]
	return ok
}
