package repository

import (
	"context"
	"errors"
	"time"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
)

// ユーザーが見つかりませんを統一
var ErrUserNotFound = errors.New("user not found")

// スタッフ一覧の絞り込み
type StaffFilter struct {
	Role   *model.Role
	Active *bool
	Limit  int
	Offset int
}

// 管理画面スタッフの保存・取得
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	// メールは大文字小文字を区別しない
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, f StaffFilter) ([]model.User, int64, error)
	RecordLogin(ctx context.Context, userID int64, at time.Time) error
	// 停止・再開。どちらでもtoken_versionを上げて発行済みトークンを切る
	SetActive(ctx context.Context, userID int64, active bool) error
	CountActiveAdmins(ctx context.Context) (int64, error)
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
