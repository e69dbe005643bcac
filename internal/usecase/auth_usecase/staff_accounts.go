package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/repository"
)

type StaffListInput struct {
	Role   string
	Active *bool
	Limit  int
	Offset int
}

type StaffListOutput struct {
	Items  []model.User `json:"items"`
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
}

// 管理画面のスタッフ一覧と停止/再開
type StaffAccountsUsecase struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	clock     Clock
}

func NewStaffAccountsUsecase(userRepo repository.UserRepository, auditRepo repository.AuditLogRepository, clock Clock) *StaffAccountsUsecase {
	return &StaffAccountsUsecase{userRepo: userRepo, auditRepo: auditRepo, clock: clock}
}

func (u *StaffAccountsUsecase) List(ctx context.Context, in StaffListInput) (StaffListOutput, error) {
	if in.Limit == 0 {
		in.Limit = 50
	}
	if in.Limit < 1 || in.Limit > 100 || in.Offset < 0 {
		return StaffListOutput{}, ErrInvalidPaging
	}

	f := repository.StaffFilter{Active: in.Active, Limit: in.Limit, Offset: in.Offset}
	if r := strings.ToUpper(strings.TrimSpace(in.Role)); r != "" {
		role := model.Role(r)
		if role != model.RoleAdmin && role != model.RoleStaff {
			return StaffListOutput{}, ErrInvalidRole
		}
		f.Role = &role
	}

	users, total, err := u.userRepo.List(ctx, f)
	if err != nil {
		return StaffListOutput{}, err
	}
	return StaffListOutput{Items: users, Total: total, Limit: in.Limit, Offset: in.Offset}, nil
}

// SetActive はスタッフを停止/再開する。発行済みトークンはどちらでも無効になる。
func (u *StaffAccountsUsecase) SetActive(ctx context.Context, actorUserID, targetUserID int64, active bool) (model.User, error) {
	if actorUserID == targetUserID {
		return model.User{}, ErrSelfTarget
	}

	before, err := u.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return model.User{}, err
	}
	if before.IsActive == active {
		return *before, nil
	}

	//最後の管理者は止めない
	if !active && before.Role == model.RoleAdmin {
		n, err := u.userRepo.CountActiveAdmins(ctx)
		if err != nil {
			return model.User{}, err
		}
		if n <= 1 {
			return model.User{}, ErrLastAdmin
		}
	}

	if err := u.userRepo.SetActive(ctx, targetUserID, active); err != nil {
		return model.User{}, err
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateUserStatus,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   fmt.Sprintf(`{"is_active":%t,"token_version":%d}`, before.IsActive, before.TokenVersion),
		AfterJSON:    fmt.Sprintf(`{"is_active":%t,"token_version":%d}`, active, before.TokenVersion+1),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return model.User{}, err
	}

	after := *before
	after.IsActive = active
	after.TokenVersion++
	return after, nil
}
