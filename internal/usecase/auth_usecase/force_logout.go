package auth

import (
	"context"
	"fmt"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/repository"
)

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

// token_versionを上げて、発行済みのアクセストークンを全部無効にする
type ForceLogoutUsecase struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditLogRepository
	clock     Clock
}

func NewForceLogoutUsecase(userRepo repository.UserRepository, auditRepo repository.AuditLogRepository, clock Clock) *ForceLogoutUsecase {
	return &ForceLogoutUsecase{userRepo: userRepo, auditRepo: auditRepo, clock: clock}
}

func (u *ForceLogoutUsecase) Execute(ctx context.Context, actorUserID, targetUserID int64) (ForceLogoutOutput, error) {
	before, err := u.userRepo.FindByID(ctx, targetUserID)
	if err != nil {
		return ForceLogoutOutput{}, err
	}

	if err := u.userRepo.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return ForceLogoutOutput{}, err
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   fmt.Sprintf(`{"token_version":%d}`, before.TokenVersion),
		AfterJSON:    fmt.Sprintf(`{"token_version":%d}`, before.TokenVersion+1),
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		return ForceLogoutOutput{}, err
	}

	return ForceLogoutOutput{
		UserID:          targetUserID,
		NewTokenVersion: before.TokenVersion + 1,
	}, nil
}
