package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/henriquelv/pharma-well-care/internal/domain/model"
	"github.com/henriquelv/pharma-well-care/internal/logging"
	repo "github.com/henriquelv/pharma-well-care/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// 検索インデックスから取る候補IDの上限
const searchCandidateLimit = 500

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	search      ProductSearchIndex // nilなら検索はDBのLIKE
	clock       Clock
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	search ProductSearchIndex,
	clock Clock,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		search:      search,
		clock:       clock,
	}
}

// 商品＋表示用の値引き率
type ProductOutput struct {
	model.Product
	DiscountPercent int64 `json:"discount_percent"`
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{Product: p, DiscountPercent: p.DiscountPercent()}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	Category string
	InStock  *bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []ProductOutput `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc", "name":
	default:
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid sort")
	}

	query := repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		Category: strings.TrimSpace(in.Category),
		InStock:  in.InStock,
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	}

	//検索インデックスがあれば候補IDを先に決める。落ちていたらLIKEで続行
	if u.search != nil && query.Q != "" {
		ids, err := u.search.SearchProductIDs(ctx, query.Q, searchCandidateLimit)
		if err != nil {
			logging.FromContext(ctx).Warn("product search failed, falling back to db", zap.Error(err))
		} else {
			if ids == nil {
				ids = []int64{}
			}
			query.IDs = ids
		}
	}

	items, total, err := u.productRepo.ListPublic(ctx, query)
	if err != nil {
		return ProductListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, toProductOutput(p))
	}
	return ProductListOutput{
		Items: out,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (ProductOutput, error) {
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ProductOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !p.IsActive {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return toProductOutput(p), nil
}

// 管理画面の一覧（非公開も含む）
func (u *ProductUsecase) AdminListProducts(ctx context.Context) ([]ProductOutput, error) {
	items, err := u.productRepo.ListAll(ctx)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, toProductOutput(p))
	}
	return out, nil
}

type AdminProductInput struct {
	Name                 string
	Description          string
	Price                decimal.Decimal
	OriginalPrice        decimal.NullDecimal
	Stock                int64
	PrescriptionRequired bool
	Category             string
	ImageURL             string
	Manufacturer         string
	ActiveIngredient     string
	Dosage               string
	Form                 string
	SKU                  string
	EAN                  string
	IsActive             bool
}

func (in AdminProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	if in.OriginalPrice.Valid && in.OriginalPrice.Decimal.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "original_price must be >= 0")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	return nil
}

func (in AdminProductInput) toModel() model.Product {
	return model.Product{
		Name:                 strings.TrimSpace(in.Name),
		Description:          in.Description,
		Price:                in.Price,
		OriginalPrice:        in.OriginalPrice,
		Stock:                in.Stock,
		InStock:              in.Stock > 0,
		PrescriptionRequired: in.PrescriptionRequired,
		Category:             strings.TrimSpace(in.Category),
		ImageURL:             in.ImageURL,
		Manufacturer:         in.Manufacturer,
		ActiveIngredient:     in.ActiveIngredient,
		Dosage:               in.Dosage,
		Form:                 in.Form,
		SKU:                  in.SKU,
		EAN:                  in.EAN,
		IsActive:             in.IsActive,
	}
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, actorUserID int64, in AdminProductInput) (ProductOutput, error) {
	if actorUserID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := in.validate(); err != nil {
		return ProductOutput{}, err
	}

	var created model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().Create(ctx, in.toModel())
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionCreateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   p.ID,
			AfterJSON:    toJSON(p),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created = p
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}

	u.mirror(ctx, created)
	return toProductOutput(created), nil
}

func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, actorUserID int64, productID int64, in AdminProductInput) (ProductOutput, error) {
	if actorUserID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if err := in.validate(); err != nil {
		return ProductOutput{}, err
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		after := in.toModel()
		after.ID = productID
		after.CreatedAt = before.CreatedAt
		if err := r.Products().Update(ctx, after); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		now := u.clock.Now()
		after.UpdatedAt = now
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			AfterJSON:    toJSON(after),
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		updated = after
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}

	u.mirror(ctx, updated)
	return toProductOutput(updated), nil
}

// 論理削除。カートに入っている明細はそのまま（追加時点のスナップショット）。
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, actorUserID int64, productID int64) error {
	if actorUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		before, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.Products().SoftDelete(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionDeleteProduct,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   toJSON(before),
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if u.search != nil {
		if err := u.search.DeleteProduct(ctx, productID); err != nil {
			logging.FromContext(ctx).Warn("product unindex failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	return nil
}

// AdminUpdateInventory は在庫数を設定し、調整履歴と監査ログを同じTxで残す
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, actorUserID int64, productID int64, newStock int64, reason string) (ProductOutput, error) {
	if actorUserID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	if newStock < 0 {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "reason required")
	}

	var updated model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//在庫の現在値を更新
		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//履歴を作成
		now := u.clock.Now()
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			StaffUserID: actorUserID,
			StockBefore: p.Stock,
			StockAfter:  newStock,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		//監査ログを作成（在庫更新）
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"stock":%d}`, p.Stock),
			AfterJSON:    fmt.Sprintf(`{"stock":%d}`, newStock),
			Reason:       reason,
			CreatedAt:    now,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		p.Stock = newStock
		p.InStock = newStock > 0
		updated = p
		return nil
	})
	if err != nil {
		return ProductOutput{}, err
	}

	u.mirror(ctx, updated)
	return toProductOutput(updated), nil
}

func (u *ProductUsecase) ListInventoryAdjustments(ctx context.Context, productID int64) ([]model.InventoryAdjustment, error) {
	if productID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid product id")
	}

	var out []model.InventoryAdjustment
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if _, err := r.Products().FindByID(ctx, productID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		adjs, err := r.Inventory().ListAdjustments(ctx, productID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = adjs
		return nil
	})
	return out, err
}

// 検索インデックスへの反映（失敗してもDBが正）
func (u *ProductUsecase) mirror(ctx context.Context, p model.Product) {
	if u.search == nil {
		return
	}
	if err := u.search.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("product index failed", zap.Int64("product_id", p.ID), zap.Error(err))
	}
}

// Reindex は全商品をインデックスに入れ直す（起動時）
func (u *ProductUsecase) Reindex(ctx context.Context) (int, error) {
	if u.search == nil {
		return 0, nil
	}
	items, err := u.productRepo.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range items {
		if err := u.search.IndexProduct(ctx, p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func toJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
