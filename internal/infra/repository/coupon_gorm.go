package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/gorm"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		if isUniqueViolation(err) {
			return model.Coupon{}, repo.ErrConflict
		}
		return model.Coupon{}, err
	}
	return c, nil
}

func (r *CouponGormRepository) Update(ctx context.Context, c model.Coupon) error {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ?", c.ID).
		Updates(map[string]interface{}{
			"description":      c.Description,
			"discount_type":    c.DiscountType,
			"discount_value":   c.DiscountValue,
			"min_order_amount": c.MinOrderAmount,
			"max_discount":     c.MaxDiscount,
			"valid_from":       c.ValidFrom,
			"valid_until":      c.ValidUntil,
			"usage_limit":      c.UsageLimit,
			"is_active":        c.IsActive,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CouponGormRepository) FindByID(ctx context.Context, id int64) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

// codeは保存時に大文字化しているので検索も大文字で
func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Coupon{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

func (r *CouponGormRepository) List(ctx context.Context, f repo.CouponListFilter) ([]model.Coupon, error) {
	q := r.db.WithContext(ctx).Model(&model.Coupon{})

	if f.ActiveOnly {
		q = q.Where("is_active = ?", true).Where("valid_until >= ?", time.Now())
	}

	var cs []model.Coupon
	if err := q.Order("created_at desc").Find(&cs).Error; err != nil {
		return []model.Coupon{}, err
	}
	return cs, nil
}

// 無効化のみ。過去注文が参照するのでDELETEはしない
func (r *CouponGormRepository) Deactivate(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Model(&model.Coupon{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *CouponGormRepository) HasRedemption(ctx context.Context, couponID int64, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CouponRedemption{}).
		Where("coupon_id = ? AND user_id = ?", couponID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 使用記録。usedByへの追記とused_count+1を同一トランザクションで行う。
// ・同じユーザーの2回目はユニーク制約違反 → false
// ・usage_limit到達はused_countの条件付きUPDATEが0件 → ロールバックしてfalse
func (r *CouponGormRepository) Redeem(ctx context.Context, couponID int64, userID int64, usedAt time.Time) (bool, error) {
	redeemed := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		red := model.CouponRedemption{
			CouponID: couponID,
			UserID:   userID,
			UsedAt:   usedAt,
		}
		if err := tx.Create(&red).Error; err != nil {
			if isUniqueViolation(err) {
				//すでに使用済み。トランザクションは正常終了させる
				return nil
			}
			return err
		}

		res := tx.Model(&model.Coupon{}).
			Where("id = ? AND (usage_limit IS NULL OR used_count < usage_limit)", couponID).
			Update("used_count", gorm.Expr("used_count + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			//上限到達。挿入ごとロールバック
			return repo.ErrConflict
		}

		redeemed = true
		return nil
	})

	if errors.Is(err, repo.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return redeemed, nil
}
