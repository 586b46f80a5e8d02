package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"github.com/google/uuid"
)

type CouponInput struct {
	Code           string     `json:"code"`
	Description    string     `json:"description"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  float64    `json:"discount_value"`
	MinOrderAmount float64    `json:"min_order_amount"`
	MaxDiscount    *float64   `json:"max_discount"`
	ValidFrom      *time.Time `json:"valid_from"`
	ValidUntil     *time.Time `json:"valid_until"`
	UsageLimit     *int64     `json:"usage_limit"`
	IsActive       *bool      `json:"is_active"`
}

type GenerateCouponInput struct {
	Prefix         string   `json:"prefix"`
	Description    string   `json:"description"`
	DiscountType   string   `json:"discount_type"`
	DiscountValue  float64  `json:"discount_value"`
	MinOrderAmount float64  `json:"min_order_amount"`
	MaxDiscount    *float64 `json:"max_discount"`
	ValidDays      int      `json:"valid_days"`
	UsageLimit     *int64   `json:"usage_limit"`
}

// ValidateCoupon のレスポンス。割引額は表示用の見込み額。
type CouponValidationResult struct {
	Valid    bool    `json:"valid"`
	Code     string  `json:"code"`
	Reason   string  `json:"reason,omitempty"`
	Message  string  `json:"message,omitempty"`
	Discount float64 `json:"discount"`
}

type CouponUsecase struct {
	coupons repo.CouponRepository
	now     func() time.Time
}

func NewCouponUsecase(coupons repo.CouponRepository) *CouponUsecase {
	return &CouponUsecase{coupons: coupons, now: time.Now}
}

func (u *CouponUsecase) Create(ctx context.Context, in CouponInput) (model.Coupon, error) {
	c, err := u.buildCoupon(in)
	if err != nil {
		return model.Coupon{}, err
	}

	created, err := u.coupons.Create(ctx, c)
	if errors.Is(err, repo.ErrConflict) {
		return model.Coupon{}, NewHTTPError(http.StatusConflict, CodeConflict, "Coupon code already exists")
	}
	if err != nil {
		return model.Coupon{}, err
	}
	return created, nil
}

func (u *CouponUsecase) List(ctx context.Context, activeOnly bool) ([]model.Coupon, error) {
	return u.coupons.List(ctx, repo.CouponListFilter{ActiveOnly: activeOnly})
}

func (u *CouponUsecase) Get(ctx context.Context, id int64) (model.Coupon, error) {
	c, err := u.coupons.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "Coupon not found")
	}
	return c, err
}

func (u *CouponUsecase) Update(ctx context.Context, id int64, in CouponInput) (model.Coupon, error) {
	current, err := u.Get(ctx, id)
	if err != nil {
		return model.Coupon{}, err
	}

	//codeとused_countは変更不可。それ以外を上書き
	if in.Description != "" {
		current.Description = in.Description
	}
	if in.DiscountType != "" {
		dt, err := parseDiscountType(in.DiscountType)
		if err != nil {
			return model.Coupon{}, err
		}
		current.DiscountType = dt
	}
	if in.DiscountValue > 0 {
		current.DiscountValue = in.DiscountValue
	}
	if in.MinOrderAmount >= 0 {
		current.MinOrderAmount = in.MinOrderAmount
	}
	if in.MaxDiscount != nil {
		current.MaxDiscount = in.MaxDiscount
	}
	if in.ValidFrom != nil {
		current.ValidFrom = *in.ValidFrom
	}
	if in.ValidUntil != nil {
		current.ValidUntil = *in.ValidUntil
	}
	if in.UsageLimit != nil {
		current.UsageLimit = in.UsageLimit
	}
	if in.IsActive != nil {
		current.IsActive = *in.IsActive
	}

	if !current.ValidUntil.After(current.ValidFrom) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "valid_until must be after valid_from")
	}

	if err := u.coupons.Update(ctx, current); err != nil {
		return model.Coupon{}, err
	}
	return current, nil
}

func (u *CouponUsecase) Deactivate(ctx context.Context, id int64) error {
	err := u.coupons.Deactivate(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, CodeNotFound, "Coupon not found")
	}
	return err
}

// GenerateRandom はprefix＋ランダム6文字のコードでクーポンを作る。
// 衝突したら数回まで引き直す。
func (u *CouponUsecase) GenerateRandom(ctx context.Context, in GenerateCouponInput) (model.Coupon, error) {
	if in.ValidDays < 1 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "valid_days must be at least 1")
	}

	now := u.now()
	from := now
	until := now.AddDate(0, 0, in.ValidDays)

	base := CouponInput{
		Description:    in.Description,
		DiscountType:   in.DiscountType,
		DiscountValue:  in.DiscountValue,
		MinOrderAmount: in.MinOrderAmount,
		MaxDiscount:    in.MaxDiscount,
		ValidFrom:      &from,
		ValidUntil:     &until,
		UsageLimit:     in.UsageLimit,
	}

	prefix := strings.ToUpper(strings.TrimSpace(in.Prefix))
	if prefix == "" {
		prefix = "SALE"
	}

	for attempt := 0; attempt < 5; attempt++ {
		base.Code = prefix + randomCouponSuffix()

		c, err := u.buildCoupon(base)
		if err != nil {
			return model.Coupon{}, err
		}

		created, err := u.coupons.Create(ctx, c)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, repo.ErrConflict) {
			return model.Coupon{}, err
		}
	}
	return model.Coupon{}, NewHTTPError(http.StatusConflict, CodeConflict, "Could not generate a unique coupon code")
}

// Validate は購入前の表示用チェック。
// カート適用と違って状態は一切変えない。
func (u *CouponUsecase) Validate(ctx context.Context, userID int64, code string, orderAmount float64) (CouponValidationResult, error) {
	cp, err := u.coupons.FindByCode(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return CouponValidationResult{
			Valid:   false,
			Code:    strings.ToUpper(strings.TrimSpace(code)),
			Reason:  CodeInvalidCoupon,
			Message: "Invalid coupon code",
		}, nil
	}
	if err != nil {
		return CouponValidationResult{}, err
	}

	alreadyUsed, err := u.coupons.HasRedemption(ctx, cp.ID, userID)
	if err != nil {
		return CouponValidationResult{}, err
	}

	if ok, reason := cp.Validate(u.now(), orderAmount, alreadyUsed); !ok {
		return CouponValidationResult{
			Valid:   false,
			Code:    cp.Code,
			Reason:  reason,
			Message: couponReasonMessage(cp, reason),
		}, nil
	}

	return CouponValidationResult{
		Valid:    true,
		Code:     cp.Code,
		Discount: cp.CalculateDiscount(orderAmount),
	}, nil
}

func (u *CouponUsecase) buildCoupon(in CouponInput) (model.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "code is required")
	}

	dt, err := parseDiscountType(in.DiscountType)
	if err != nil {
		return model.Coupon{}, err
	}
	if in.DiscountValue <= 0 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "discount_value must be positive")
	}
	if dt == model.DiscountTypePercentage && in.DiscountValue > 100 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "percentage discount cannot exceed 100")
	}
	if in.ValidFrom == nil || in.ValidUntil == nil {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "valid_from and valid_until are required")
	}
	if !in.ValidUntil.After(*in.ValidFrom) {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, CodeValidation, "valid_until must be after valid_from")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	return model.Coupon{
		Code:           code,
		Description:    in.Description,
		DiscountType:   dt,
		DiscountValue:  in.DiscountValue,
		MinOrderAmount: in.MinOrderAmount,
		MaxDiscount:    in.MaxDiscount,
		ValidFrom:      *in.ValidFrom,
		ValidUntil:     *in.ValidUntil,
		UsageLimit:     in.UsageLimit,
		IsActive:       active,
	}, nil
}

func parseDiscountType(raw string) (model.DiscountType, error) {
	switch model.DiscountType(strings.ToLower(strings.TrimSpace(raw))) {
	case model.DiscountTypePercentage:
		return model.DiscountTypePercentage, nil
	case model.DiscountTypeFixed:
		return model.DiscountTypeFixed, nil
	default:
		return "", NewHTTPError(http.StatusBadRequest, CodeValidation, "discount_type must be percentage or fixed")
	}
}

// uuidから英数6文字を切り出す
func randomCouponSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
}
