package model

import (
	"math"
	"time"
)

// Validate が返す理由コード。
// APIのレスポンスにそのまま載せる機械可読コード。
const (
	CouponReasonNotActive     = "NOT_ACTIVE"
	CouponReasonNotYetValid   = "NOT_YET_VALID"
	CouponReasonExpired       = "EXPIRED"
	CouponReasonLimitReached  = "LIMIT_REACHED"
	CouponReasonBelowMinOrder = "BELOW_MIN_ORDER"
	CouponReasonAlreadyUsed   = "ALREADY_USED"
)

// クーポン本体。codeはユニーク（大文字で保存）。
// 過去注文から参照されるのでハードデリートはしない（is_active=falseにする）。
type Coupon struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Code        string `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64      `gorm:"not null" json:"discount_value"`

	//この金額未満の注文には使えない
	MinOrderAmount float64 `gorm:"not null;default:0" json:"min_order_amount"`

	//percentage用の割引上限（nilなら上限なし）
	MaxDiscount *float64 `gorm:"default:null" json:"max_discount,omitempty"`

	ValidFrom  time.Time `gorm:"not null" json:"valid_from"`
	ValidUntil time.Time `gorm:"not null" json:"valid_until"`

	//全体の使用回数上限（nilなら無制限）
	UsageLimit *int64 `gorm:"default:null" json:"usage_limit,omitempty"`
	UsedCount  int64  `gorm:"not null;default:0" json:"used_count"`

	IsActive bool `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// Validate はユーザー・注文金額に対する利用可否を判定する。
// チェックは上から順で、最初に落ちた理由コードを返す（validなら空文字）。
// alreadyUsed（このユーザーが使用済みか）は呼び出し側がusedByから調べて渡す。
func (cp *Coupon) Validate(now time.Time, orderAmount float64, alreadyUsed bool) (bool, string) {
	if !cp.IsActive {
		return false, CouponReasonNotActive
	}
	if now.Before(cp.ValidFrom) {
		return false, CouponReasonNotYetValid
	}
	if now.After(cp.ValidUntil) {
		return false, CouponReasonExpired
	}
	if cp.UsageLimit != nil && cp.UsedCount >= *cp.UsageLimit {
		return false, CouponReasonLimitReached
	}
	if orderAmount < cp.MinOrderAmount {
		return false, CouponReasonBelowMinOrder
	}
	if alreadyUsed {
		return false, CouponReasonAlreadyUsed
	}
	return true, ""
}

// CalculateDiscount は表示用の割引額を計算する。
// percentageはmaxDiscountで、最後に必ずamountでキャップする
// （割引額が元の金額を超えることはない）。
// 実際にチェックアウトで使われるのはカート側で再計算した値。
func (cp *Coupon) CalculateDiscount(amount float64) float64 {
	var discount float64

	if cp.DiscountType == DiscountTypePercentage {
		discount = amount * cp.DiscountValue / 100
		if cp.MaxDiscount != nil {
			discount = math.Min(discount, *cp.MaxDiscount)
		}
	} else {
		discount = cp.DiscountValue
	}

	return math.Min(discount, amount)
}
