package model

import (
	"math"
	"time"
)

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

// 割引の種類（percentage / fixed）
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// 税率は18%固定（GST）。割引前の小計にかける。
const TaxRate = 0.18

// 1ユーザーにつきACTIVEは1つ。
// クーポンは適用時点のスナップショットを列で持つ。
type Cart struct {
	ID     int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64      `gorm:"not null;index" json:"user_id"`
	Status CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	//クーポンのスナップショット（コード・割引値・種類）
	CouponCode  string       `gorm:"type:varchar(50)" json:"coupon_code,omitempty"`
	CouponValue float64      `gorm:"not null;default:0" json:"coupon_value,omitempty"`
	CouponType  DiscountType `gorm:"type:varchar(20)" json:"coupon_type,omitempty"`

	Subtotal float64 `gorm:"not null;default:0" json:"subtotal"`
	Discount float64 `gorm:"not null;default:0" json:"discount"`
	Tax      float64 `gorm:"not null;default:0" json:"tax"`
	Total    float64 `gorm:"not null;default:0" json:"total"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (c *Cart) HasCoupon() bool {
	return c.CouponCode != ""
}

// RecalculateTotals は items とクーポンスナップショットから
// subtotal / discount / tax / total を再計算する。
// 純粋な再計算なので何度呼んでも同じ結果になる。
func (c *Cart) RecalculateTotals(items []CartItem) {
	var subtotal float64
	for _, it := range items {
		subtotal += it.UnitPriceSnapshot * float64(it.Quantity)
	}
	c.Subtotal = subtotal

	//percentageは小計×値/100、fixedはそのまま。
	//この段階では小計との比較クランプはしない（totalのmax(0,..)だけ）。
	if c.HasCoupon() && c.CouponValue > 0 {
		if c.CouponType == DiscountTypePercentage {
			c.Discount = subtotal * c.CouponValue / 100
		} else {
			c.Discount = c.CouponValue
		}
	} else {
		c.Discount = 0
	}

	c.Tax = subtotal * TaxRate

	//合計はマイナスにしない
	c.Total = math.Max(0, c.Subtotal-c.Discount+c.Tax)
}

// クーポンスナップショットを外す。
func (c *Cart) ClearCoupon() {
	c.CouponCode = ""
	c.CouponValue = 0
	c.CouponType = ""
}

// 注文確定後のリセット用（明細なし・クーポンなし・全部0）。
func (c *Cart) ResetTotals() {
	c.ClearCoupon()
	c.Subtotal = 0
	c.Discount = 0
	c.Tax = 0
	c.Total = 0
}
