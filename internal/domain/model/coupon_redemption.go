package model

import "time"

// クーポン使用履歴（usedBy）。
// 同じユーザーが同じクーポンを2回使えないことはDBのユニーク制約で守る。
// coupons.used_count == このテーブルの件数、が不変条件。
type CouponRedemption struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CouponID int64     `gorm:"not null;uniqueIndex:idx_coupon_redemption_user" json:"coupon_id"`
	UserID   int64     `gorm:"not null;uniqueIndex:idx_coupon_redemption_user" json:"user_id"`
	UsedAt   time.Time `gorm:"not null" json:"used_at"`
}
