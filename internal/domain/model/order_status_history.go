package model

import "time"

// 注文ステータスの履歴。追記のみで更新・削除しない。
type OrderStatusHistory struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID   int64       `gorm:"not null;index" json:"order_id"`
	Status    OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Message   string      `gorm:"type:varchar(255)" json:"message"`
	CreatedAt time.Time   `gorm:"not null;autoCreateTime" json:"timestamp"`
}
