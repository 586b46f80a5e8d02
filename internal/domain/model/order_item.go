package model

import "time"

// 注文明細。商品名・画像・単価は注文時点でスナップショットする。
// 後からカタログが編集されても注文には影響しない。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"name"`
	ImageURLSnapshot    string    `gorm:"type:varchar(500)" json:"image,omitempty"`
	UnitPriceSnapshot   float64   `gorm:"not null" json:"price"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
