package model

import "time"

// 商品の分類（集計・表示用）
type Category struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	Description string    `gorm:"type:varchar(255)" json:"description"`
	Icon        string    `gorm:"type:varchar(20)" json:"icon"`
	Color       string    `gorm:"type:varchar(20)" json:"color"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
