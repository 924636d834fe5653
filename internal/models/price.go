/**
 * @description
 * Price history and summary database models.
 * Map to the 'price_history' and 'price_summary' tables in PostgreSQL.
 *
 * @dependencies
 * - gorm.io/gorm
 */

package models

import (
	"time"
)

// PriceSnapshot represents one observed price point for an app.
// Append-only; prices are stored in the currency's minor unit (cents).
type PriceSnapshot struct {
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	AppID           int64     `gorm:"column:app_id;not null;index:idx_price_history_app_time" json:"app_id"`
	Region          string    `gorm:"column:region;size:8;not null" json:"region"`
	PriceCurrent    int64     `gorm:"column:price_current;not null;check:price_current >= 0" json:"price_current"`
	PriceOriginal   int64     `gorm:"column:price_original;not null;check:price_original >= 0" json:"price_original"`
	DiscountPercent int       `gorm:"column:discount_percent;not null;check:discount_percent >= 0 AND discount_percent <= 100" json:"discount_percent"`
	Currency        string    `gorm:"column:currency;size:8" json:"currency"`
	CheckedAt       time.Time `gorm:"column:checked_at;not null;index:idx_price_history_app_time" json:"checked_at"`
}

// TableName overrides the table name used by PriceSnapshot to `price_history`
func (PriceSnapshot) TableName() string {
	return "price_history"
}

// PriceSummary holds rolling discount extrema per app, maintained transactionally
// with every snapshot insert. Nil discount pointers mean the app was never seen on sale.
type PriceSummary struct {
	AppID            int64      `gorm:"primaryKey;column:app_id" json:"app_id"`
	FirstSeen        time.Time  `gorm:"column:first_seen;not null" json:"first_seen"`
	LastSeen         time.Time  `gorm:"column:last_seen;not null" json:"last_seen"`
	MinDiscount      *int       `gorm:"column:min_discount" json:"min_discount"`
	MinDiscountDate  *time.Time `gorm:"column:min_discount_date" json:"min_discount_date"`
	MaxDiscount      *int       `gorm:"column:max_discount" json:"max_discount"`
	MaxDiscountDate  *time.Time `gorm:"column:max_discount_date" json:"max_discount_date"`
	LastDiscount     *int       `gorm:"column:last_discount" json:"last_discount"`
	LastDiscountDate *time.Time `gorm:"column:last_discount_date" json:"last_discount_date"`
	TotalChecks      int64      `gorm:"column:total_checks;default:0" json:"total_checks"`
	TimesOnSale      int64      `gorm:"column:times_on_sale;default:0" json:"times_on_sale"`
}

// TableName overrides the table name used by PriceSummary to `price_summary`
func (PriceSummary) TableName() string {
	return "price_summary"
}
