package models

import "time"

// Organization is the client company a machine belongs to. Reference data
// for the ingestion pipeline: resolved by name, never created by it.
type Organization struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Name       string    `gorm:"size:255;not null;unique" json:"name" binding:"required"`
	TaxId      string    `gorm:"size:20" json:"tax_id"`
	Email      string    `gorm:"size:100" json:"email"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Address    string    `gorm:"size:255" json:"address"`
	City       string    `gorm:"size:100" json:"city"`
	Country    string    `gorm:"size:100" json:"country"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedBy  string    `gorm:"size:100" json:"created_by"`
	ModifiedBy string    `gorm:"size:100" json:"modified_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
