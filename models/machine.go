package models

import "time"

// Machine is a monitored piece of equipment. Lookup key for ingestion is
// (organization, name, serial_number) on active records.
type Machine struct {
	ID             int          `gorm:"primary_key" json:"id"`
	OrganizationId int          `gorm:"index;not null" json:"organization_id"`
	Organization   Organization `json:"-"`
	Name           string       `gorm:"size:255;not null" json:"name" binding:"required"`
	SerialNumber   string       `gorm:"size:100" json:"serial_number"`
	Model          string       `gorm:"size:100" json:"model"`
	IsActive       *bool        `gorm:"not null;default:true" json:"is_active"`
	CreatedBy      string       `gorm:"size:100" json:"created_by"`
	ModifiedBy     string       `gorm:"size:100" json:"modified_by"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// MachineType is the catalog of component kinds (engine, hydraulic system,
// transmission, ...). Component names in the lab export match these.
type MachineType struct {
	ID          int       `gorm:"primary_key" json:"id"`
	Name        string    `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Component is the sampled part of a machine (one machine can carry several
// components of different types).
type Component struct {
	ID             int         `gorm:"primary_key" json:"id"`
	MachineId      int         `gorm:"index;not null" json:"machine_id"`
	Machine        Machine     `json:"-"`
	TypeId         int         `gorm:"index;not null" json:"type_id"`
	Type           MachineType `json:"-"`
	SerialNumber   string      `gorm:"size:100" json:"serial_number"`
	InstallationAt *time.Time  `json:"installation_at"`
	IsActive       *bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedBy      string      `gorm:"size:100" json:"created_by"`
	ModifiedBy     string      `gorm:"size:100" json:"modified_by"`
	CreatedAt      time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
