package domain

import (
	"time"

	"gorm.io/gorm"
)

type EquipmentStatus string

const (
	EquipmentAvailable   EquipmentStatus = "available"
	EquipmentInUse       EquipmentStatus = "in-use"
	EquipmentMaintenance EquipmentStatus = "maintenance"
)

type Equipment struct {
	ID                  int64           `json:"id" gorm:"primaryKey"`
	StudioID            int64           `json:"studio_id" gorm:"not null;index"`
	Name                string          `json:"name" gorm:"not null"`
	Description         string          `json:"description,omitempty" gorm:"type:text"`
	Category            string          `json:"category,omitempty"`
	Brand               string          `json:"brand,omitempty"`
	Model               string          `json:"model,omitempty"`
	SerialNumber        string          `json:"serial_number,omitempty"`
	Quantity            int             `json:"quantity" gorm:"not null;default:1"`
	Status              EquipmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	LastMaintenanceDate *time.Time      `json:"last_maintenance_date,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	DeletedAt           gorm.DeletedAt  `json:"-" gorm:"index"`
}
