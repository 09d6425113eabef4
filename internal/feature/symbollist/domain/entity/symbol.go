// Package entity defines the domain models for the symbollist feature.
package entity

import "time"

// Symbol represents one constituent of the ticker/sector directory.
// Sector and SubIndustry are GICS labels used to group batch exports.
type Symbol struct {
	ID          uint      `gorm:"primaryKey"`
	Code        string    `gorm:"size:20;not null;uniqueIndex"`
	Name        string    `gorm:"size:255;not null"`
	Sector      string    `gorm:"size:100;not null;default:''"`
	SubIndustry string    `gorm:"size:150;not null;default:''"`
	IsActive    bool      `gorm:"not null;default:true"`
	SortKey     int       `gorm:"not null;default:0"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}
