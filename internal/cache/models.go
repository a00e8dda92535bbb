package cache

import (
	"time"

	"gorm.io/datatypes"
)

// FingerprintRecord is the persisted form of one fingerprint.UnitFingerprint
// (spec §4.9), keyed by unit path rather than by its own id so a lookup
// needs no join.
type FingerprintRecord struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Unit      string `gorm:"type:varchar(255);uniqueIndex"`
	Hash      string `gorm:"type:varchar(64);not null"` // hex-encoded sha256
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// LinkageRecord is the persisted form of one fingerprint.SymbolLinkage.
// Dependencies carries the serialized public-signature blob the symbol
// contributed to its owning unit's fingerprint, for diagnosing a cache
// miss without recomputing the fingerprint from source.
type LinkageRecord struct {
	ID           string         `gorm:"primaryKey;type:varchar(36)"`
	Unit         string         `gorm:"type:varchar(255);index"`
	Name         string         `gorm:"type:varchar(255);index"`
	Class        string         `gorm:"type:varchar(20);not null"`
	Dependencies datatypes.JSON `gorm:"type:jsonb"`
}

func (FingerprintRecord) TableName() string { return "unit_fingerprints" }
func (LinkageRecord) TableName() string     { return "symbol_linkages" }
