package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/sushic/internal/fingerprint"
)

// Store is the incremental cache's query surface over a connected gorm
// database (spec §4.9, §5).
type Store struct {
	db *gorm.DB
}

// NewStore wraps an already-connected database, as returned by Connect.
func NewStore(db *gorm.DB) *Store { return &Store{db: db} }

// Unchanged reports whether unit's last persisted fingerprint matches
// hash — the question a host asks before deciding to skip re-running
// the pipeline on that unit.
func (s *Store) Unchanged(unit string, hash [32]byte) (bool, error) {
	var rec FingerprintRecord
	err := s.db.Where("unit = ?", unit).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Hash == hex.EncodeToString(hash[:]), nil
}

// SaveUnit upserts unit's fingerprint.
func (s *Store) SaveUnit(fp fingerprint.UnitFingerprint) error {
	encoded := hex.EncodeToString(fp.Hash[:])

	var rec FingerprintRecord
	err := s.db.Where("unit = ?", fp.Unit).First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = FingerprintRecord{ID: uuid.NewString(), Unit: fp.Unit, Hash: encoded}
		return s.db.Create(&rec).Error
	case err != nil:
		return err
	default:
		rec.Hash = encoded
		return s.db.Save(&rec).Error
	}
}

// SaveUnits upserts every fingerprint in one pass, one unit at a time —
// there is no bulk-upsert path that preserves each row's own existing id.
func (s *Store) SaveUnits(fps []fingerprint.UnitFingerprint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		txStore := &Store{db: tx}
		for _, fp := range fps {
			if err := txStore.SaveUnit(fp); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveSymbols replaces every linkage row for the units referenced in
// entries with entries itself, dependencies serialized to JSON when
// provided. A unit's linkage set is only ever meaningful as a whole —
// partial updates would leave stale rows for symbols C1 no longer sees.
func (s *Store) SaveSymbols(entries []fingerprint.SymbolLinkage, dependencies map[string][]string) error {
	if len(entries) == 0 {
		return nil
	}
	units := map[string]bool{}
	for _, e := range entries {
		units[e.Unit] = true
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for unit := range units {
			if err := tx.Where("unit = ?", unit).Delete(&LinkageRecord{}).Error; err != nil {
				return err
			}
		}

		recs := make([]*LinkageRecord, 0, len(entries))
		for _, e := range entries {
			var blob datatypes.JSON
			if deps, ok := dependencies[e.Name]; ok {
				encoded, err := json.Marshal(deps)
				if err != nil {
					return err
				}
				blob = datatypes.JSON(encoded)
			}
			recs = append(recs, &LinkageRecord{
				ID:           uuid.NewString(),
				Unit:         e.Unit,
				Name:         e.Name,
				Class:        string(e.Class),
				Dependencies: blob,
			})
		}
		return tx.Create(&recs).Error
	})
}

// LinkageFor returns every persisted linkage row for unit, for a host
// inspecting why a cached build classified a symbol the way it did.
func (s *Store) LinkageFor(unit string) ([]LinkageRecord, error) {
	var out []LinkageRecord
	err := s.db.Where("unit = ?", unit).Order("name").Find(&out).Error
	return out, err
}
