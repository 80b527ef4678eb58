package enums

import (
	stdErrors "errors"

	"github.com/jkovarik/dispecink-backend/pkg/db"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"gorm.io/gorm"
)

// ImplicitInput names the free-text values a record write wants resolved
// into registry ids, creating missing ones along the way.
type ImplicitInput struct {
	VehiclePlate string
	TrailerPlate *string
	Stops        []string
}

// ImplicitIDs carries the resolved registry ids.
type ImplicitIDs struct {
	VehiclePlate int64
	TrailerPlate *int64
	Stops        map[string]int64
}

// PrepareImplicit resolves plates and stop names to enum ids inside the
// caller's transaction. Unknown names are created enabled under the
// acting user; a name that exists but is disabled aborts the write with
// a conflict naming the offending field.
func PrepareImplicit(tx *gorm.DB, userID string, in ImplicitInput) (*ImplicitIDs, error) {
	out := &ImplicitIDs{Stops: make(map[string]int64, len(in.Stops))}

	id, err := ensureValue(tx, userID, KeyVehiclePlate, in.VehiclePlate, "vehiclePlate")
	if err != nil {
		return nil, err
	}
	out.VehiclePlate = id

	if in.TrailerPlate != nil && *in.TrailerPlate != "" {
		id, err := ensureValue(tx, userID, KeyTrailerPlate, *in.TrailerPlate, "trailerPlate")
		if err != nil {
			return nil, err
		}
		out.TrailerPlate = &id
	}

	for _, name := range in.Stops {
		if _, ok := out.Stops[name]; ok {
			continue
		}
		id, err := ensureValue(tx, userID, KeyStop, name, "stop:"+name)
		if err != nil {
			return nil, err
		}
		out.Stops[name] = id
	}

	return out, nil
}

func ensureValue(tx *gorm.DB, userID, key, name, field string) (int64, error) {
	if name == "" {
		return 0, errors.New(errors.CodeValidation, "enum value name is required").WithDetails(field)
	}

	var row models.EnumValue
	err := tx.Where("key = ? AND name = ?", key, name).Take(&row).Error
	switch {
	case err == nil:
		if !row.Enabled {
			return 0, errors.New(errors.CodeConflict, "enum value is disabled").WithDetails(field)
		}
		return row.ID, nil
	case stdErrors.Is(err, gorm.ErrRecordNotFound):
		created := models.EnumValue{Key: key, Name: name, Enabled: true, CreatedBy: &userID}
		if insErr := tx.Create(&created).Error; insErr != nil {
			if db.IsUniqueViolation(insErr, "enum_value_key_name_uq") {
				// lost a race to a concurrent insert, reread
				return ensureValue(tx, userID, key, name, field)
			}
			return 0, insErr
		}
		return created.ID, nil
	default:
		return 0, err
	}
}
