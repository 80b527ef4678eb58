package records

import (
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpdateOwned runs an UPDATE constrained by both id and ownership in one
// statement, so the check and the mutation cannot race. Zero affected rows
// reads as Forbidden whether the record is missing or merely out of scope.
func UpdateOwned(tx *gorm.DB, model any, id int64, scope Scope, locColumn string, updates map[string]any) error {
	q := tx.Model(model).Where("id = ?", id)
	q = scope.Where(q, locColumn)

	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeForbidden, "record not accessible")
	}
	return nil
}

// DeleteOwned removes the header row under the ownership predicate.
func DeleteOwned(tx *gorm.DB, model any, id int64, scope Scope, locColumn string) error {
	q := tx.Where("id = ?", id)
	q = scope.Where(q, locColumn)

	res := q.Delete(model)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errors.New(errors.CodeForbidden, "record not accessible")
	}
	return nil
}

// LockOwned asserts ownership of the header row before any dependent write,
// taking a row lock where the dialect supports one. An absent or
// out-of-scope row is Forbidden.
func LockOwned(tx *gorm.DB, model any, id int64, scope Scope, locColumn string) error {
	q := tx.Model(model).Select("id").Where("id = ?", id)
	q = scope.Where(q, locColumn)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var found int64
	if err := q.Take(&found).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.CodeForbidden, "record not accessible")
		}
		return err
	}
	return nil
}

// DeleteChildren clears all child rows of one parent.
func DeleteChildren(tx *gorm.DB, model any, fkColumn string, parentID int64) error {
	return tx.Where(fkColumn+" = ?", parentID).Delete(model).Error
}

// InsertAll batch-inserts rows, skipping the statement entirely for empty
// slices.
func InsertAll[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}
