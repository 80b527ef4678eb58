package courses

import (
	"context"
	"strconv"

	"github.com/jkovarik/dispecink-backend/internal/identity"
	"github.com/jkovarik/dispecink-backend/internal/records"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	"github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"gorm.io/gorm"
)

func (s *Service) attachFiles(tx *gorm.DB, courseID int64, uploads map[string][]*files.Upload) error {
	var rows []models.CourseFile
	var all []*files.Upload
	for group, batch := range uploads {
		for _, u := range batch {
			rows = append(rows, models.CourseFile{
				CourseID:    courseID,
				Group:       group,
				Filename:    u.Filename,
				Type:        u.Type,
				DisplayName: u.DisplayName,
			})
			all = append(all, u)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return err
	}
	return s.store.Persist(fileGroup, strconv.FormatInt(courseID, 10), all)
}

// AddFiles attaches new uploads to an existing owned course.
func (s *Service) AddFiles(ctx context.Context, p *identity.Principal, id int64, uploads map[string][]*files.Upload) (*Detail, error) {
	scope := records.ScopeFor(p, identity.RoleDispecink)

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.Course{}, id, scope, "location_id"); err != nil {
			return err
		}
		return s.attachFiles(tx, id, uploads)
	})
	if err != nil {
		return nil, err
	}

	return s.GetOne(ctx, id)
}

// RemoveFiles deletes the named attachments from an owned course, both
// the rows and the on-disk copies.
func (s *Service) RemoveFiles(ctx context.Context, p *identity.Principal, id int64, filenames []string) error {
	scope := records.ScopeFor(p, identity.RoleDispecink)

	var removed map[string]string
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := records.LockOwned(tx, &models.Course{}, id, scope, "location_id"); err != nil {
			return err
		}

		var rows []models.CourseFile
		err := tx.Where("course_id = ? AND filename IN ?", id, filenames).Find(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return errors.New(errors.CodeForbidden, "file not reachable")
		}

		res := tx.Where("course_id = ? AND filename IN ?", id, filenames).Delete(&models.CourseFile{})
		if res.Error != nil {
			return res.Error
		}

		removed = make(map[string]string, len(rows))
		for _, r := range rows {
			removed[r.Filename] = r.DisplayName
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.store.Remove(fileGroup, strconv.FormatInt(id, 10), removed)
}

// ReadFile returns one attachment's bytes with its stored content type.
// Ownership is not checked here; the opaque filename is the capability.
func (s *Service) ReadFile(ctx context.Context, id int64, filename string) ([]byte, string, error) {
	var row models.CourseFile
	err := s.db.DB().WithContext(ctx).
		Where("course_id = ? AND filename = ?", id, filename).
		Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", errors.New(errors.CodeForbidden, "file not reachable")
		}
		return nil, "", err
	}

	data, err := s.store.Read(fileGroup, strconv.FormatInt(id, 10), row.Filename, row.DisplayName)
	if err != nil {
		return nil, "", err
	}
	return data, row.Type, nil
}
