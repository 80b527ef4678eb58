package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jkovarik/dispecink-backend/api/middleware"
	"github.com/jkovarik/dispecink-backend/api/responses"
	"github.com/jkovarik/dispecink-backend/api/validators"
	"github.com/jkovarik/dispecink-backend/internal/courses"
	"github.com/jkovarik/dispecink-backend/pkg/db/models"
	pkgerrors "github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/files"
	"github.com/jkovarik/dispecink-backend/pkg/logger"
	"github.com/jkovarik/dispecink-backend/pkg/paginate"
)

const (
	departureFilesField = "departureFiles"
	arrivalFilesField   = "arrivalFiles"
)

// courseUploads regroups the staged form fields under the stored file
// group names.
func courseUploads(uploads map[string][]*files.Upload) map[string][]*files.Upload {
	return map[string][]*files.Upload{
		models.CourseGroupDeparture: uploads[departureFilesField],
		models.CourseGroupArrival:   uploads[arrivalFilesField],
	}
}

func CoursesMeta(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := svc.Meta(r.Context())
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, meta)
	}
}

func CoursesExport(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, to := exportRange(r)
		data, filename, err := svc.Export(r.Context(), from, to)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteCSV(w, filename, data)
	}
}

func CoursesList(svc *courses.Service, pageRows int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := svc.FindMany(r.Context(), paginate.FromRequest(r, pageRows))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, page)
	}
}

func CoursesCreate(svc *courses.Service, store *files.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input courses.UpsertInput
		uploads, err := decodeMultipart(r, store, &input, departureFilesField, arrivalFilesField)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.Create(r.Context(), p, input, courseUploads(uploads))
		if err != nil {
			discardUploads(store, uploads)
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusCreated, item)
	}
}

func CoursesGetOne(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		item, err := svc.GetOne(r.Context(), id)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

func CoursesUpdate(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		var input courses.UpsertInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.Update(r.Context(), p, id, input)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

// CoursesAddFiles attaches more files to an existing course; an empty
// form is rejected.
func CoursesAddFiles(svc *courses.Service, store *files.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		uploads, err := decodeMultipart(r, store, nil, departureFilesField, arrivalFilesField)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		if uploadCount(uploads) == 0 {
			responses.WriteError(r, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no files attached"))
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		item, err := svc.AddFiles(r.Context(), p, id, courseUploads(uploads))
		if err != nil {
			discardUploads(store, uploads)
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}

func CoursesDelete(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		if err := svc.Delete(r.Context(), p, id); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func CoursesReadFile(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		data, contentType, err := svc.ReadFile(r.Context(), id, chi.URLParam(r, "filename"))
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", chi.URLParam(r, "filename")))
		_, _ = w.Write(data)
	}
}

func CoursesRemoveFile(svc *courses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := recordID(r)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		p := middleware.PrincipalFromContext(r.Context())
		if err := svc.RemoveFiles(r.Context(), p, id, []string{chi.URLParam(r, "filename")}); err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}

		item, err := svc.GetOne(r.Context(), id)
		if err != nil {
			responses.WriteError(r, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, item)
	}
}
