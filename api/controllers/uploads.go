package controllers

import (
	"net/http"
	"strings"

	"github.com/jkovarik/dispecink-backend/api/validators"
	pkgerrors "github.com/jkovarik/dispecink-backend/pkg/errors"
	"github.com/jkovarik/dispecink-backend/pkg/files"
)

const multipartMemory = 32 << 20

const payloadField = "data"

// decodeMultipart parses a multipart form carrying a JSON payload part
// plus file parts, stages every upload and decodes the payload into
// dest. A nil dest skips the payload part. On error every staged file
// is discarded before returning.
func decodeMultipart(r *http.Request, store *files.Store, dest any, fileFields ...string) (map[string][]*files.Upload, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form")
	}

	uploads := make(map[string][]*files.Upload, len(fileFields))
	discard := func() {
		for _, staged := range uploads {
			store.DiscardStaged(staged)
		}
	}

	for _, field := range fileFields {
		for _, header := range r.MultipartForm.File[field] {
			upload, err := store.Stage(header)
			if err != nil {
				discard()
				return nil, err
			}
			uploads[field] = append(uploads[field], upload)
		}
	}

	if dest != nil {
		payload := r.FormValue(payloadField)
		if payload == "" {
			discard()
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "missing payload part").WithDetails(payloadField)
		}
		if err := validators.DecodeJSONValue(strings.NewReader(payload), dest); err != nil {
			discard()
			return nil, err
		}
	}

	return uploads, nil
}

func uploadCount(uploads map[string][]*files.Upload) int {
	total := 0
	for _, staged := range uploads {
		total += len(staged)
	}
	return total
}

func discardUploads(store *files.Store, uploads map[string][]*files.Upload) {
	for _, staged := range uploads {
		store.DiscardStaged(staged)
	}
}

func exportRange(r *http.Request) (string, string) {
	q := r.URL.Query()
	return q.Get("from"), q.Get("to")
}
