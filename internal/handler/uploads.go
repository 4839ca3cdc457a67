package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/api"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/internal/audit"
	apperrors "github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/errors"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/httputil"
	"github.com/BICTREE/bindu-Jewellery-AdminSide/pkg/validator"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

// ImportRequest is the body of POST /admin/uploads/from-url.
type ImportRequest struct {
	URL string `json:"url" validate:"required,url,max=2048"`
}

// UploadSingle handles POST /admin/uploads/single (form field "file").
func (h *Handler) UploadSingle(w http.ResponseWriter, r *http.Request) {
	files, err := readFiles(w, r, "file", 1)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if len(files) != 1 {
		h.writeError(w, r, apperrors.InvalidInput(`expected exactly one file in field "file"`))
		return
	}

	img, err := h.client(r).UploadSingle(r.Context(), files[0])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordUpload(r, img)
	httputil.WriteData(w, http.StatusCreated, img)
}

// UploadMultiple handles POST /admin/uploads/multiple (form field "files").
func (h *Handler) UploadMultiple(w http.ResponseWriter, r *http.Request) {
	files, err := readFiles(w, r, "files", api.MaxUploadFiles)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	imgs, err := h.client(r).UploadMultiple(r.Context(), files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	for _, img := range imgs {
		h.recordUpload(r, img)
	}
	httputil.WriteData(w, http.StatusCreated, imgs)
}

// UploadFromURL handles POST /admin/uploads/from-url.
func (h *Handler) UploadFromURL(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.importer == nil {
		h.writeError(w, r, &apperrors.AppError{
			Code:    "SERVICE_UNAVAILABLE",
			Message: "url import is disabled",
			Status:  http.StatusServiceUnavailable,
			Err:     apperrors.ErrServiceUnavail,
		})
		return
	}

	img, err := h.client(r).UploadFromURL(r.Context(), h.importer, req.URL)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.recordUpload(r, img)
	httputil.WriteData(w, http.StatusCreated, img)
}

// ExportOrders handles GET /admin/orders/export.csv. The list filters of
// GET /admin/orders apply; paging is driven by the export itself.
func (h *Handler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	params, err := api.ParseListParams(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// Buffered so a failure on a later page still produces a JSON error.
	var buf bytes.Buffer
	rows, err := h.client(r).ExportOrdersCSV(r.Context(), &buf, params)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	name := fmt.Sprintf("orders-%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("X-Export-Rows", strconv.Itoa(rows))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) recordUpload(r *http.Request, img api.Image) {
	h.audit.Record(r.Context(), audit.Entry{
		Resource:  "uploads",
		SubjectID: img.Key,
		Action:    audit.ActionUploaded,
		Data:      img,
	})
}

// readFiles parses a multipart body and returns up to limit files from
// field. Size and type checks are left to the api package.
func readFiles(w http.ResponseWriter, r *http.Request, field string, limit int) ([]api.UploadFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, int64(limit)*api.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, apperrors.InvalidInput("could not parse multipart form: " + err.Error())
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, apperrors.InvalidInput(fmt.Sprintf("no file in field %q", field))
	}
	if len(headers) > limit {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d files per upload", limit))
	}

	files := make([]api.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("could not open %q", fh.Filename))
		}
		data, err := io.ReadAll(io.LimitReader(f, api.MaxUploadBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("could not read %q", fh.Filename))
		}
		files = append(files, api.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
