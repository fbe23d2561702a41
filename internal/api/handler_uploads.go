package api

import (
	"context"
	"io"
	"net/http"
	"time"

	"licence-desk/internal/domain"
	"licence-desk/internal/middleware"
	"licence-desk/internal/service"
)

// maxUploadMemory bounds the in-memory part of multipart parsing; larger
// files spill to temp files.
const maxUploadMemory = 32 << 20

// uploadService defines the document upload operations used by the API
// handler.
type uploadService interface {
	Upload(ctx context.Context, req domain.CreateUploadRequest, file io.Reader) (*domain.Upload, error)
	UploadBatch(ctx context.Context, items []service.BatchItem) []service.BatchResult
	Get(ctx context.Context, id int64) (*domain.Upload, error)
	Latest(ctx context.Context, companyID, documentTypeID int64) (*domain.Upload, error)
	Versions(ctx context.Context, companyID, documentTypeID int64) ([]domain.Upload, error)
	ListByCompany(ctx context.Context, companyID int64) ([]domain.Upload, error)
	DownloadURL(ctx context.Context, id int64) (string, error)
	Delete(ctx context.Context, id int64) error
	Reextract(ctx context.Context, id int64) (*domain.Upload, error)
	UpdateExtractedDetails(ctx context.Context, id int64, details map[string]any) (*domain.Upload, error)
}

type uploadResponse struct {
	ID               int64          `json:"id"`
	CompanyID        int64          `json:"company_id"`
	CompanyName      string         `json:"company_name,omitempty"`
	DocumentTypeID   int64          `json:"document_type_id"`
	FileName         string         `json:"file_name"`
	ContentType      string         `json:"content_type,omitempty"`
	SizeBytes        int64          `json:"size_bytes"`
	ExtractedDetails map[string]any `json:"extracted_details,omitempty"`
	IssueDate        *time.Time     `json:"issue_date,omitempty"`
	ExpiryDate       *time.Time     `json:"expiry_date,omitempty"`
	UploadedBy       string         `json:"uploaded_by,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
}

func uploadToAPI(u *domain.Upload) uploadResponse {
	return uploadResponse{
		ID:               u.ID,
		CompanyID:        u.CompanyID,
		CompanyName:      u.CompanyName,
		DocumentTypeID:   u.DocumentTypeID,
		FileName:         u.FileName,
		ContentType:      u.ContentType,
		SizeBytes:        u.SizeBytes,
		ExtractedDetails: u.ExtractedDetails,
		IssueDate:        u.IssueDate,
		ExpiryDate:       u.ExpiryDate,
		UploadedBy:       u.UploadedBy,
		CreatedAt:        u.CreatedAt,
	}
}

// uploadRequestFromForm reads the shared multipart form fields of an
// upload. Dates accept date-only or RFC 3339 values.
func uploadRequestFromForm(r *http.Request) (domain.CreateUploadRequest, error) {
	req := domain.CreateUploadRequest{}

	companyID, err := formInt64(r, "company_id")
	if err != nil {
		return req, err
	}
	docTypeID, err := formInt64(r, "document_type_id")
	if err != nil {
		return req, err
	}
	req.CompanyID = companyID
	req.DocumentTypeID = docTypeID

	if req.IssueDate, err = formDate(r, "issue_date"); err != nil {
		return req, err
	}
	if req.ExpiryDate, err = formDate(r, "expiry_date"); err != nil {
		return req, err
	}

	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
		req.UploadedBy = principal
	}
	return req, nil
}

func (h *Handler) createUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, domain.ErrValidation("invalid multipart form: %v", err))
		return
	}
	req, err := uploadRequestFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrValidation("file part is required"))
		return
	}
	defer file.Close()
	req.FileName = header.Filename
	req.ContentType = header.Header.Get("Content-Type")
	req.SizeBytes = header.Size

	upload, err := h.uploads.Upload(r.Context(), req, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadToAPI(upload))
}

type batchResultResponse struct {
	FileName string          `json:"file_name"`
	Upload   *uploadResponse `json:"upload,omitempty"`
	Error    *string         `json:"error,omitempty"`
}

// createUploadBatch stores several files for one (company, document type)
// pair in a single request. Every "files" part becomes its own version;
// per-file failures are reported in the response, not as a request error.
func (h *Handler) createUploadBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, domain.ErrValidation("invalid multipart form: %v", err))
		return
	}
	base, err := uploadRequestFromForm(r)
	if err != nil {
		writeError(w, err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, domain.ErrValidation("at least one files part is required"))
		return
	}

	items := make([]service.BatchItem, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			writeError(w, domain.ErrValidation("open %s: %v", header.Filename, err))
			return
		}
		defer file.Close()

		req := base
		req.FileName = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
		req.SizeBytes = header.Size
		items = append(items, service.BatchItem{Request: req, File: file})
	}

	results := h.uploads.UploadBatch(r.Context(), items)
	data := make([]batchResultResponse, len(results))
	for i, res := range results {
		data[i] = batchResultResponse{FileName: res.FileName}
		if res.Upload != nil {
			resp := uploadToAPI(res.Upload)
			data[i].Upload = &resp
		}
		if res.Err != nil {
			data[i].Error = optStr(res.Err.Error())
		}
	}
	writeJSON(w, http.StatusOK, listPage[batchResultResponse]{Data: data})
}

func (h *Handler) getUpload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "uploadID")
	if err != nil {
		writeError(w, err)
		return
	}
	upload, err := h.uploads.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadToAPI(upload))
}

func (h *Handler) deleteUpload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "uploadID")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.uploads.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) uploadDownloadURL(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "uploadID")
	if err != nil {
		writeError(w, err)
		return
	}
	url, err := h.uploads.DownloadURL(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) reextractUpload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "uploadID")
	if err != nil {
		writeError(w, err)
		return
	}
	upload, err := h.uploads.Reextract(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadToAPI(upload))
}

type extractedDetailsBody struct {
	ExtractedDetails map[string]any `json:"extracted_details"`
}

func (h *Handler) updateExtractedDetails(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "uploadID")
	if err != nil {
		writeError(w, err)
		return
	}
	var body extractedDetailsBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}
	upload, err := h.uploads.UpdateExtractedDetails(r.Context(), id, body.ExtractedDetails)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadToAPI(upload))
}

func (h *Handler) listCompanyUploads(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	uploads, err := h.uploads.ListByCompany(r.Context(), companyID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadListPage(uploads))
}

func (h *Handler) listUploadVersions(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	docTypeID, err := idParam(r, "documentTypeID")
	if err != nil {
		writeError(w, err)
		return
	}
	uploads, err := h.uploads.Versions(r.Context(), companyID, docTypeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadListPage(uploads))
}

func (h *Handler) latestUpload(w http.ResponseWriter, r *http.Request) {
	companyID, err := idParam(r, "companyID")
	if err != nil {
		writeError(w, err)
		return
	}
	docTypeID, err := idParam(r, "documentTypeID")
	if err != nil {
		writeError(w, err)
		return
	}
	upload, err := h.uploads.Latest(r.Context(), companyID, docTypeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadToAPI(upload))
}

func uploadListPage(uploads []domain.Upload) listPage[uploadResponse] {
	data := make([]uploadResponse, len(uploads))
	for i := range uploads {
		data[i] = uploadToAPI(&uploads[i])
	}
	return listPage[uploadResponse]{Data: data}
}
