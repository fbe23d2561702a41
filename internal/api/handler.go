// Package api provides the HTTP handlers for the licence desk REST API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler serves the /v1 API. Each resource keeps its service dependency
// behind a narrow interface declared next to its handlers.
type Handler struct {
	companies  companyService
	mappings   mappingService
	docTypes   documentTypeService
	datasets   datasetService
	uploads    uploadService
	compliance complianceService
	reminders  reminderService
	sheets     sheetService
	apiKeys    apiKeyService
	audit      auditService
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(
	companies companyService,
	mappings mappingService,
	docTypes documentTypeService,
	datasets datasetService,
	uploads uploadService,
	compliance complianceService,
	reminders reminderService,
	sheets sheetService,
	apiKeys apiKeyService,
	audit auditService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		companies:  companies,
		mappings:   mappings,
		docTypes:   docTypes,
		datasets:   datasets,
		uploads:    uploads,
		compliance: compliance,
		reminders:  reminders,
		sheets:     sheets,
		apiKeys:    apiKeys,
		audit:      audit,
		logger:     logger,
	}
}

// Routes returns the /v1 route tree. Auth middleware is applied by the
// caller, on the router this is mounted on.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/companies", func(r chi.Router) {
		r.Post("/", h.createCompany)
		r.Get("/", h.listCompanies)
		r.Route("/{companyID}", func(r chi.Router) {
			r.Get("/", h.getCompany)
			r.Patch("/", h.updateCompany)
			r.Delete("/", h.deleteCompany)
			r.Get("/compliance", h.companyCompliance)
			r.Get("/missing-documents", h.companyMissingDocuments)
			r.Get("/uploads", h.listCompanyUploads)
			r.Route("/document-types/{documentTypeID}/uploads", func(r chi.Router) {
				r.Get("/", h.listUploadVersions)
				r.Get("/latest", h.latestUpload)
			})
		})
	})

	r.Route("/records", func(r chi.Router) {
		r.Post("/", h.createRecord)
		r.Route("/{recordID}", func(r chi.Router) {
			r.Get("/", h.getRecord)
			r.Patch("/", h.updateRecord)
			r.Delete("/", h.deleteRecord)
		})
	})
	r.Get("/tables/{tableName}/records", h.listRecords)

	r.Route("/mappings", func(r chi.Router) {
		r.Post("/", h.createMapping)
		r.Get("/", h.listMappings)
		r.Route("/{mappingID}", func(r chi.Router) {
			r.Get("/", h.getMapping)
			r.Patch("/", h.updateMapping)
			r.Delete("/", h.deleteMapping)
		})
	})

	r.Route("/tabs/{mainTab}", func(r chi.Router) {
		r.Get("/", h.listTabs)
		r.Route("/{tab}", func(r chi.Router) {
			r.Get("/structure", h.getStructure)
			r.Get("/dataset", h.getDataset)
			r.Get("/display-settings", h.getDisplaySettings)
			r.Put("/display-settings", h.saveDisplaySettings)
			r.Get("/export", h.exportSheet)
			r.Post("/import", h.importSheet)
		})
	})

	r.Route("/document-types", func(r chi.Router) {
		r.Post("/", h.createDocumentType)
		r.Get("/", h.listDocumentTypes)
		r.Route("/{documentTypeID}", func(r chi.Router) {
			r.Get("/", h.getDocumentType)
			r.Patch("/", h.updateDocumentType)
			r.Delete("/", h.deleteDocumentType)
		})
	})

	r.Route("/uploads", func(r chi.Router) {
		r.Post("/", h.createUpload)
		r.Post("/batch", h.createUploadBatch)
		r.Route("/{uploadID}", func(r chi.Router) {
			r.Get("/", h.getUpload)
			r.Delete("/", h.deleteUpload)
			r.Get("/download-url", h.uploadDownloadURL)
			r.Post("/reextract", h.reextractUpload)
			r.Patch("/extracted-details", h.updateExtractedDetails)
		})
	})

	r.Route("/reminders", func(r chi.Router) {
		r.Get("/", h.listReminders)
		r.Post("/scan", h.scanReminders)
	})

	r.Route("/api-keys", func(r chi.Router) {
		r.Post("/", h.createAPIKey)
		r.Get("/", h.listAPIKeys)
		r.Delete("/{apiKeyID}", h.deleteAPIKey)
	})

	r.Get("/audit", h.listAudit)

	return r
}

// Healthz is the public liveness probe, mounted outside the auth stack.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
