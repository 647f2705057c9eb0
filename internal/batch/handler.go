package batch

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"certhub/certificate-portal/certificate-portal-backend/internal/catalog"
	"certhub/certificate-portal/certificate-portal-backend/internal/history"
	"certhub/certificate-portal/certificate-portal-backend/internal/mailer"
	"certhub/certificate-portal/certificate-portal-backend/internal/render"
	"certhub/certificate-portal/certificate-portal-backend/internal/spreadsheet"
	"certhub/certificate-portal/certificate-portal-backend/internal/storage"
	"certhub/certificate-portal/certificate-portal-backend/internal/template"
)

type Handler struct {
	service Service
	store   *storage.Manager
	catalog catalog.Catalog
	mail    mailer.Sender
	repo    history.Repository
}

func NewHandler(service Service, store *storage.Manager, cat catalog.Catalog, mail mailer.Sender, repo history.Repository) *Handler {
	return &Handler{service: service, store: store, catalog: cat, mail: mail, repo: repo}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	certs := rg.Group("/certificates")
	{
		certs.POST("/templates/upload", h.UploadTemplate)
		certs.POST("/spreadsheets/upload", h.UploadSpreadsheet)
		certs.POST("/generate", h.Generate)
		certs.GET("/batches", h.ListBatches)
		certs.GET("/batches/:id", h.GetBatch)
		certs.GET("/batches/:id/archive", h.DownloadArchive)
		certs.GET("/batches/:id/files/:filename", h.DownloadFile)
		certs.POST("/email", h.EmailResults)
	}
	rg.GET("/email/verify", h.VerifyEmail)

	cat := rg.Group("/catalog")
	{
		cat.GET("/templates", h.ListCatalog)
		cat.POST("/templates/:id/download", h.DownloadCatalogTemplate)
	}
}

func (h *Handler) UploadTemplate(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	kind, err := template.DetectKind(file.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "template must be .pptx or .pdf"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	path, err := h.store.SaveUpload(h.store.TemplatesDir(), file.Filename, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": path, "kind": kind})
}

func (h *Handler) UploadSpreadsheet(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	path, err := h.store.SaveUpload(h.store.UploadsDir(), file.Filename, f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	sheet, err := spreadsheet.Read(path)
	if err != nil {
		c.JSON(spreadsheetErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"path":        path,
		"headers":     sheet.Headers,
		"nameColumn":  sheet.NameColumn,
		"emailColumn": sheet.EmailColumn,
		"recipients":  len(sheet.Recipients),
	})
}

// spreadsheetErrorStatus maps recognized validation failures to 400 and
// unreadable input to 422.
func spreadsheetErrorStatus(err error) int {
	if errors.Is(err, spreadsheet.ErrMissingNameColumn) || errors.Is(err, spreadsheet.ErrNoRecipients) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}

type generateRequest struct {
	TemplatePath    string              `json:"templatePath" binding:"required"`
	SpreadsheetPath string              `json:"spreadsheetPath" binding:"required"`
	Options         render.BatchOptions `json:"options"`
	ConvertToPDF    bool                `json:"convertToPdf"`
	FontSize        float64             `json:"fontSize"`
}

func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sheet, err := spreadsheet.Read(req.SpreadsheetPath)
	if err != nil {
		c.JSON(spreadsheetErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	overlay := render.DefaultOverlayOptions()
	overlay.FontSize = req.FontSize

	result, err := h.service.GenerateBatch(c.Request.Context(), GenerateRequest{
		TemplatePath: req.TemplatePath,
		Recipients:   sheet.Recipients,
		Options:      req.Options,
		ConvertToPDF: req.ConvertToPDF,
		Overlay:      overlay,
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, template.ErrUnsupportedFormat) ||
			errors.Is(err, ErrNoRecipients) ||
			errors.Is(err, ErrTemplateUnreadable) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) ListBatches(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch history is not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.repo.ListBatches(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) GetBatch(c *gin.Context) {
	if h.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "batch history is not configured"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}
	record, err := h.repo.GetBatch(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "batch not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *Handler) DownloadArchive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}
	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "certificates-"+id.String()+".zip"))
	if err := h.store.ArchiveBatch(id.String(), c.Writer); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
}

func (h *Handler) DownloadFile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid batch id"})
		return
	}
	filename := filepath.Base(c.Param("filename"))
	c.File(filepath.Join(h.store.GeneratedDir(), id.String(), filename))
}

func (h *Handler) EmailResults(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no items to deliver"})
		return
	}

	report, err := h.service.EmailResults(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	if h.mail == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "email delivery is not configured"})
		return
	}
	if err := h.mail.Verify(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) ListCatalog(c *gin.Context) {
	templates, err := h.catalog.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *Handler) DownloadCatalogTemplate(c *gin.Context) {
	path, err := h.catalog.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"path": path})
}
