package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/repository"
	"github.com/andresuchdata/shipment-priority/internal/service"
	"github.com/andresuchdata/shipment-priority/internal/source"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxImportBytes = 16 << 20

type ReferenceHandler struct {
	service *service.ReferenceService
}

func NewReferenceHandler(service *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: service}
}

func (h *ReferenceHandler) List(c *gin.Context) {
	refs, err := h.service.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list references", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": refs,
		"total": len(refs),
	})
}

func (h *ReferenceHandler) Get(c *gin.Context) {
	ref, err := h.service.Get(c.Request.Context(), c.Param("partno"))
	if err != nil {
		referenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ref)
}

func (h *ReferenceHandler) Create(c *gin.Context) {
	var ref domain.PartReference
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), ref)
	if err != nil {
		referenceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ReferenceHandler) Update(c *gin.Context) {
	var ref domain.PartReference
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), c.Param("partno"), ref)
	if err != nil {
		referenceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ReferenceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("partno")); err != nil {
		referenceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Import accepts either a multipart "file" (.csv or .xlsx) or a JSON array of
// records. mode=replace|merge, default merge.
func (h *ReferenceHandler) Import(c *gin.Context) {
	mode, err := repository.ParseImportMode(c.Query("mode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var result *service.ImportResult
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		table, ok := readUploadedTable(c)
		if !ok {
			return
		}
		result, err = h.service.ImportTable(c.Request.Context(), table, mode)
	} else {
		var refs []domain.PartReference
		if err := c.ShouldBindJSON(&refs); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
		result, err = h.service.Import(c.Request.Context(), refs, mode)
	}
	if err != nil {
		referenceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func readUploadedTable(c *gin.Context) (domain.RawTable, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return domain.RawTable{}, false
	}
	if file.Size > maxImportBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return domain.RawTable{}, false
	}

	f, err := file.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("failed to open uploaded file")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return domain.RawTable{}, false
	}
	defer f.Close()

	var table domain.RawTable
	if strings.EqualFold(filepath.Ext(file.Filename), ".xlsx") {
		table, err = source.DecodeXLSX(f)
	} else {
		table, err = source.DecodeCSV(f)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse file", "details": err.Error()})
		return domain.RawTable{}, false
	}
	return table, true
}

func referenceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrReferenceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrReferenceExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("reference: request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reference store failure", "details": err.Error()})
	}
}
