package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"raggate/internal/batch"
	"raggate/internal/cache"
	"raggate/internal/engine"
	"raggate/internal/models"
	"raggate/internal/scratch"
	"raggate/internal/storage"
)

const maxUploadBytes = 100 << 20 // 100 MB per request

// Handler wires HTTP routes to the engine adapter and the batch
// orchestrator. The engine handle is constructed once at startup and shared
// by every request.
type Handler struct {
	engine      *engine.Adapter
	scratch     *scratch.Store
	batches     *batch.Processor
	answers     *cache.AnswerCache
	ledger      *storage.Ledger
	parseMethod string
	stats       bool
	workerLimit int
}

// NewHandler constructs a Handler instance.
func NewHandler(adapter *engine.Adapter, store *scratch.Store, answers *cache.AnswerCache, ledger *storage.Ledger, parseMethod string, displayStats bool, workerLimit int) *Handler {
	return &Handler{
		engine:      adapter,
		scratch:     store,
		batches:     batch.NewProcessor(store, adapter),
		answers:     answers,
		ledger:      ledger,
		parseMethod: parseMethod,
		stats:       displayStats,
		workerLimit: workerLimit,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.health)
	router.POST("/upload", h.uploadDocument)
	router.POST("/query", h.queryDocuments)
	router.POST("/content", h.insertContent)
	router.POST("/multimodal-query", h.multimodalQuery)
	router.POST("/batch", h.batchProcess)
	router.GET("/documents", h.listDocuments)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Message:   "raggate API is running",
	})
}

func (h *Handler) uploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "file too large"})
		return
	}
	name := filepath.Base(fileHeader.Filename)
	start := time.Now()

	src, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "open uploaded file failed"})
		return
	}
	path, err := h.scratch.Save(name, src)
	src.Close()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	defer h.scratch.Cleanup(path)

	procErr := h.engine.ProcessDocument(c.Request.Context(), path, engine.ProcessOptions{
		ParseMethod:  h.parseMethod,
		DisplayStats: h.stats,
	})
	elapsed := time.Since(start).Seconds()
	h.recordDocument(c, name, name, "upload", elapsed, procErr)
	if procErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": procErr.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ProcessResponse{
		Success:        true,
		Message:        fmt.Sprintf("Document '%s' processed successfully", name),
		DocumentID:     name,
		ProcessingTime: elapsed,
	})
}

type queryRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

func (h *Handler) queryDocuments(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "query is required"})
		return
	}
	if req.Mode == "" {
		req.Mode = "hybrid"
	}
	start := time.Now()

	if answer, ok := h.answers.Get(c.Request.Context(), req.Mode, req.Query); ok {
		c.JSON(http.StatusOK, models.QueryResponse{
			Success:        true,
			Message:        "Query processed successfully",
			Answer:         answer,
			ProcessingTime: time.Since(start).Seconds(),
		})
		return
	}

	answer, err := h.engine.Query(c.Request.Context(), req.Query, req.Mode)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	h.answers.Set(c.Request.Context(), req.Mode, req.Query, answer)

	c.JSON(http.StatusOK, models.QueryResponse{
		Success:        true,
		Message:        "Query processed successfully",
		Answer:         answer,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

type contentRequest struct {
	ContentList          []models.ContentItem `json:"content_list"`
	FilePath             string               `json:"file_path"`
	DocID                string               `json:"doc_id"`
	SplitByCharacter     string               `json:"split_by_character"`
	SplitByCharacterOnly bool                 `json:"split_by_character_only"`
	DisplayStats         *bool                `json:"display_stats"`
}

func (h *Handler) insertContent(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	if len(req.ContentList) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "content_list is required"})
		return
	}
	if req.FilePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file_path is required"})
		return
	}
	for i := range req.ContentList {
		if err := req.ContentList[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
	}
	displayStats := true
	if req.DisplayStats != nil {
		displayStats = *req.DisplayStats
	}
	start := time.Now()

	insErr := h.engine.InsertContent(c.Request.Context(), req.ContentList, req.FilePath, req.DocID, engine.InsertOptions{
		SplitByCharacter:     req.SplitByCharacter,
		SplitByCharacterOnly: req.SplitByCharacterOnly,
		DisplayStats:         displayStats,
	})
	elapsed := time.Since(start).Seconds()
	docID := req.DocID
	if docID == "" {
		docID = filepath.Base(req.FilePath)
	}
	h.recordDocument(c, docID, filepath.Base(req.FilePath), "content", elapsed, insErr)
	if insErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": insErr.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ProcessResponse{
		Success:        true,
		Message:        fmt.Sprintf("Content list with %d items inserted successfully", len(req.ContentList)),
		DocumentID:     req.DocID,
		ProcessingTime: elapsed,
	})
}

type multimodalQueryRequest struct {
	Query             string                  `json:"query"`
	MultimodalContent []models.MultimodalItem `json:"multimodal_content"`
	Mode              string                  `json:"mode"`
}

func (h *Handler) multimodalQuery(c *gin.Context) {
	var req multimodalQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "query is required"})
		return
	}
	if req.Mode == "" {
		req.Mode = "hybrid"
	}
	for i := range req.MultimodalContent {
		if err := req.MultimodalContent[i].Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
	}
	start := time.Now()

	answer, err := h.engine.QueryMultimodal(c.Request.Context(), req.Query, req.Mode, req.MultimodalContent)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.QueryResponse{
		Success:        true,
		Message:        "Multimodal query processed successfully",
		Answer:         answer,
		ProcessingTime: time.Since(start).Seconds(),
	})
}

func (h *Handler) batchProcess(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxUploadBytes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid multipart form"})
		return
	}
	headers := c.Request.MultipartForm.File["files"]

	opts := models.DefaultProcessingOptions()
	if raw := c.PostForm("request_data"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": fmt.Sprintf("invalid request_data: %v", err)})
			return
		}
	}
	opts.Normalize(h.workerLimit)

	files := make([]batch.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, batch.File{
			Name: filepath.Base(fh.Filename),
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	start := time.Now()
	report, err := h.batches.Run(c.Request.Context(), files, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	elapsed := time.Since(start).Seconds()
	h.recordBatch(c, report, elapsed)

	c.JSON(http.StatusOK, models.ProcessResponse{
		Success:        report.AnySucceeded(),
		Message:        report.Message,
		DocumentID:     fmt.Sprintf("batch-%d-files", report.Total),
		ProcessingTime: elapsed,
	})
}

func (h *Handler) listDocuments(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	records, err := h.ledger.List(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	if records == nil {
		records = make([]storage.DocumentRecord, 0)
	}
	c.JSON(http.StatusOK, gin.H{"documents": records})
}

func (h *Handler) recordDocument(c *gin.Context, docID, fileName, operation string, elapsed float64, opErr error) {
	rec := storage.DocumentRecord{
		DocID:          docID,
		FileName:       fileName,
		Operation:      operation,
		Status:         storage.StatusProcessed,
		ProcessingTime: elapsed,
	}
	if opErr != nil {
		rec.Status = storage.StatusFailed
		rec.Error = opErr.Error()
	}
	h.ledger.Record(c.Request.Context(), rec)
}

func (h *Handler) recordBatch(c *gin.Context, report *batch.Report, elapsed float64) {
	rec := storage.DocumentRecord{
		DocID:          fmt.Sprintf("batch-%d-files", report.Total),
		FileName:       fmt.Sprintf("%d files", report.Total),
		Operation:      "batch",
		Status:         storage.StatusProcessed,
		ProcessingTime: elapsed,
	}
	if report.Failed > 0 && !report.AnySucceeded() {
		rec.Status = storage.StatusFailed
	}
	if len(report.FailedFiles) > 0 {
		rec.Error = fmt.Sprintf("failed: %s", strings.Join(report.FailedFiles, ", "))
	}
	h.ledger.Record(c.Request.Context(), rec)
}
