package handlers

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"nyaydarpan-backend/ingest"
	"nyaydarpan-backend/storage"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Feed kinds accepted by UploadFeed and the file prefix each is stored under
const (
	FeedKindCases   = "cases"
	FeedKindReviews = "reviews"

	IncomingPrefix = "incoming/"
)

var feedFilePrefix = map[string]string{
	FeedKindCases:   "scraped_cases_",
	FeedKindReviews: "reviews_",
}

// FeedHandler accepts scraper feed files and stores them for ingestion
type FeedHandler struct {
	storage     storage.Storage
	maxFileSize int64
	now         func() time.Time
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(store storage.Storage) *FeedHandler {
	return &FeedHandler{
		storage:     store,
		maxFileSize: 20 * 1024 * 1024, // 20MB
		now:         time.Now,
	}
}

// UploadFeed handles POST /api/corpus/feeds. The file is parsed before it is
// stored so that a broken feed is rejected at the door.
func (h *FeedHandler) UploadFeed(c *gin.Context) {
	kind := c.DefaultPostForm("kind", FeedKindCases)
	prefix, ok := feedFilePrefix[kind]
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_KIND", "kind must be cases or reviews")
		return
	}

	// Get file from form
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "File is required")
		return
	}

	// Validate file size
	if fileHeader.Size > h.maxFileSize {
		respondError(c, http.StatusBadRequest, "FILE_TOO_LARGE",
			fmt.Sprintf("File size exceeds maximum of %d bytes", h.maxFileSize))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_OPEN_ERROR", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxFileSize+1))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "FILE_READ_ERROR", err.Error())
		return
	}

	var stats ingest.FeedStats
	var parseErr error
	switch kind {
	case FeedKindCases:
		_, stats, parseErr = ingest.ParseFeed(bytes.NewReader(data), h.now())
	case FeedKindReviews:
		_, stats, parseErr = ingest.ParseReviews(bytes.NewReader(data))
	}
	if parseErr != nil {
		respondError(c, http.StatusBadRequest, "INVALID_FEED", parseErr.Error())
		return
	}

	key := feedKey(prefix, h.now())
	storagePath, err := h.storage.Upload(c.Request.Context(), key, bytes.NewReader(data))
	if err != nil {
		log.WithFields(log.Fields{
			"key":   key,
			"error": err,
		}).Error("Failed to store feed")
		respondError(c, http.StatusInternalServerError, "UPLOAD_FAILED", "Failed to store feed")
		return
	}

	log.WithFields(log.Fields{
		"path":    storagePath,
		"kind":    kind,
		"records": stats.Records,
	}).Info("Feed stored")

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"storage_path": storagePath,
			"kind":         kind,
			"stats":        stats,
		},
	})
}

// feedKey names a stored feed by upload time; the random suffix keeps uploads
// within the same second apart
func feedKey(prefix string, now time.Time) string {
	return IncomingPrefix + prefix + now.UTC().Format("20060102_150405") + "_" + uuid.NewString()[:8] + ".json"
}
