package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/distribution_backend/config"
	"github.com/mmdatafocus/distribution_backend/forms"
	"github.com/mmdatafocus/distribution_backend/utils"
	"github.com/sirupsen/logrus"
)

type uploadedFile struct {
	Name     string
	MimeType string
	Data     []byte
}

type StoredObject struct {
	ObjectKey          string `json:"object_key"`
	URL                string `json:"url"`
	ThumbnailObjectKey string `json:"thumbnail_object_key,omitempty"`
	ThumbnailURL       string `json:"thumbnail_url,omitempty"`
}

// Uploader stores an attachment under folder.
type Uploader interface {
	Store(ctx context.Context, folder string, file uploadedFile) (StoredObject, error)
}

type gcsUploader struct{}

// Store uploads file to GCS. Images also get a thumbnail; a failed thumbnail
// is logged and the upload still succeeds.
func (gcsUploader) Store(ctx context.Context, folder string, file uploadedFile) (StoredObject, error) {
	objectKey := path.Join(sanitizeSegment(folder), time.Now().UTC().Format("2006/01"),
		uuid.NewString()+extensionFromMimeType(file.MimeType))
	if err := utils.UploadBytesToGCS(ctx, objectKey, file.Data, file.MimeType); err != nil {
		return StoredObject{}, err
	}
	stored := StoredObject{ObjectKey: objectKey, URL: utils.BuildObjectAccessURL(objectKey)}
	if !utils.IsImageMimeType(file.MimeType) {
		return stored, nil
	}

	thumbnail, err := utils.MakeThumbnail(file.Data)
	if err == nil {
		thumbnailKey := utils.ThumbnailObjectKey(objectKey)
		if err = utils.UploadBytesToGCS(ctx, thumbnailKey, thumbnail, "image/jpeg"); err == nil {
			stored.ThumbnailObjectKey = thumbnailKey
			stored.ThumbnailURL = utils.BuildObjectAccessURL(thumbnailKey)
		}
	}
	if err != nil {
		logUploadError(config.GetLogger(), err, objectKey, requestIDFromContext(ctx))
	}
	return stored, nil
}

// readUpload reads multipart field into memory, enforcing size and type limits.
func readUpload(c *gin.Context, field string) (uploadedFile, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return uploadedFile{}, forms.FieldErrors{field: "file is required"}
	}
	if header.Size > utils.MaxUploadSizeBytes {
		return uploadedFile{}, forms.FieldErrors{field: "file size exceeds 5MB limit"}
	}
	f, err := header.Open()
	if err != nil {
		return uploadedFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, utils.MaxUploadSizeBytes+1))
	if err != nil {
		return uploadedFile{}, err
	}
	mimeType, err := utils.DetectUploadMimeType(data)
	if err != nil {
		return uploadedFile{}, forms.FieldErrors{field: err.Error()}
	}
	return uploadedFile{Name: header.Filename, MimeType: mimeType, Data: data}, nil
}

// uploadObjectHandler streams a stored object back, for buckets that are not public.
func uploadObjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		objectKey := strings.TrimSpace(c.Query("key"))
		if objectKey == "" || strings.Contains(objectKey, "..") || strings.HasPrefix(objectKey, "/") {
			respondError(c, "uploadObjectHandler", forms.FieldErrors{"key": "invalid key"})
			return
		}

		client, err := utils.GetGCSClient(c.Request.Context())
		if err != nil {
			respondError(c, "uploadObjectHandler", err)
			return
		}
		defer client.Close()

		obj := client.Bucket(strings.TrimSpace(os.Getenv("GCS_BUCKET"))).Object(objectKey)
		reader, err := obj.NewReader(c.Request.Context())
		if err != nil {
			respondError(c, "uploadObjectHandler", utils.ErrorRecordNotFound)
			return
		}
		defer reader.Close()

		if ct := reader.Attrs.ContentType; ct != "" {
			c.Writer.Header().Set("Content-Type", ct)
		}
		if size := reader.Attrs.Size; size > 0 {
			c.Writer.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		}
		c.Status(http.StatusOK)
		_, _ = io.Copy(c.Writer, reader)
	}
}

func sanitizeSegment(input string) string {
	var out strings.Builder
	for _, r := range strings.ToLower(input) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out.WriteRune(r)
		}
	}
	if out.Len() == 0 {
		return "uploads"
	}
	return out.String()
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}

func logUploadError(logger *logrus.Logger, err error, objectKey string, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"object_key": objectKey,
		"request_id": requestID,
	}).Error("[upload.error]")
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := utils.GetCorrelationIdFromContext(ctx); ok && id != "" {
		return id
	}
	return fmt.Sprintf("upload-%d", time.Now().UnixNano())
}
