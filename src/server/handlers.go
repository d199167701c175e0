package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	app "github.com/SatishBytes/thumbly/src/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type (
	// Storage is the slice of the S3 client the handlers need. Implemented
	// by app.MinioS3Client.
	Storage interface {
		UploadFile(ctx context.Context, key string, object io.Reader, size int64, contentType string) error
		ListKeys(ctx context.Context, prefix string, limit int) ([]string, error)
		PublicURL(ctx context.Context, key string) (string, error)
		DeleteFile(ctx context.Context, key string) error
	}

	// TextGenerator produces a caption for a prompt. Implemented by
	// app.GeminiClient.
	TextGenerator interface {
		GenerateText(ctx context.Context, prompt string) (string, error)
	}

	AppHandler struct {
		storage  Storage
		gemini   TextGenerator
		identity *IdentityResolver
	}

	GenerateBody struct {
		Prompt            string `json:"prompt"`
		ImageBufferBase64 string `json:"imageBufferBase64"`
	}
)

const (
	thumbnailFormField = "thumbnail"
	nameQueryParam     = "name"

	maxUploadSize = 5 * 1024 * 1024
	listLimit     = 100

	defaultExtension  = "jpg"
	uploadContentType = "image/jpeg"
)

func NewHandler(storage Storage, gemini TextGenerator, identity *IdentityResolver) *AppHandler {
	return &AppHandler{
		storage:  storage,
		gemini:   gemini,
		identity: identity,
	}
}

func (a *AppHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// PostUpload accepts a single-file multipart request, writes the blob under a
// fresh key in the caller's namespace and returns its public reference.
func (a *AppHandler) PostUpload(c *gin.Context) {
	userID, ok := a.identity.EnsureAuthenticated(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile(thumbnailFormField)
	if err != nil {
		log.Printf("upload without a file: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	if header.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	key := fmt.Sprintf("%s/%s.%s", userID, uuid.NewString(), fileExtension(header.Filename))
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = uploadContentType
	}

	if err := a.storage.UploadFile(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	publicURL, err := a.storage.PublicURL(c.Request.Context(), key)
	if err != nil || publicURL == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get public URL"})
		return
	}

	log.Printf("uploaded %s", key)
	c.JSON(http.StatusOK, app.Thumbnail{
		Name:   key,
		URL:    publicURL,
		Source: app.SourceManual,
		UserID: userID,
	})
}

// GetList enumerates the caller's thumbnails, in whatever order storage
// yields them.
func (a *AppHandler) GetList(c *gin.Context) {
	userID, ok := a.identity.EnsureAuthenticated(c)
	if !ok {
		return
	}

	keys, err := a.storage.ListKeys(c.Request.Context(), userID+"/", listLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	files := make([]app.FileEntry, 0, len(keys))
	for _, key := range keys {
		publicURL, err := a.storage.PublicURL(c.Request.Context(), key)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		files = append(files, app.FileEntry{Name: key, URL: publicURL})
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// DeleteThumbnail removes a single blob after checking the caller owns it.
func (a *AppHandler) DeleteThumbnail(c *gin.Context) {
	userID, ok := a.identity.EnsureAuthenticated(c)
	if !ok {
		return
	}

	name, ok := c.GetQuery(nameQueryParam)
	if !ok || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing or invalid 'name' parameter"})
		return
	}

	if !ownsKey(userID, name) {
		log.Printf("user %s tried to delete foreign key %s", userID, name)
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: cannot delete other users' files"})
		return
	}

	if err := a.storage.DeleteFile(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PostGenerate calls the text-generation endpoint for a caption, persists
// the supplied image under a fresh Gemini-suffixed key and returns the
// combined record. Retrying on upstream overload is the client's concern.
func (a *AppHandler) PostGenerate(c *gin.Context) {
	userID, ok := a.identity.EnsureAuthenticated(c)
	if !ok {
		return
	}

	var body GenerateBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Prompt == "" || body.ImageBufferBase64 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing prompt or image buffer"})
		return
	}

	caption, err := a.gemini.GenerateText(c.Request.Context(), body.Prompt)
	if err != nil {
		log.Printf("gemini flow failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(body.ImageBufferBase64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image buffer"})
		return
	}

	key := fmt.Sprintf("%s/%s-gemini.jpg", userID, uuid.NewString())
	if err := a.storage.UploadFile(c.Request.Context(), key,
		bytes.NewReader(imageBytes), int64(len(imageBytes)), uploadContentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	publicURL, err := a.storage.PublicURL(c.Request.Context(), key)
	if err != nil || publicURL == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get public URL"})
		return
	}

	log.Printf("uploaded gemini thumbnail %s", key)
	c.JSON(http.StatusOK, app.Thumbnail{
		Name:    key,
		URL:     publicURL,
		Caption: caption,
		Source:  app.SourceGemini,
		UserID:  userID,
	})
}

// ownsKey is the sole authorization rule: a key belongs to a user iff its
// first path segment equals the user id.
func ownsKey(userID, key string) bool {
	return strings.HasPrefix(key, userID+"/")
}

// fileExtension trusts the client-declared name, defaulting to jpg when it
// carries no extension.
func fileExtension(filename string) string {
	parsed := strings.Split(filename, ".")
	if len(parsed) < 2 {
		return defaultExtension
	}
	return parsed[len(parsed)-1]
}
