package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/InternConnect/internal/services"
)

const uploadField = "file"

// readUpload pulls the multipart file field into memory, capped at MaxUploadSize.
func readUpload(c *gin.Context) (services.Upload, bool) {
	// room for the multipart envelope around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxUploadSize+64<<10)

	header, err := c.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file exceeds the %d MB limit", services.MaxUploadSize>>20),
			})
			return services.Upload{}, false
		}
		badRequest(c, "multipart field \"file\" is required")
		return services.Upload{}, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, err)
		return services.Upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, services.MaxUploadSize+1))
	if err != nil {
		respondError(c, err)
		return services.Upload{}, false
	}
	return services.Upload{Filename: header.Filename, Data: data}, true
}
