package file

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"golang.org/x/exp/slices"
)

type FileUploader struct {
	cloudName    string
	apiKey       string
	apiSecret    string
	allowedTypes []string
	maxFileSize  int64
}

func New(cloudName, apiKey, apiSecret string, allowedTypes []string, maxFileSize int64) *FileUploader {
	return &FileUploader{
		cloudName:    cloudName,
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		allowedTypes: allowedTypes,
		maxFileSize:  maxFileSize,
	}
}

// ValidateImage rejects a disallowed mime type or oversized file before any
// bytes reach the upload provider.
func (f *FileUploader) ValidateImage(header *multipart.FileHeader) error {
	if header.Size > f.maxFileSize {
		return fmt.Errorf("file is too large, maximum size is %d bytes", f.maxFileSize)
	}

	contentType := header.Header.Get("Content-Type")
	extension := strings.TrimPrefix(contentType, "image/")

	if extension == contentType || !slices.Contains(f.allowedTypes, extension) {
		return fmt.Errorf("invalid file type, only %s allowed", strings.Join(f.allowedTypes, ", "))
	}

	return nil
}

func (f *FileUploader) UploadFile(fileName string) (string, error) {
	cld, err := cloudinary.NewFromParams(f.cloudName, f.apiKey, f.apiSecret)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	uploadResult, err := cld.Upload.Upload(ctx, fileName, uploader.UploadParams{})
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
