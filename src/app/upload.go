package app

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Blob key namespaces, one per entity kind carrying images.
const (
	KindAquarium = "aquariums"
	KindCoral    = "corals"
	KindUser     = "users"
)

const maxFilenameLength = 100

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// Upload is a validated file waiting to be put into the blob store.
type Upload struct {
	Key         string
	Filename    string
	ContentType string
	Size        int64
	open        func() (io.ReadCloser, error)
}

func (u Upload) put(ctx context.Context, store BlobStore) error {
	r, err := u.open()
	if err != nil {
		return err
	}
	defer r.Close()
	return store.Put(ctx, u.Key, r, u.Size, u.ContentType)
}

// Put uploads a single file.
func (u Upload) Put(ctx context.Context, store BlobStore) error {
	if err := u.put(ctx, store); err != nil {
		return fmt.Errorf("uploading %s: %w", u.Filename, err)
	}
	return nil
}

// PrepareUpload validates a multipart file and assigns it a key under kind/id.
func PrepareUpload(kind, id string, header *multipart.FileHeader, limit int64, now time.Time) (Upload, error) {
	contentType, err := ValidateUpload(header, limit)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Key:         BlobKey(kind, id, header.Filename, now),
		Filename:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		open: func() (io.ReadCloser, error) {
			return header.Open()
		},
	}, nil
}

// ValidateUpload checks the file type against the image allow-list, then its size,
// and returns the content type to store the blob with. The declared type is trusted
// unless it is missing or generic, in which case the content is sniffed.
func ValidateUpload(header *multipart.FileHeader, limit int64) (string, error) {
	contentType, err := uploadContentType(header)
	if err != nil {
		return "", err
	}
	if !allowedImageTypes[contentType] {
		return "", UploadRejected("File must be a JPEG, PNG, WebP, or GIF image")
	}
	if limit > 0 && header.Size > limit {
		return "", UploadRejected(fmt.Sprintf("File must be %s or smaller", humanize.IBytes(uint64(limit))))
	}
	return contentType, nil
}

func uploadContentType(header *multipart.FileHeader) (string, error) {
	declared := header.Header.Get("Content-Type")
	if declared != "" {
		if mediaType, _, err := mime.ParseMediaType(declared); err == nil {
			declared = strings.ToLower(mediaType)
		}
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared, nil
	}

	f, err := header.Open()
	if err != nil {
		return "", Internal("upload.sniff", err)
	}
	defer f.Close()
	detected, err := mimetype.DetectReader(f)
	if err != nil {
		return "", Internal("upload.sniff", err)
	}
	mediaType, _, _ := mime.ParseMediaType(detected.String())
	return mediaType, nil
}

// BlobKey builds a collision free key: <kind>/<id>/<unixMillis>-<8 hex>-<filename>.
func BlobKey(kind, id, filename string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s/%s/%d-%s-%s", kind, id, now.UnixMilli(), suffix, SanitizeFilename(filename))
}

// SanitizeFilename keeps the base name of filename and replaces anything outside
// [a-zA-Z0-9._-] with an underscore.
func SanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = unsafeFilenameChars.ReplaceAllString(base, "_")
	if len(base) > maxFilenameLength {
		base = base[:maxFilenameLength]
	}
	if base == "" {
		return "upload"
	}
	return base
}
