package catalog

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"launcher.GO/core/apperr"
)

// validateImage checks the declared size and content type of up.
func (s *Service) validateImage(up *Upload) error {
	if up == nil {
		return nil
	}
	if up.Body == nil {
		return apperr.New(apperr.CodeInvalidImage, "image has no content")
	}
	if up.Size > s.maxImageBytes {
		return apperr.New(apperr.CodeInvalidImage, fmt.Sprintf("image exceeds %d bytes", s.maxImageBytes))
	}
	mediaType, _, err := mime.ParseMediaType(up.ContentType)
	if err != nil || !s.imageTypes[strings.ToLower(mediaType)] {
		return apperr.New(apperr.CodeInvalidImage, "unsupported image type: "+up.ContentType)
	}
	up.ContentType = strings.ToLower(mediaType)
	return nil
}

// countingReader counts bytes read through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// storeImage writes the upload, rejecting bodies longer than the ceiling
// whatever size was declared.
func (s *Service) storeImage(ctx context.Context, up *Upload) (string, error) {
	body := &countingReader{r: io.LimitReader(up.Body, s.maxImageBytes+1)}
	ref, err := s.assets.Store(ctx, body, up.Filename, up.ContentType)
	if err != nil {
		return "", err
	}
	if body.n > s.maxImageBytes {
		s.assets.Delete(ctx, ref)
		return "", apperr.New(apperr.CodeInvalidImage, fmt.Sprintf("image exceeds %d bytes", s.maxImageBytes))
	}
	return ref, nil
}
