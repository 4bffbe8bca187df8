// Package storage keeps uploaded cover images. A stored image is addressed by
// an opaque reference string which is what the post record keeps.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/gabriel-vasile/mimetype"
)

// Storage saves and removes cover images.
type Storage interface {
	Save(ctx context.Context, u *Upload) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Linker is implemented by backends that serve objects from elsewhere; the
// HTTP layer redirects to the returned URL.
type Linker interface {
	URL(ctx context.Context, ref string) (string, error)
}

// Upload is a sniffed image ready to be stored.
type Upload struct {
	Name string
	MIME string
	Ext  string
	Data []byte
}

func (u *Upload) Reader() io.Reader {
	return bytes.NewReader(u.Data)
}

// NewUpload reads at most maxSize bytes from r and accepts them only if the
// content sniffs as a raster image. The stored extension always comes from the
// detected type; the client's file name is kept for reference only.
func NewUpload(name string, r io.Reader, maxSize int64) (*Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", common.ErrorValidation)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", common.ErrorValidation, maxSize)
	}

	mt := DetectImage(data)
	if mt == nil {
		return nil, common.ErrUnsupportedMedia
	}

	return &Upload{Name: name, MIME: mt.String(), Ext: mt.Extension(), Data: data}, nil
}

// DetectImage returns the sniffed type of data, or nil if it is not an image.
// SVG is refused since browsers run scripts embedded in it.
func DetectImage(data []byte) *mimetype.MIME {
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") || mt.Is("image/svg+xml") || mt.Extension() == "" {
		return nil
	}
	return mt
}
