// Package files resolves local file paths into prompt content: text
// documents become concatenated, delimited markdown and images become
// base64-encoded payloads with their MIME type. Provider adapters attach the
// result to the most recent user turn; they never interpret file bytes
// themselves.
package files

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedExtension is returned (wrapped) for paths whose extension is
// neither a known text document nor an allow-listed image type.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// imageMIMETypes is the fixed allow-list of image extensions.
var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// textExtensions lists document extensions rendered as markdown text.
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".xml":      true,
	".html":     true,
	".log":      true,
}

// Image is one resolved image attachment.
type Image struct {
	MIMEType string
	Data     string // base64 encoded bytes
}

// Decode returns the raw image bytes.
func (img Image) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(img.Data)
}

// Input is the resolved content for a set of file paths.
type Input struct {
	Text   string
	Images []Image
}

// Empty reports whether nothing was resolved.
func (in *Input) Empty() bool {
	return in == nil || (in.Text == "" && len(in.Images) == 0)
}

// Read resolves paths into an Input. Text documents are concatenated in
// argument order with a delimiter naming each file; images are returned as
// base64 payloads. It fails on the first missing, unreadable, or unsupported
// path.
func Read(paths []string) (*Input, error) {
	in := &Input{}
	var text strings.Builder

	for _, path := range paths {
		ext := strings.ToLower(filepath.Ext(path))

		mime, isImage := imageMIMETypes[ext]
		if !isImage && !textExtensions[ext] {
			return nil, fmt.Errorf("files: %q: %w", path, ErrUnsupportedExtension)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("files: read %q: %w", path, err)
		}

		if isImage {
			in.Images = append(in.Images, Image{
				MIMEType: mime,
				Data:     base64.StdEncoding.EncodeToString(data),
			})
			continue
		}

		fmt.Fprintf(&text, "\n\n--- file: %s ---\n\n%s", filepath.Base(path), data)
	}

	in.Text = text.String()
	return in, nil
}
