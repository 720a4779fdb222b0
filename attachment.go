package gemchat

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MaxAttachmentSize is the largest attachment accepted for inline embedding.
const MaxAttachmentSize = 15 << 20

// Attachment is a file submitted by the user. Open is called at most once.
type Attachment struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// OpenFile builds an Attachment for the file at path. The MIME type comes
// from the extension, falling back to content sniffing.
func OpenFile(path string) (Attachment, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Attachment{}, fmt.Errorf("stat attachment: %w", err)
	}
	if info.IsDir() {
		return Attachment{}, fmt.Errorf("attachment %s is a directory: %w", path, ErrValidation)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mimeType == "" {
		mimeType, err = sniffFile(path)
		if err != nil {
			return Attachment{}, err
		}
	}
	return Attachment{
		Name:     filepath.Base(path),
		MimeType: mimeType,
		Size:     info.Size(),
		Open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func sniffFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("read attachment: %w", err)
	}
	return http.DetectContentType(head[:n]), nil
}

// Encode validates a and reads it into an InlineBinaryPart. Violations are
// reported as *EncodingError.
func Encode(a Attachment) (InlineBinaryPart, error) {
	if a.Size > MaxAttachmentSize {
		return InlineBinaryPart{}, &EncodingError{Name: a.Name, Reason: TooLarge}
	}
	mimeType, _, _ := strings.Cut(a.MimeType, ";")
	mimeType = strings.TrimSpace(mimeType)
	if !strings.HasPrefix(mimeType, "image/") {
		return InlineBinaryPart{}, &EncodingError{Name: a.Name, Reason: UnsupportedType}
	}
	if a.Open == nil {
		return InlineBinaryPart{}, &EncodingError{Name: a.Name, Reason: ReadFailed, Err: fmt.Errorf("no reader: %w", ErrValidation)}
	}

	rc, err := a.Open()
	if err != nil {
		return InlineBinaryPart{}, &EncodingError{Name: a.Name, Reason: ReadFailed, Err: err}
	}
	defer rc.Close()

	// Read one byte past the limit so an understated Size is still caught.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(rc, MaxAttachmentSize+1)); err != nil {
		return InlineBinaryPart{}, &EncodingError{Name: a.Name, Reason: ReadFailed, Err: err}
	}
	if buf.Len() > MaxAttachmentSize {
		return InlineBinaryPart{}, &EncodingError{Name: a.Name, Reason: TooLarge}
	}
	return InlineBinaryPart{MimeType: mimeType, Data: buf.Bytes()}, nil
}

// EncodeAll encodes a batch concurrently. Successful parts are returned in
// submission order; each rejected file contributes one error and never stops
// its siblings.
func EncodeAll(ctx context.Context, files []Attachment) ([]InlineBinaryPart, []error) {
	parts := make([]InlineBinaryPart, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	for i, f := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = &EncodingError{Name: f.Name, Reason: ReadFailed, Err: err}
				return nil
			}
			parts[i], errs[i] = Encode(f)
			return nil
		})
	}
	_ = g.Wait() // workers record failures per index.

	var (
		ok     []InlineBinaryPart
		failed []error
	)
	for i := range files {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		ok = append(ok, parts[i])
	}
	return ok, failed
}
