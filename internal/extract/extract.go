package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"resumind-backend/internal/blobstore"
)

// Text resolves a stored document reference and extracts its plain text.
// Library used: github.com/ledongthuc/pdf.
func Text(ctx context.Context, store blobstore.Store, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, path)
	if err != nil {
		return "", fmt.Errorf("extract text path=%s: %w", path, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text path=%s: read: %w", path, err)
	}

	text, err := FromBytes(raw)
	if err != nil {
		return "", fmt.Errorf("extract text path=%s: %w", path, err)
	}
	return text, nil
}

// FromBytes extracts plain text from an in-memory PDF payload.
func FromBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty document")
	}
	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}
