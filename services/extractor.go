package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"course-assistant-platform/internal/logger"
	"course-assistant-platform/models"

	"github.com/ledongthuc/pdf"
)

// TextExtractor pulls plain text out of uploaded course materials.
type TextExtractor struct {
	maxFileSize int64
}

func NewTextExtractor(maxFileSize int64) *TextExtractor {
	return &TextExtractor{maxFileSize: maxFileSize}
}

// Extract reads the file at path and returns its text content. PDF files go
// through the PDF parser; anything else is treated as plain text.
// Empty extraction is an error so the caller can mark the material failed
// instead of indexing nothing.
func (e *TextExtractor) Extract(ctx context.Context, filePath, fileType string) (string, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return "", fmt.Errorf("context deadline exceeded before extraction")
		}
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if e.maxFileSize > 0 && stat.Size() > e.maxFileSize {
		return "", fmt.Errorf("file too large for in-memory extraction: %d bytes", stat.Size())
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	var text string
	switch fileType {
	case models.FileTypePDF:
		text, err = e.extractPDF(content)
		if err != nil {
			return "", err
		}
	default:
		text = string(content)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text content extracted from %s", fileType)
	}

	return text, nil
}

func (e *TextExtractor) extractPDF(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from PDF page", "page", i, "error", err)
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	extracted := textBuilder.String()
	if extracted == "" {
		return "", fmt.Errorf("no text extracted from PDF (%d pages)", pages)
	}

	return extracted, nil
}
