// Package extract turns an uploaded plan document into linear UTF-8 text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var (
	ErrEmptyText         = errors.New("document has no extractable text")
	ErrUnreadable        = errors.New("document could not be read")
	ErrTooLarge          = errors.New("document exceeds the upload limit")
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// TextExtractor produces the raw text of a source document.
type TextExtractor interface {
	Extract(ctx context.Context, name string, r io.Reader) (string, error)
}

// Config controls the extractor.
type Config struct {
	Pdftotext string // path or name of the pdftotext binary
	MaxBytes  int64  // 0 means unlimited
}

// Extractor handles PDF (through pdftotext) and plain-text uploads.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Extractor {
	return NewWithRunner(cfg, NewExecRunner(logger), logger)
}

func NewWithRunner(cfg Config, runner Runner, logger *zap.Logger) *Extractor {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

var pdfMagic = []byte("%PDF-")

func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (string, error) {
	src := r
	if e.cfg.MaxBytes > 0 {
		src = io.LimitReader(r, e.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if e.cfg.MaxBytes > 0 && int64(len(data)) > e.cfg.MaxBytes {
		return "", ErrTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return "", ErrEmptyText
	}

	var text string
	switch ext := strings.ToLower(filepath.Ext(name)); {
	case bytes.HasPrefix(data, pdfMagic) || ext == ".pdf":
		text, err = e.pdfToText(ctx, data)
	case ext == "" || ext == ".txt" || ext == ".text":
		text, err = decodePlain(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", err
	}

	text = cleanup(text)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	e.logger.Debug("document extracted",
		zap.String("name", name),
		zap.Int("bytes", len(data)),
		zap.Int("runes", utf8.RuneCountInString(text)),
	)
	return text, nil
}

func (e *Extractor) pdfToText(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "matriz-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err := os.Remove(tmp.Name()); err != nil {
			e.logger.Warn("failed to remove temp file", zap.String("path", tmp.Name()), zap.Error(err))
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", tmp.Name(), "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext: %v: %s", ErrUnreadable, err, clip(strings.TrimSpace(string(errb)), 512))
	}
	if !utf8.Valid(out) {
		return "", fmt.Errorf("%w: pdftotext produced invalid UTF-8", ErrUnreadable)
	}
	return string(out), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decodePlain accepts UTF-8 and falls back to Windows-1252, the usual
// encoding of text exported by office suites on Brazilian machines.
func decodePlain(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	rd := transform.NewReader(bytes.NewReader(data), charmap.Windows1252.NewDecoder())
	out, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("%w: decode windows-1252: %v", ErrUnreadable, err)
	}
	return string(out), nil
}

// cleanup unifies line endings and turns page breaks into blank lines.
func cleanup(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\f", "\n\n")
	return strings.ReplaceAll(s, "\u00a0", " ")
}
