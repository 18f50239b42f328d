// Package export writes a grid.Table to downloadable files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Format is an export file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "xlsx" or "pdf", case-insensitively
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXLSX, FormatPDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Filename returns export-YYYY-MM-DD.<ext> for the UTC date of now
func Filename(now time.Time, format Format) string {
	return fmt.Sprintf("export-%s.%s", now.UTC().Format("2006-01-02"), format)
}

// Orientation of PDF pages
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Options tune the writers
type Options struct {
	Orientation    Orientation
	MaxColumnWidth float64 // xlsx column width cap, in characters
}

// DefaultOptions returns landscape pages and a 60-character column cap
func DefaultOptions() Options {
	return Options{Orientation: Landscape, MaxColumnWidth: 60}
}

// Exporter turns tables into file bytes. When a ChromeRenderer is set, PDFs go
// through the HTML template and headless Chrome; otherwise through the native writer.
type Exporter struct {
	opts   Options
	chrome *ChromeRenderer
	logger *zap.Logger
}

// Option configures an Exporter
type Option func(*Exporter)

// WithChrome routes PDF output through headless Chrome
func WithChrome(r *ChromeRenderer) Option {
	return func(e *Exporter) { e.chrome = r }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithOptions replaces the writer options
func WithOptions(o Options) Option {
	return func(e *Exporter) { e.opts = o }
}

// NewExporter creates an exporter
func NewExporter(opts ...Option) *Exporter {
	e := &Exporter{opts: DefaultOptions(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewExporterFromConfig builds an exporter from the export config section,
// starting a Chrome allocator when enabled.
func NewExporterFromConfig(cfg config.ExportConfig, logger *zap.Logger) (*Exporter, error) {
	opts := []Option{
		WithLogger(logger),
		WithOptions(Options{
			Orientation:    Orientation(cfg.PDFOrientation),
			MaxColumnWidth: cfg.MaxColumnWidth,
		}),
	}
	if cfg.ChromeEnabled {
		r, err := NewChromeRenderer(&ChromeConfig{
			RemoteURL: cfg.ChromeRemoteURL,
			ExecPath:  cfg.ChromePath,
			Timeout:   cfg.Timeout,
			NoSandbox: true,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithChrome(r))
	}
	return NewExporter(opts...), nil
}

// Export renders table in format. An empty table is grid.ErrEmptyExport.
func (e *Exporter) Export(ctx context.Context, table *grid.Table, format Format) ([]byte, error) {
	if table == nil || table.Len() == 0 {
		return nil, grid.ErrEmptyExport
	}

	var (
		buf bytes.Buffer
		err error
	)
	start := time.Now()
	switch format {
	case FormatXLSX:
		err = WriteXLSX(&buf, table, e.opts)
	case FormatPDF:
		if e.chrome != nil {
			var data []byte
			data, err = e.renderChromePDF(ctx, table)
			buf.Write(data)
		} else {
			err = WritePDF(&buf, table, e.opts)
		}
	default:
		err = fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return nil, err
	}

	e.logger.Debug("Export written",
		zap.String("format", string(format)),
		zap.Int("rows", table.Len()),
		zap.Int("bytes", buf.Len()),
		zap.Duration("duration", time.Since(start)))
	return buf.Bytes(), nil
}

func (e *Exporter) renderChromePDF(ctx context.Context, table *grid.Table) ([]byte, error) {
	var html bytes.Buffer
	if err := WriteHTML(&html, table); err != nil {
		return nil, err
	}
	return e.chrome.Render(ctx, html.String(), e.opts.Orientation == Landscape)
}

// Close releases the Chrome allocator if one is running
func (e *Exporter) Close() error {
	if e.chrome != nil {
		return e.chrome.Close()
	}
	return nil
}
