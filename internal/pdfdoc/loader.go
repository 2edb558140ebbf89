// Package pdfdoc loads PDF documents from confined local paths or
// remote URLs and exposes them as per-page fragment streams.
package pdfdoc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/sammcj/mcp-pdf-reader/internal/outline"
	"github.com/sammcj/mcp-pdf-reader/internal/utils/httpclient"
)

const (
	// DefaultMaxFileSize caps how large a PDF we will open (200MB).
	DefaultMaxFileSize = int64(200 * 1024 * 1024)

	// MaxFileSizeEnvVar overrides DefaultMaxFileSize.
	MaxFileSizeEnvVar = "PDF_MAX_FILE_SIZE"
)

// Metadata is the document-level information from the trailer Info
// dictionary. Empty fields are omitted from serialised output.
type Metadata struct {
	Title    string `json:"title,omitempty"`
	Author   string `json:"author,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Creator  string `json:"creator,omitempty"`
	Producer string `json:"producer,omitempty"`
}

// Doc is the handle the tool handlers and the search engine consume.
// Document implements it; tests substitute fakes.
type Doc interface {
	PageCount() int
	PageFragments(ctx context.Context, page int) ([]Fragment, error)
	PageText(ctx context.Context, page int) (string, error)
	Metadata() Metadata
	Outline() ([]outline.RawNode, error)
	Close() error
}

// Document is an open PDF backed by a local file (possibly a temp file
// downloaded from a URL).
type Document struct {
	path    string
	file    *os.File
	reader  *pdf.Reader
	pages   int
	cleanup func()
}

// MaxFileSize returns the configured size cap in bytes.
func MaxFileSize() int64 {
	if s := os.Getenv(MaxFileSizeEnvVar); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil && v > 0 {
			return v
		}
	}
	return DefaultMaxFileSize
}

// OpenPath opens a PDF at an already-confined absolute path.
func OpenPath(path string) (*Document, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("PDF file does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}
	if max := MaxFileSize(); info.Size() > max {
		return nil, fmt.Errorf("PDF file size %d bytes exceeds the %d byte limit (set %s to adjust)",
			info.Size(), max, MaxFileSizeEnvVar)
	}
	return openFile(path, nil)
}

// downloadClient honours the standard proxy environment variables. The
// request context still bounds individual downloads.
var downloadClient = httpclient.NewHTTPClientWithProxy(5 * time.Minute)

// OpenURL downloads a PDF to a temp file and opens it. The temp file
// is removed on Close. ledongthuc/pdf needs a ReadSeeker with a known
// size, so streaming straight from the response body is not an option.
func OpenURL(ctx context.Context, rawURL string) (*Document, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return nil, fmt.Errorf("unsupported URL scheme: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	resp, err := downloadClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %q: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %q: HTTP %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "mcp-pdf-reader-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	removeTemp := func() { _ = os.Remove(tmpPath) }

	max := MaxFileSize()
	written, err := io.Copy(tmp, io.LimitReader(resp.Body, max+1))
	closeErr := tmp.Close()
	if err != nil {
		removeTemp()
		return nil, fmt.Errorf("failed to download %q: %w", rawURL, err)
	}
	if closeErr != nil {
		removeTemp()
		return nil, fmt.Errorf("failed to write temp file: %w", closeErr)
	}
	if written > max {
		removeTemp()
		return nil, fmt.Errorf("remote PDF %q exceeds the %d byte limit (set %s to adjust)",
			rawURL, max, MaxFileSizeEnvVar)
	}

	doc, err := openFile(tmpPath, removeTemp)
	if err != nil {
		removeTemp()
		return nil, err
	}
	return doc, nil
}

func openFile(path string, cleanup func()) (*Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF %s: %w", path, err)
	}
	return &Document{
		path:    path,
		file:    f,
		reader:  reader,
		pages:   reader.NumPage(),
		cleanup: cleanup,
	}, nil
}

// PageCount returns the number of pages in the document.
func (d *Document) PageCount() int { return d.pages }

// Path returns the backing file path (a temp file for URL sources).
func (d *Document) Path() string { return d.path }

// PageFragments extracts the given 1-based page as word fragments in
// reading order.
func (d *Document) PageFragments(ctx context.Context, page int) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page < 1 || page > d.pages {
		return nil, fmt.Errorf("page %d out of range (document has %d pages)", page, d.pages)
	}

	p := d.reader.Page(page)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d has no content", page)
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("failed to extract text from page %d: %w", page, err)
	}
	return fragmentsFromRows(rows), nil
}

// PageText returns the page's flat text: fragments joined with single
// spaces, the same join the search engine indexes against.
func (d *Document) PageText(ctx context.Context, page int) (string, error) {
	frags, err := d.PageFragments(ctx, page)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, " "), nil
}

// Metadata reads the trailer Info dictionary. Missing entries come
// back empty; a document without an Info dictionary yields the zero
// Metadata.
func (d *Document) Metadata() Metadata {
	info := d.reader.Trailer().Key("Info")
	if info.IsNull() {
		return Metadata{}
	}
	return Metadata{
		Title:    info.Key("Title").Text(),
		Author:   info.Key("Author").Text(),
		Subject:  info.Key("Subject").Text(),
		Creator:  info.Key("Creator").Text(),
		Producer: info.Key("Producer").Text(),
	}
}

// Outline reads the document's bookmark tree via pdfcpu and adapts it
// to the outline walker's raw-node form. Destination page indices are
// 0-based; the walker applies the 1-based adjustment.
func (d *Document) Outline() ([]outline.RawNode, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen PDF for outline extraction: %w", err)
	}
	defer func() { _ = f.Close() }()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	bms, err := api.Bookmarks(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}
	return rawNodesFromBookmarks(bms), nil
}

// Close releases the underlying file and removes any temp download.
func (d *Document) Close() error {
	err := d.file.Close()
	if d.cleanup != nil {
		d.cleanup()
	}
	return err
}
