// Package registry loads and caches the DART corp-code registry: the
// mapping of company identifier to display name and stock code.
package registry

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/dartlab/divcollect/internal/model"
)

// ErrUnavailable is returned when the remote fetch fails and no cached
// copy exists to fall back to.
var ErrUnavailable = eris.New("registry: remote unavailable and no cache on disk")

// Error is an explicit error status reported by the corp-code API.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("registry: api error %s: %s", e.Code, e.Message)
}

// Client fetches the corp-code payload. Satisfied by *dart.Client.
type Client interface {
	Get(ctx context.Context, url string) ([]byte, error)
	CorpCodeURL() string
}

// Cache loads the registry from a TTL'd disk cache, refreshing from the
// remote endpoint when the cache is stale or a refresh is forced.
type Cache struct {
	client Client
	path   string
	maxAge time.Duration
}

// NewCache creates a Cache persisting to path with the given max age.
func NewCache(client Client, path string, maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	return &Cache{client: client, path: path, maxAge: maxAge}
}

// Load returns the full company list. A cached file younger than the max
// age is used directly unless forceRefresh is set. On remote failure the
// stale cache, if any, is served; otherwise ErrUnavailable.
func (c *Cache) Load(ctx context.Context, forceRefresh bool) ([]model.Company, error) {
	if !forceRefresh && c.fresh() {
		return c.loadFile()
	}

	raw, err := c.client.Get(ctx, c.client.CorpCodeURL())
	if err != nil {
		if _, statErr := os.Stat(c.path); statErr == nil {
			zap.L().Warn("registry: remote fetch failed, using stale cache",
				zap.String("path", c.path),
				zap.Error(err),
			)
			return c.loadFile()
		}
		return nil, eris.Wrap(err, ErrUnavailable.Error())
	}

	payload, err := extractPayload(raw)
	if err != nil {
		return nil, err
	}

	companies, err := Parse(payload)
	if err != nil {
		// Explicit API errors propagate; anything else falls back to
		// the cache the same way a transport failure does.
		var apiErr *Error
		if eris.As(err, &apiErr) {
			return nil, err
		}
		if _, statErr := os.Stat(c.path); statErr == nil {
			zap.L().Warn("registry: payload unparseable, using stale cache", zap.Error(err))
			return c.loadFile()
		}
		return nil, err
	}

	if err := writeAtomic(c.path, payload); err != nil {
		return nil, err
	}

	zap.L().Info("registry: refreshed", zap.Int("companies", len(companies)))
	return companies, nil
}

func (c *Cache) fresh() bool {
	info, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < c.maxAge
}

func (c *Cache) loadFile() ([]model.Company, error) {
	raw, err := os.ReadFile(c.path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read cache")
	}
	return Parse(raw)
}

var zipSignature = []byte("PK\x03\x04")

// extractPayload normalizes the remote response to the bare XML payload.
// The endpoint answers with either the XML directly or a zip archive
// containing it; the declared content type is unreliable, so the payload
// signature decides.
func extractPayload(raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, zipSignature) {
		return raw, nil
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, eris.Wrap(err, "registry: open zip payload")
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, eris.Wrap(err, "registry: open zip entry")
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, eris.Wrap(err, "registry: read zip entry")
		}
		return data, nil
	}
	return nil, eris.New("registry: zip payload contains no files")
}

type corpItem struct {
	CorpCode  string `xml:"corp_code"`
	CorpName  string `xml:"corp_name"`
	StockCode string `xml:"stock_code"`
}

// corpPayload captures both observed document shapes: items may sit under
// a <list> wrapper or directly under the root, and a singleton result is
// just a one-element sequence either way.
type corpPayload struct {
	Status  string     `xml:"status"`
	Message string     `xml:"message"`
	Wrapped []corpItem `xml:"list>item"`
	Bare    []corpItem `xml:"item"`
}

// Parse normalizes a corp-code XML payload of either shape into a company
// list, keeping only listed entities (well-formed 6-digit stock codes).
func Parse(raw []byte) ([]model.Company, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := htmlindex.Get(charset)
		if err != nil {
			return nil, eris.Wrapf(err, "registry: unsupported charset %q", charset)
		}
		return enc.NewDecoder().Reader(input), nil
	}

	var doc corpPayload
	if err := dec.Decode(&doc); err != nil {
		return nil, eris.Wrap(err, "registry: decode corp-code xml")
	}

	if doc.Status != "" && doc.Status != "000" {
		return nil, &Error{Code: doc.Status, Message: doc.Message}
	}

	items := doc.Wrapped
	if len(items) == 0 {
		items = doc.Bare
	}

	companies := make([]model.Company, 0, len(items))
	for _, it := range items {
		code := strings.TrimSpace(it.StockCode)
		if !isStockCode(code) {
			continue
		}
		companies = append(companies, model.Company{
			CorpCode:  strings.TrimSpace(it.CorpCode),
			CorpName:  strings.TrimSpace(it.CorpName),
			StockCode: code,
		})
	}
	return companies, nil
}

func isStockCode(s string) bool {
	if len(s) != 6 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// writeAtomic replaces path with data via a temp file and rename, so a
// crash never leaves a half-written cache.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "registry: create cache dir")
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "registry: create temp file")
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "registry: write temp file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "registry: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return eris.Wrap(err, "registry: replace cache file")
	}
	return nil
}
