package jsf

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"
)

// Loader fetches a JSF document from a Source.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOption configures the default loader.
type LoaderOption func(*loader)

// WithFS supplies an fs.FS for SourceKindFS sources.
func WithFS(fsys fs.FS) LoaderOption {
	return func(l *loader) {
		l.fsys = fsys
	}
}

// WithHTTPClient overrides the HTTP client used for URL sources.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(l *loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithMaxBytes caps the number of bytes read from any single source.
func WithMaxBytes(limit int64) LoaderOption {
	return func(l *loader) {
		if limit > 0 {
			l.maxBytes = limit
		}
	}
}

type loader struct {
	fsys     fs.FS
	client   *http.Client
	maxBytes int64
}

const defaultMaxBytes = int64(5 << 20)

// NewLoader constructs a loader able to resolve file, fs.FS, and URL sources.
func NewLoader(options ...LoaderOption) Loader {
	l := &loader{
		client:   &http.Client{Timeout: 30 * time.Second},
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(l)
	}
	return l
}

func (l *loader) Load(ctx context.Context, src Source) (Document, error) {
	if ctx == nil {
		return Document{}, errors.New("jsf: context is required")
	}
	if src == nil {
		return Document{}, errors.New("jsf: source is required")
	}

	var (
		raw []byte
		err error
	)
	switch src.Kind() {
	case SourceKindFile:
		raw, err = l.readFile(src.Location())
	case SourceKindFS:
		raw, err = l.readFS(src.Location())
	case SourceKindURL:
		raw, err = l.readURL(ctx, src.Location())
	default:
		return Document{}, fmt.Errorf("jsf: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return Document{}, err
	}

	return NewDocument(src, raw)
}

func (l *loader) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jsf: open %s: %w", path, err)
	}
	defer file.Close()
	return l.readAll(file, path)
}

func (l *loader) readFS(name string) ([]byte, error) {
	if l.fsys == nil {
		return nil, errors.New("jsf: fs source requires WithFS")
	}
	file, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("jsf: open %s: %w", name, err)
	}
	defer file.Close()
	return l.readAll(file, name)
}

func (l *loader) readURL(ctx context.Context, raw string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("jsf: request %s: %w", raw, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jsf: fetch %s: %w", raw, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("jsf: fetch %s: unexpected status %d", raw, resp.StatusCode)
	}
	return l.readAll(resp.Body, raw)
}

func (l *loader) readAll(r io.Reader, location string) ([]byte, error) {
	limited := io.LimitReader(r, l.maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("jsf: read %s: %w", location, err)
	}
	if int64(len(raw)) > l.maxBytes {
		return nil, fmt.Errorf("jsf: document %s exceeds %d bytes", location, l.maxBytes)
	}
	return raw, nil
}
