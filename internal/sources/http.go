package sources

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/samber/lo"
	"github.com/spf13/afero"

	"github.com/pkgtool/pkgtool/internal/engine"
)

const (
	HTTPSourceKind     = "http"
	DefaultHTTPTimeout = 30 * time.Second
)

var (
	defaultHeaders = map[string]string{
		"User-Agent": "pkgtool/0.1.0",
	}
)

type HTTPSourceConfig struct {
	URL      string
	Name     string
	Headers  map[string]string
	Timeout  time.Duration
	Insecure bool
}

type HTTPSource struct {
	id         string
	url        *url.URL
	fileName   string
	headers    map[string]string
	httpClient *http.Client
}

type HTTPSourceOption func(*HTTPSource)

func WithHTTPClient(httpClient *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		s.httpClient = httpClient
	}
}

// NewHTTPSource downloads cfg.URL into the run directory. The file is named
// cfg.Name, or the last element of the URL path when Name is empty.
func NewHTTPSource(id string, cfg HTTPSourceConfig, opts ...HTTPSourceOption) (*HTTPSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url '%s': %w", cfg.URL, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("url must use http or https scheme, got: %s", parsedURL.Scheme)
	}

	fileName := cfg.Name
	if fileName == "" {
		fileName = path.Base(parsedURL.Path)
		if fileName == "/" || fileName == "." {
			return nil, fmt.Errorf("url '%s' has no file name, set name explicitly", cfg.URL)
		}
	}
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}

	source := &HTTPSource{
		id:       id,
		url:      parsedURL,
		fileName: fileName,
		headers:  lo.Assign(defaultHeaders, cfg.Headers),
	}

	for _, opt := range opts {
		opt(source)
	}

	if source.httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultHTTPTimeout
		}

		transport := cleanhttp.DefaultPooledTransport()
		if cfg.Insecure {
			if transport.TLSClientConfig == nil {
				transport.TLSClientConfig = &tls.Config{}
			}

			transport.TLSClientConfig.InsecureSkipVerify = true
		}

		source.httpClient = &http.Client{
			Transport: transport,
			Timeout:   timeout,
		}
	}

	return source, nil
}

func (s *HTTPSource) Name() string {
	return fmt.Sprintf("%s(%s)", HTTPSourceKind, s.url.Host)
}

func (s *HTTPSource) Kind() string {
	return HTTPSourceKind
}

func (s *HTTPSource) Fetch(ctx context.Context, fs afero.Fs, dir string) (_ engine.Artifact, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url.String(), nil)
	if err != nil {
		return engine.Artifact{}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return engine.Artifact{}, fmt.Errorf("failed to download %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return engine.Artifact{}, fmt.Errorf("failed to download %s: unexpected status %s", s.url, resp.Status)
	}

	target := filepath.Join(dir, s.fileName)
	f, err := fs.Create(target)
	if err != nil {
		return engine.Artifact{}, fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return engine.Artifact{}, fmt.Errorf("failed to write %s: %w", target, err)
	}

	return engine.Artifact{Path: target}, nil
}
