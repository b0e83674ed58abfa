package core

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gg7/gentoostats/internal/types"
	"github.com/gg7/gentoostats/internal/version"
)

// maxResponseBytes bounds how much of a collector answer is read.
const maxResponseBytes = 1 << 20

// Transport posts an encoded submission to the collector and returns the
// response body.
type Transport interface {
	Post(ctx context.Context, url string, body []byte) ([]byte, error)
}

// HTTPTransport is the net/http Transport.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds an HTTPTransport. caFile adds a trusted root and
// insecure skips certificate verification.
func NewHTTPTransport(caFile string, insecure bool, timeout time.Duration) (*HTTPTransport, error) {
	client, err := buildHTTPClient(caFile, insecure, timeout)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{client: client}, nil
}

func buildHTTPClient(caFile string, insecure bool, timeout time.Duration) (*http.Client, error) {
	tlsConfig := &tls.Config{InsecureSkipVerify: insecure} //nolint:gosec
	if caFile != "" {
		caCertPool, err := x509.SystemCertPool()
		if err != nil || caCertPool == nil {
			caCertPool = x509.NewCertPool()
		}
		caData, err := os.ReadFile(caFile)
		if err != nil {
			return nil, NewConfigurationError(caFile, "cannot read CA file", err).
				WithFix("Point ca_file in gentoostats.yml at a readable PEM bundle, or remove it to use the system roots")
		}
		if !caCertPool.AppendCertsFromPEM(caData) {
			return nil, NewConfigurationError(caFile, "no PEM certificates found", nil).
				WithFix("ca_file must contain at least one PEM-encoded CERTIFICATE block")
		}
		tlsConfig.RootCAs = caCertPool
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: tlsConfig,
		},
	}, nil
}

// Post implements Transport. Non-2xx answers become a SubmitError.
func (t *HTTPTransport) Post(ctx context.Context, target string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post report: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return respBody, NewSubmitError(target, resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// SubmitOptions selects the collector endpoint.
type SubmitOptions struct {
	Server  string
	URL     string
	SSL     bool
	Pretend bool
}

// SubmitResult describes one submission attempt.
type SubmitResult struct {
	URL      string
	Body     []byte
	Response []byte
}

// SubmitService encodes a report with credentials and hands it to a Transport.
type SubmitService struct {
	transport Transport
	ui        UICallback
}

// NewSubmitService creates a SubmitService. transport may be nil when only
// pretend submissions are made.
func NewSubmitService(transport Transport, ui UICallback) *SubmitService {
	if ui == nil {
		ui = &SilentUICallback{}
	}
	return &SubmitService{transport: transport, ui: ui}
}

// SubmitURL joins server and path into the upload endpoint. The path always
// ends with a slash.
func SubmitURL(server, path string, ssl bool) string {
	scheme := "http"
	if ssl {
		scheme = "https"
	}
	path = "/" + strings.Trim(path, "/") + "/"
	if path == "//" {
		path = "/"
	}
	return (&url.URL{Scheme: scheme, Host: server, Path: path}).String()
}

// Submit encodes report and auth and posts them unless opts.Pretend is set.
// The encoded body is returned in both cases.
func (s *SubmitService) Submit(ctx context.Context, report *types.Report, auth types.AuthConfig, opts SubmitOptions) (SubmitResult, error) {
	if auth.UUID == "" || auth.Passwd == "" {
		return SubmitResult{}, ErrNoCredentials
	}
	if !opts.SSL && opts.Server == types.DefaultServer {
		s.ui.ShowWarning("SSL disabled",
			fmt.Sprintf("%s is the HTTPS port; you may want to use %s", opts.Server, types.DefaultServerNoSSL))
	}

	result := SubmitResult{URL: SubmitURL(opts.Server, opts.URL, opts.SSL)}

	body, err := SerializeReport(&types.Submission{Report: report, Auth: &auth}, false)
	if err != nil {
		return result, err
	}
	result.Body = body

	if opts.Pretend {
		return result, nil
	}
	if s.transport == nil {
		return result, errors.New("no transport configured")
	}

	resp, err := s.transport.Post(ctx, result.URL, body)
	result.Response = resp
	if err != nil {
		return result, err
	}
	return result, nil
}

// isNetworkError reports whether err came from the network layer rather than
// from the collector's answer.
func isNetworkError(err error) bool {
	if err == nil || IsSubmitError(err) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
