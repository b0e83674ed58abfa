package core

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gg7/gentoostats/internal/testutil"
	"github.com/gg7/gentoostats/internal/types"
	"github.com/golang/mock/gomock"
)

var testAuth = types.AuthConfig{UUID: "0b7f5c1e-0000-4000-8000-000000000001", Passwd: "hunter2"}

func sampleReport() *types.Report {
	report := types.NewReport()
	report.Env["ARCH"] = types.TextValue("amd64")
	report.Packages = map[string]types.PackageRecord{
		"dev-lang/python-3.11": {Repo: types.Some("gentoo")},
	}
	return report
}

// recordingUI captures warnings for assertions.
type recordingUI struct {
	SilentUICallback
	warnings []string
}

func (r *recordingUI) ShowWarning(title, message string) {
	r.warnings = append(r.warnings, title+": "+message)
}

func TestSubmitURL(t *testing.T) {
	tests := []struct {
		server string
		path   string
		ssl    bool
		want   string
	}{
		{"soc.dev.gentoo.org:443", "/upload/", true, "https://soc.dev.gentoo.org:443/upload/"},
		{"soc.dev.gentoo.org:80", "/upload", false, "http://soc.dev.gentoo.org:80/upload/"},
		{"localhost:5000", "upload", false, "http://localhost:5000/upload/"},
		{"localhost:5000", "", true, "https://localhost:5000/"},
		{"localhost:5000", "/a/b//", true, "https://localhost:5000/a/b/"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := SubmitURL(tt.server, tt.path, tt.ssl); got != tt.want {
				t.Errorf("SubmitURL(%q, %q, %v) = %q, want %q", tt.server, tt.path, tt.ssl, got, tt.want)
			}
		})
	}
}

// TestSubmit_PostsReportWithAuth verifies the wire body carries the report
// keys and the credentials under AUTH.
func TestSubmit_PostsReportWithAuth(t *testing.T) {
	var gotBody map[string]json.RawMessage
	var gotContentType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/" {
			http.Error(w, "unexpected request", http.StatusNotFound)
			return
		}
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	transport, err := NewHTTPTransport("", false, 5*time.Second)
	testutil.AssertNoError(t, err, "NewHTTPTransport")

	svc := NewSubmitService(transport, nil)
	result, err := svc.Submit(context.Background(), sampleReport(), testAuth, SubmitOptions{
		Server: strings.TrimPrefix(srv.URL, "http://"),
		URL:    "upload",
		SSL:    false,
	})
	testutil.AssertNoError(t, err, "Submit")

	if string(result.Response) != "OK" {
		t.Errorf("response = %q, want OK", result.Response)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q", gotContentType)
	}
	for _, key := range []string{"PROTOCOL", "ENV", "PACKAGES", "AUTH"} {
		if _, ok := gotBody[key]; !ok {
			t.Errorf("body missing %s", key)
		}
	}

	var auth types.AuthConfig
	testutil.AssertNoError(t, json.Unmarshal(gotBody["AUTH"], &auth), "decode AUTH")
	testutil.AssertEqual(t, auth, testAuth, "AUTH")
}

func TestSubmit_RejectedIsSubmitError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad password", http.StatusUnauthorized)
	}))
	defer srv.Close()

	transport, err := NewHTTPTransport("", false, 5*time.Second)
	testutil.AssertNoError(t, err, "NewHTTPTransport")

	_, err = NewSubmitService(transport, nil).Submit(context.Background(), sampleReport(), testAuth, SubmitOptions{
		Server: strings.TrimPrefix(srv.URL, "http://"),
		URL:    "/upload/",
	})

	var submitErr *SubmitError
	if !errors.As(err, &submitErr) {
		t.Fatalf("expected SubmitError, got %v", err)
	}
	if submitErr.StatusCode != http.StatusUnauthorized || !strings.Contains(submitErr.Body, "bad password") {
		t.Errorf("unexpected SubmitError %+v", submitErr)
	}
	if CLIExitCodeForError(err) != ExitNetworkError || CLIErrorCodeForError(err) != ErrCodeSubmitRejected {
		t.Errorf("unexpected exit mapping for %v", err)
	}
}

func TestSubmit_UnreachableIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	transport, err := NewHTTPTransport("", false, 2*time.Second)
	testutil.AssertNoError(t, err, "NewHTTPTransport")

	_, err = NewSubmitService(transport, nil).Submit(context.Background(), sampleReport(), testAuth, SubmitOptions{
		Server: addr,
		URL:    "/upload/",
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !isNetworkError(err) {
		t.Errorf("expected network error, got %v", err)
	}
	if CLIErrorCodeForError(err) != ErrCodeNetworkError {
		t.Errorf("error code = %s", CLIErrorCodeForError(err))
	}
}

func TestSubmit_PretendSkipsTransport(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := NewMockTransport(ctrl)
	transport.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	result, err := NewSubmitService(transport, nil).Submit(context.Background(), sampleReport(), testAuth, SubmitOptions{
		Server:  types.DefaultServer,
		URL:     types.DefaultUploadURL,
		SSL:     true,
		Pretend: true,
	})
	testutil.AssertNoError(t, err, "Submit")
	if !strings.Contains(string(result.Body), `"AUTH":{"UUID":"`) {
		t.Errorf("body should carry AUTH: %s", result.Body)
	}
	if result.URL != "https://soc.dev.gentoo.org:443/upload/" {
		t.Errorf("URL = %s", result.URL)
	}
}

func TestSubmit_MissingCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := NewMockTransport(ctrl)
	transport.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := NewSubmitService(transport, nil).Submit(context.Background(), sampleReport(), types.AuthConfig{UUID: "x"}, SubmitOptions{})
	if !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestSubmit_WarnsWhenSSLDisabledOnHTTPSPort(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := NewMockTransport(ctrl)
	transport.EXPECT().
		Post(gomock.Any(), "http://soc.dev.gentoo.org:443/upload/", gomock.Any()).
		Return([]byte("OK"), nil)

	ui := &recordingUI{}
	_, err := NewSubmitService(transport, ui).Submit(context.Background(), sampleReport(), testAuth, SubmitOptions{
		Server: types.DefaultServer,
		URL:    types.DefaultUploadURL,
		SSL:    false,
	})
	testutil.AssertNoError(t, err, "Submit")

	if len(ui.warnings) != 1 || !strings.Contains(ui.warnings[0], types.DefaultServerNoSSL) {
		t.Errorf("expected one warning naming %s, got %v", types.DefaultServerNoSSL, ui.warnings)
	}
}

func TestNewHTTPTransport_BadCAFile(t *testing.T) {
	dir := t.TempDir()
	ca := testutil.WriteFile(t, dir, "ca.pem", "not a certificate")

	_, err := NewHTTPTransport(ca, false, time.Second)
	if !IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	_, err = NewHTTPTransport(dir+"/missing.pem", false, time.Second)
	if !IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError for missing file, got %v", err)
	}
}

func TestSerializeReport(t *testing.T) {
	compact, err := SerializeReport(sampleReport(), false)
	testutil.AssertNoError(t, err, "compact")
	want := `{"PROTOCOL":2,"ENV":{"ARCH":"amd64"},"PACKAGES":{"dev-lang/python-3.11":{"REPO":"gentoo"}}}`
	if string(compact) != want {
		t.Errorf("compact = %s\nwant      %s", compact, want)
	}

	human, err := SerializeReport(sampleReport(), true)
	testutil.AssertNoError(t, err, "human")
	if !strings.Contains(string(human), "\n  \"ENV\": {\n    \"ARCH\": \"amd64\"") {
		t.Errorf("human form not indented:\n%s", human)
	}
	if strings.HasSuffix(string(human), "\n") {
		t.Error("trailing newline should be trimmed")
	}
}
