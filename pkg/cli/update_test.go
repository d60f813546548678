package cli

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
)

func serveReleases(t *testing.T, body string) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/"+UpdateRepo+"/releases" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	old := releasesAPI
	releasesAPI = srv.URL + "/repos/%s/releases"
	t.Cleanup(func() { releasesAPI = old })
}

func setVersion(t *testing.T, v string) {
	t.Helper()
	old := Version
	Version = v
	t.Cleanup(func() { Version = old })
}

func TestLatestReleasePicksHighestPublished(t *testing.T) {
	platform := fmt.Sprintf("tokenmaker_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)
	serveReleases(t, `[
		{"tag_name": "v1.2.0", "assets": [{"name": "notes.txt", "browser_download_url": "https://x/notes"}]},
		{"tag_name": "v2.0.0", "prerelease": true},
		{"tag_name": "v1.10.0", "assets": [
			{"name": "checksums.txt", "browser_download_url": "https://x/sums"},
			{"name": "tokenmaker_plan9_mips.tar.gz", "browser_download_url": "https://x/other"},
			{"name": "`+platform+`", "browser_download_url": "https://x/mine"}
		]},
		{"tag_name": "nightly", "name": "release 1.11.0", "draft": true},
		{"tag_name": "latest"}
	]`)

	rel, err := latestRelease(context.Background(), UpdateRepo)
	if err != nil {
		t.Fatalf("latestRelease: %v", err)
	}
	if rel == nil || rel.Version.String() != "1.10.0" {
		t.Fatalf("release = %+v, want 1.10.0", rel)
	}
	if rel.AssetURL != "https://x/mine" {
		t.Fatalf("asset = %q", rel.AssetURL)
	}
}

func TestLatestReleaseNone(t *testing.T) {
	serveReleases(t, `[]`)
	rel, err := latestRelease(context.Background(), UpdateRepo)
	if err != nil || rel != nil {
		t.Fatalf("latestRelease = %v, %v", rel, err)
	}
}

func TestCheckForUpdatesUpToDate(t *testing.T) {
	serveReleases(t, `[{"tag_name": "v0.3.0"}]`)
	setVersion(t, "0.3.0")
	var out bytes.Buffer
	err := CheckForUpdates(context.Background(), &out, func(string) (bool, error) {
		t.Fatal("should not ask")
		return false, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "already running the latest version") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestCheckForUpdatesDeclined(t *testing.T) {
	serveReleases(t, `[{"tag_name": "v0.4.0", "assets": [{"name": "linux_amd64", "browser_download_url": "https://x/bin"}]}]`)
	setVersion(t, "0.3.0")
	var out bytes.Buffer
	asked := ""
	err := CheckForUpdates(context.Background(), &out, func(p string) (bool, error) {
		asked = p
		return false, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(asked, "0.4.0") {
		t.Fatalf("prompt = %q", asked)
	}
	if !strings.Contains(out.String(), "Update cancelled.") {
		t.Fatalf("output = %q", out.String())
	}
}

func TestCheckForUpdatesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()
	old := releasesAPI
	releasesAPI = srv.URL + "/%s"
	defer func() { releasesAPI = old }()

	err := CheckForUpdates(context.Background(), &bytes.Buffer{}, func(string) (bool, error) { return false, nil })
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("err = %v", err)
	}
}
