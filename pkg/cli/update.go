package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/blang/semver"
	"github.com/rhysd/go-github-selfupdate/selfupdate"
)

// UpdateRepo is the GitHub repository releases are fetched from.
const UpdateRepo = "Fepozopo/tokenmaker"

var releasesAPI = "https://api.github.com/repos/%s/releases"

var semverRe = regexp.MustCompile(`v?\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?(\+[0-9A-Za-z.-]+)?`)

type githubRelease struct {
	TagName    string `json:"tag_name"`
	Name       string `json:"name"`
	Draft      bool   `json:"draft"`
	Prerelease bool   `json:"prerelease"`
	Assets     []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// latestRelease returns the published, non-prerelease release with the highest semver
// found in its tag or name. It returns (nil, nil) when there is none.
func latestRelease(ctx context.Context, repo string) (*selfupdate.Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(releasesAPI, repo), nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading github response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github API returned status %d: %s", resp.StatusCode, string(body))
	}

	var releases []githubRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("failed to decode github releases: %w", err)
	}

	var candidates []selfupdate.Release
	for _, r := range releases {
		if r.Draft || r.Prerelease {
			continue
		}
		v, ok := releaseVersion(r)
		if !ok {
			continue
		}
		candidates = append(candidates, selfupdate.Release{
			Version:  v,
			AssetURL: pickAsset(r),
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Version.GT(candidates[j].Version)
	})
	return &candidates[0], nil
}

func releaseVersion(r githubRelease) (semver.Version, bool) {
	match := semverRe.FindString(r.TagName)
	if match == "" {
		match = semverRe.FindString(r.Name)
	}
	if match == "" {
		return semver.Version{}, false
	}
	v, err := semver.Parse(strings.TrimPrefix(match, "v"))
	if err != nil {
		return semver.Version{}, false
	}
	return v, true
}

// pickAsset prefers an asset built for this platform, then any binary-looking asset, then
// the first one.
func pickAsset(r githubRelease) string {
	first, binary := "", ""
	for _, a := range r.Assets {
		name := strings.ToLower(a.Name)
		if first == "" {
			first = a.BrowserDownloadURL
		}
		if strings.Contains(name, runtime.GOOS) && strings.Contains(name, runtime.GOARCH) {
			return a.BrowserDownloadURL
		}
		if binary == "" {
			for _, hint := range []string{"darwin", "linux", "windows", "amd64", "arm64"} {
				if strings.Contains(name, hint) {
					binary = a.BrowserDownloadURL
					break
				}
			}
		}
	}
	if binary != "" {
		return binary
	}
	return first
}

// CheckForUpdates compares Version with the latest GitHub release and, when confirm
// agrees, replaces the running executable. Progress is written to w.
func CheckForUpdates(ctx context.Context, w io.Writer, confirm func(prompt string) (bool, error)) error {
	fmt.Fprintf(w, "Current version: %s\n", Version)
	latest, err := latestRelease(ctx, UpdateRepo)
	if err != nil {
		return fmt.Errorf("update check failed: %w", err)
	}
	if latest == nil {
		fmt.Fprintf(w, "No releases found for %s.\n", UpdateRepo)
		return nil
	}
	fmt.Fprintf(w, "Latest version: %s\n", latest.Version)

	current, perr := semver.Parse(strings.TrimPrefix(Version, "v"))
	if perr != nil {
		slog.Warn("Could not parse current version", "version", Version, "error", perr)
	} else if !latest.Version.GT(current) {
		fmt.Fprintf(w, "You are already running the latest version: %s.\n", current)
		return nil
	}

	if latest.AssetURL == "" {
		fmt.Fprintf(w, "A new version (%s) is available but there is no downloadable asset.\n", latest.Version)
		return nil
	}
	ok, err := confirm(fmt.Sprintf("A new version (%s) is available. Update now? (y/N): ", latest.Version))
	if err != nil {
		return fmt.Errorf("failed reading input: %w", err)
	}
	if !ok {
		fmt.Fprintln(w, "Update cancelled.")
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not locate executable: %w", err)
	}
	slog.Info("Updating", "from", Version, "to", latest.Version.String(), "asset", latest.AssetURL)
	if err := selfupdate.UpdateTo(latest.AssetURL, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}
	fmt.Fprintf(w, "Updated to version %s. Restart tokenmaker to use it.\n", latest.Version)
	return nil
}
