package cli

import (
	"bytes"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// fzfAvailable reports whether fzf is on PATH.
func fzfAvailable() bool {
	_, err := exec.LookPath("fzf")
	return err == nil
}

// SelectWithFzf shows items in fzf and returns the part of the chosen line before the
// first ':'.
func SelectWithFzf(items []string) (string, error) {
	cmd := exec.Command("fzf", "--height", "40%", "--border")
	cmd.Stdin = strings.NewReader(strings.Join(items, "\n") + "\n")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf: %w", err)
	}
	name, _, _ := strings.Cut(strings.TrimSpace(out.String()), ":")
	if name = strings.TrimSpace(name); name == "" {
		return "", fmt.Errorf("nothing selected")
	}
	return name, nil
}

// SelectFileWithFzf lists image files under startDir in fzf with a terminal-aware preview
// and returns the selected path. Requires find, bash and fzf.
func SelectFileWithFzf(startDir string) (string, error) {
	previewCmd := "chafa --fill=block --symbols=block -s 80x40 {} 2>/dev/null"
	switch {
	case isKitty():
		previewCmd = "kitty +kitten icat --silent {} 2>/dev/null || " + previewCmd
	case isInlineImageCapable():
		previewCmd = "imgcat {} 2>/dev/null || " + previewCmd
	}
	cmdStr := fmt.Sprintf(
		"find %s -type f \\( -iname '*.jpg' -o -iname '*.jpeg' -o -iname '*.png' -o -iname '*.gif' -o -iname '*.webp' -o -iname '*.bmp' -o -iname '*.tif' -o -iname '*.tiff' \\) | fzf --height 100%% --border --prompt='Files> ' --preview=%q --preview-window='right:60%%'",
		strconv.Quote(startDir),
		previewCmd,
	)
	cmd := exec.Command("bash", "-lc", cmdStr)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running fzf for files: %w", err)
	}
	selection := strings.TrimSpace(out.String())
	if selection == "" {
		return "", fmt.Errorf("no file selected")
	}
	return selection, nil
}
