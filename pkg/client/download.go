package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DownloadTo saves the file content of id into dir under the name the server
// reports, falling back to id. An existing file is never overwritten; a
// " (n)" suffix is added instead. It returns the path written.
func (c *Client) DownloadTo(ctx context.Context, id, dir string) (string, error) {
	if err := validateID(id); err != nil {
		return "", fmt.Errorf("client.DownloadTo: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("client.DownloadTo: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("client.DownloadTo: %w", err)
	}
	dl, err := c.Download(ctx, id, tmp)
	closeErr := tmp.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("client.DownloadTo: close: %w", closeErr)
	}
	if err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return "", err
	}

	name := safeFilename(dl.Filename)
	if name == "" {
		name = id
	}
	dest := uniquePath(dir, name)
	if err := os.Rename(tmp.Name(), dest); err != nil {
		os.Remove(tmp.Name()) //nolint:errcheck // best-effort cleanup
		return "", fmt.Errorf("client.DownloadTo: rename: %w", err)
	}
	return dest, nil
}

// safeFilename keeps only the last path element of a server-supplied name.
func safeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "." || name == ".." {
		return ""
	}
	return name
}

func uniquePath(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		p = filepath.Join(dir, stem+" ("+strconv.Itoa(i)+")"+ext)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p
		}
	}
}
