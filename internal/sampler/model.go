package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// DownloadModel fetches the model weights into dir (the configured model
// directory when empty) and returns the written file path. The file is
// written under a temporary name and renamed once complete.
func (s *ImageToVideo) DownloadModel(ctx context.Context, dir string) (string, error) {
	return s.DownloadModelWith(ctx, http.DefaultClient, dir)
}

// DownloadModelWith is DownloadModel over a caller-provided base client.
func (s *ImageToVideo) DownloadModelWith(ctx context.Context, base *http.Client, dir string) (string, error) {
	if s == nil {
		return "", errors.New("sampler not initialized")
	}
	if strings.TrimSpace(dir) == "" {
		dir = s.cfg.ModelDir
	}
	if strings.TrimSpace(dir) == "" {
		dir = DefaultModels
	}
	if base == nil {
		base = http.DefaultClient
	}
	client := base
	if token := strings.TrimSpace(s.cfg.HFToken); token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ModelURL, nil)
	if err != nil {
		return "", fmt.Errorf("build model request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download model: unexpected status %s", resp.Status)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	target := filepath.Join(dir, ModelFile)
	partial := filepath.Join(dir, ModelFile+"."+uuid.NewString()+".part")
	file, err := os.Create(partial)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", partial, err)
	}
	written, err := io.Copy(file, resp.Body)
	if err != nil {
		_ = file.Close()
		_ = os.Remove(partial)
		return "", fmt.Errorf("write %s: %w", partial, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("close %s: %w", partial, err)
	}
	if err := os.Rename(partial, target); err != nil {
		_ = os.Remove(partial)
		return "", fmt.Errorf("rename %s: %w", partial, err)
	}
	s.logger.Info("model downloaded", "path", target, "bytes", written)
	return target, nil
}
