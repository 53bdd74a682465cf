package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wb-go/wbf/zlog"

	"github.com/yokitheyo/hordegen/internal/config"
)

type localStorage struct {
	basePath  string
	resultDir string
}

func NewLocalStorage(cfg *config.StorageConfig) (Storage, error) {
	if cfg.LocalPath == "" {
		return nil, fmt.Errorf("LocalPath is empty, set storage.local_path in config or env")
	}
	if cfg.ResultDir == "" {
		cfg.ResultDir = "results"
	}

	storage := &localStorage{
		basePath:  cfg.LocalPath,
		resultDir: cfg.ResultDir,
	}

	if err := os.MkdirAll(filepath.Join(storage.basePath, storage.resultDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create result directory: %w", err)
	}

	return storage, nil
}

func (s *localStorage) SaveResult(ctx context.Context, filename string, reader io.Reader) (string, error) {
	if reader == nil {
		zlog.Logger.Error().Str("filename", filename).Msg("reader is nil")
		return "", fmt.Errorf("reader is nil")
	}

	relativePath := filepath.Join(s.resultDir, filepath.Base(filename))
	fullPath := filepath.Join(s.basePath, relativePath)

	file, err := os.Create(fullPath)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to create file")
		return "", fmt.Errorf("create file %s: %w", fullPath, err)
	}
	defer file.Close()

	written, err := io.Copy(file, reader)
	if err != nil {
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to write file")
		return "", fmt.Errorf("write file %s: %w", fullPath, err)
	}
	if written == 0 {
		zlog.Logger.Error().Str("path", fullPath).Msg("no bytes written to file")
		return "", fmt.Errorf("no bytes written to file %s", fullPath)
	}

	zlog.Logger.Info().
		Str("path", relativePath).
		Int64("bytes", written).
		Msg("result saved")

	return relativePath, nil
}

func (s *localStorage) GetResult(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Error().Str("path", fullPath).Msg("file not found")
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, path)
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to open file")
		return nil, fmt.Errorf("open file %s: %w", fullPath, err)
	}

	return file, nil
}

func (s *localStorage) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}

	fullPath, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			zlog.Logger.Warn().Str("path", fullPath).Msg("file not found, skipping delete")
			return nil
		}
		zlog.Logger.Error().Err(err).Str("path", fullPath).Msg("failed to delete file")
		return fmt.Errorf("delete file %s: %w", fullPath, err)
	}

	zlog.Logger.Info().Str("path", path).Msg("file deleted successfully")
	return nil
}

// resolve maps a stored relative path to a file under basePath.
func (s *localStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: invalid path %q", ErrObjectNotFound, path)
	}
	return filepath.Join(s.basePath, clean), nil
}
