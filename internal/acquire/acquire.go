// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package acquire downloads the sample DICOM dataset and writes the dcm2bids
// conversion configuration under a project root.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/fmri2bids/internal/httputil"
	"github.com/pdiddy/fmri2bids/internal/logger"
	"github.com/pdiddy/fmri2bids/pkg/types"
)

const (
	sourceDataDir  = "sourcedata"
	tmpDir         = "tmp"
	datasetDir     = "dcm_qa_nih"
	subjectsSubdir = "In"
	configFile     = "dcm2bids_config.json"

	// archiveFile and archiveFolder follow GitHub's branch-archive naming.
	archiveFile   = "dcm_qa_nih-master.zip"
	archiveFolder = "dcm_qa_nih-master"
)

// DefaultDatasetURL is the dcm2bids tutorial dataset.
const DefaultDatasetURL = "https://github.com/neurolabusc/dcm_qa_nih/archive/refs/heads/master.zip"

// ErrArchiveLayout reports that the extracted archive does not contain the
// expected top-level folder.
var ErrArchiveLayout = errors.New("unexpected archive layout")

// Paths are the locations the acquisition step manages under a root.
type Paths struct {
	SourceData string
	Tmp        string
	Dataset    string
	SubsDir    string
	ConfigFile string
}

// PathsFor derives the acquisition paths from root.
func PathsFor(root string) Paths {
	src := filepath.Join(root, sourceDataDir)
	ds := filepath.Join(src, datasetDir)
	return Paths{
		SourceData: src,
		Tmp:        filepath.Join(root, tmpDir),
		Dataset:    ds,
		SubsDir:    filepath.Join(ds, subjectsSubdir),
		ConfigFile: filepath.Join(src, configFile),
	}
}

// Acquire ensures the sample dataset exists under cfg.RootDir and rewrites the
// conversion configuration. The dataset is downloaded only when its directory
// is missing; the tmp directory is removed before returning in every case.
func Acquire(ctx context.Context, client *http.Client, cfg types.AcquisitionConfig, w io.Writer) (res types.AcquisitionResult, err error) {
	if cfg.RootDir == "" {
		return res, fmt.Errorf("acquire: root directory is required")
	}
	log := logger.FromContext(ctx).With(zap.String("root", cfg.RootDir))
	p := PathsFor(cfg.RootDir)

	for _, dir := range []string{p.SourceData, p.Tmp} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	defer func() {
		if rmErr := os.RemoveAll(p.Tmp); rmErr != nil && err == nil {
			err = fmt.Errorf("removing %s: %w", p.Tmp, rmErr)
		}
	}()

	present, err := isDir(p.Dataset)
	if err != nil {
		return res, err
	}
	if present {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", datasetDir)
		log.Debug("dataset present, download skipped", zap.String("dataset", p.Dataset))
	} else {
		if err := fetchDataset(ctx, client, cfg, p, w); err != nil {
			return res, err
		}
		res.Downloaded = true
	}

	if err := WriteConfig(p.ConfigFile); err != nil {
		return res, err
	}
	fmt.Fprintf(w, "wrote config: %s\n", p.ConfigFile)

	res.SubsDir = p.SubsDir
	res.ConfigFilePath = p.ConfigFile
	return res, nil
}

// fetchDataset downloads the archive into tmp/, extracts it there, and moves
// the top-level folder into place.
func fetchDataset(ctx context.Context, client *http.Client, cfg types.AcquisitionConfig, p Paths, w io.Writer) error {
	url := cfg.DatasetURL
	if url == "" {
		url = DefaultDatasetURL
	}
	log := logger.FromContext(ctx)

	fmt.Fprintf(w, "downloading: %s\n", url)
	zipPath := filepath.Join(p.Tmp, archiveFile)
	n, err := downloadFile(ctx, client, url, zipPath, cfg)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", url, err)
	}
	log.Info("archive downloaded", zap.String("url", url), zap.Int64("bytes", n))
	recordDownload(ctx, n)

	files, err := extractZip(zipPath, p.Tmp)
	if err != nil {
		return fmt.Errorf("extracting %s: %w", zipPath, err)
	}
	log.Debug("archive extracted", zap.Int("files", files))

	src := filepath.Join(p.Tmp, archiveFolder)
	if ok, err := isDir(src); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s not found in archive", ErrArchiveLayout, archiveFolder)
	}
	if err := os.Rename(src, p.Dataset); err != nil {
		return fmt.Errorf("moving %s to %s: %w", src, p.Dataset, err)
	}
	fmt.Fprintf(w, "extracted: %s (%d files)\n", datasetDir, files)
	return nil
}

// downloadFile fetches url to destPath using a temporary file and returns the
// number of bytes written.
func downloadFile(ctx context.Context, client *http.Client, url, destPath string, cfg types.AcquisitionConfig) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "application/zip")

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return 0, fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".acquire-*.tmp")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	n, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, fmt.Errorf("renaming temp file: %w", err)
	}
	return n, nil
}

// isDir reports whether path exists and is a directory. An existing
// non-directory is an error.
func isDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", path, err)
	}
	if !info.IsDir() {
		return false, fmt.Errorf("%s exists and is not a directory", path)
	}
	return true, nil
}
