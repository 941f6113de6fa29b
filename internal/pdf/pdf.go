// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf wraps pdfcpu for the page-level access the figure description
// flow needs: validation, page counting, and per-page image extraction.
package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrInvalidPDF means the file is not a parseable PDF.
var ErrInvalidPDF = errors.New("invalid PDF")

// imageExtensions are the suffixes pdfcpu writes for extracted images.
var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".tif": true, ".tiff": true,
}

// Validate checks that the file at path is a well-formed PDF.
func Validate(path string) error {
	if err := api.ValidateFile(path, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return nil
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: counting pages in %s: %v", ErrInvalidPDF, path, err)
	}
	return n, nil
}

// PageImage is one embedded image extracted from a PDF page.
type PageImage struct {
	// Page is the 1-based page number the image came from.
	Page int

	// Path is the extracted image file on disk.
	Path string
}

// ExtractImages pulls every embedded image out of the PDF at path into
// per-page subdirectories of outDir and returns them ordered by page, then
// by filename. Pages without images contribute nothing. The caller owns
// outDir and its cleanup.
func ExtractImages(path, outDir string) ([]PageImage, error) {
	pages, err := PageCount(path)
	if err != nil {
		return nil, err
	}

	var images []PageImage
	for p := 1; p <= pages; p++ {
		pageDir := filepath.Join(outDir, "page-"+strconv.Itoa(p))
		if err := os.MkdirAll(pageDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating image directory %s: %w", pageDir, err)
		}

		if err := api.ExtractImagesFile(path, pageDir, []string{strconv.Itoa(p)}, nil); err != nil {
			return nil, fmt.Errorf("extracting images from page %d of %s: %w", p, path, err)
		}

		found, err := listImages(pageDir)
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			images = append(images, PageImage{Page: p, Path: f})
		}
	}

	return images, nil
}

// listImages returns image files directly under dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
