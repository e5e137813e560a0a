package source

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/reelcomposer/internal/logging"
	"github.com/ivlev/reelcomposer/internal/system"
)

// Source is an ordered set of pages that can be rasterized, such as a PDF or
// a folder of images.
type Source interface {
	PageCount() int
	GetPageDimensions(index int) (width, height float64, err error)
	RenderPage(index int, dpi int) (image.Image, error)
	Close() error
}

// Open picks the source implementation from the path: PDF files go through
// MuPDF, anything else is treated as an image or image folder.
func Open(path string) (Source, error) {
	if system.IsPDFFile(path) {
		return NewFitzPDFSource(path)
	}
	return NewImageSource(path)
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
}

func NewFitzPDFSource(path string) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &FitzPDFSource{doc: doc, path: path}, nil
}

func (f *FitzPDFSource) PageCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) GetPageDimensions(index int) (float64, float64, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	return float64(rect.Dx()), float64(rect.Dy()), nil
}

// RenderPage opens its own document handle so pages can be rendered from
// several goroutines at once.
func (f *FitzPDFSource) RenderPage(index int, dpi int) (image.Image, error) {
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(dpi))
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// ExportPages writes every page of src as page_NNN.png into dir and returns
// the paths in page order. Sources that already live on disk as image files
// are returned as-is.
func ExportPages(ctx context.Context, src Source, dir string, dpi, workers int) ([]string, error) {
	if files, ok := src.(interface{ Paths() []string }); ok {
		return files.Paths(), nil
	}

	n := src.PageCount()
	if n == 0 {
		return nil, fmt.Errorf("source has no pages")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = system.WorkerBudget()
	}

	log := logging.WithComponent("source")
	paths := make([]string, n)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := src.RenderPage(i, dpi)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}
			path := filepath.Join(dir, fmt.Sprintf("page_%03d.png", i+1))
			if err := writePNG(path, img); err != nil {
				return fmt.Errorf("write page %d: %w", i+1, err)
			}
			paths[i] = path
			log.Debug().Int("page", i+1).Int("of", n).Str("path", path).Msg("page exported")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().Int("pages", n).Str("dir", dir).Msg("pages exported")
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
