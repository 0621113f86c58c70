package site

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/MrLixm/picture-lab-lxm/pkg/comparison"
	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
	"github.com/MrLixm/picture-lab-lxm/pkg/observability"
	"github.com/MrLixm/picture-lab-lxm/pkg/renderer"
)

//go:embed templates
var templateFS embed.FS

const thumbnailWidth = 480

// BuildOpts configures Build.
type BuildOpts struct {
	SiteName string

	// SiteURL is the public root the site is served from. Empty builds use
	// relative paths suitable for local preview.
	SiteURL string

	// ComparisonsDir holds one sub-directory per generated comparison.
	ComparisonsDir string

	// BuildDir receives the final site. It is wiped first.
	BuildDir string

	// Renderers describes the algorithms on the about page.
	Renderers []*renderer.Renderer

	Footer          string
	MetaDescription string
	MetaImage       string
}

type pageContext struct {
	SiteName        string
	SiteURL         string
	PageTitle       string
	NavActive       string
	Comparisons     []*ComparisonPage
	Comparison      *ComparisonPage
	Renderers       []*renderer.Renderer
	Footer          string
	BuildDate       string
	MetaDescription string
	MetaImage       string
}

// Build assembles the static site: comparison images are copied into the
// build directory and one HTML page is written per comparison, plus the
// index and about pages.
func Build(ctx context.Context, opts BuildOpts) (pageCount int, err error) {
	pages, err := loadPages(opts.ComparisonsDir)
	if err != nil {
		return 0, err
	}
	pageCount = len(pages) + 2

	observability.Pipeline().OnSiteBuildStart(ctx, pageCount)
	start := time.Now()
	defer func() {
		observability.Pipeline().OnSiteBuildComplete(ctx, pageCount, time.Since(start), err)
	}()

	if err = os.RemoveAll(opts.BuildDir); err != nil {
		return 0, errors.Wrap(errors.ErrCodeFileWrite, err, "failed to clean build dir %s", opts.BuildDir)
	}
	imgDir := filepath.Join(opts.BuildDir, "img")
	if err = os.MkdirAll(imgDir, 0o755); err != nil {
		return 0, errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create %s", imgDir)
	}

	if err = copyImages(opts.ComparisonsDir, imgDir); err != nil {
		return 0, err
	}
	for _, page := range pages {
		page.EditPaths(func(p string) string { return "img/" + p })
		if err = writeThumbnail(page, opts.BuildDir); err != nil {
			return 0, err
		}
	}

	tmpl, err := template.New("site").
		Funcs(template.FuncMap{"slugify": Slugify}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInternal, err, "failed to parse templates")
	}

	base := pageContext{
		SiteName:        opts.SiteName,
		SiteURL:         normalizeSiteURL(opts.SiteURL),
		Comparisons:     pages,
		Renderers:       opts.Renderers,
		Footer:          opts.Footer,
		BuildDate:       time.Now().Format("2006-01-02T15:04"),
		MetaDescription: opts.MetaDescription,
		MetaImage:       opts.MetaImage,
	}

	for _, page := range pages {
		pctx := base
		pctx.Comparison = page
		pctx.PageTitle = page.AssetID
		pctx.NavActive = page.Slug()
		if err = writePage(tmpl, "comparison.html", filepath.Join(opts.BuildDir, page.Slug()+".html"), pctx); err != nil {
			return 0, err
		}
	}

	indexCtx := base
	indexCtx.NavActive = "index"
	if err = writePage(tmpl, "index.html", filepath.Join(opts.BuildDir, "index.html"), indexCtx); err != nil {
		return 0, err
	}

	aboutCtx := base
	aboutCtx.PageTitle = "about"
	aboutCtx.NavActive = "about"
	if err = writePage(tmpl, "about.html", filepath.Join(opts.BuildDir, "about.html"), aboutCtx); err != nil {
		return 0, err
	}

	if err = writeStatic(opts.BuildDir); err != nil {
		return 0, err
	}
	return pageCount, nil
}

// loadPages reads every comparison session below dir into a page model.
func loadPages(dir string) ([]*ComparisonPage, error) {
	var pages []*ComparisonPage
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(path, ".metadata.json") {
			return nil
		}
		session, err := comparison.ReadSession(path)
		if err != nil {
			return err
		}
		page, err := PageFromSession(session)
		if err != nil {
			return err
		}
		pages = append(pages, page)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "failed to collect comparisons from %s", dir)
	}
	SortPages(pages)
	return pages, nil
}

// copyImages flattens every non-JSON artifact into dstDir.
func copyImages(srcDir, dstDir string) error {
	return filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".json") {
			return nil
		}
		return copyFile(path, filepath.Join(dstDir, filepath.Base(path)))
	})
}

// writeThumbnail renders a small preview of the page's first image for the
// index cards. Pages whose images cannot be decoded are simply left without
// a thumbnail.
func writeThumbnail(page *ComparisonPage, buildDir string) error {
	if len(page.Generators) == 0 || len(page.Generators[0].Renders) == 0 {
		return nil
	}
	srcPath := filepath.Join(buildDir, page.Generators[0].Renders[0].Path)
	src, err := imaging.Open(srcPath)
	if err != nil {
		return nil
	}

	thumbDir := filepath.Join(buildDir, "img", "thumbs")
	if err := os.MkdirAll(thumbDir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create %s", thumbDir)
	}
	thumb := imaging.Resize(src, thumbnailWidth, 0, imaging.CatmullRom)
	thumbPath := filepath.Join(thumbDir, page.Slug()+".jpg")
	if err := imaging.Save(thumb, thumbPath, imaging.JPEGQuality(80)); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to write thumbnail %s", thumbPath)
	}
	page.Thumb = "img/thumbs/" + page.Slug() + ".jpg"
	return nil
}

func writePage(tmpl *template.Template, name, dstPath string, pctx pageContext) error {
	out, err := os.Create(dstPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create %s", dstPath)
	}
	defer out.Close()
	if err := tmpl.ExecuteTemplate(out, name, pctx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to render %s", name)
	}
	return nil
}

// writeStatic copies the stylesheet and the marker disabling Jekyll
// processing on GitHub Pages.
func writeStatic(buildDir string) error {
	css, err := templateFS.ReadFile("templates/main.css")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "missing embedded stylesheet")
	}
	if err := os.WriteFile(filepath.Join(buildDir, "main.css"), css, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to write stylesheet")
	}
	if err := os.WriteFile(filepath.Join(buildDir, ".nojekyll"), nil, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to write .nojekyll")
	}
	return nil
}

func normalizeSiteURL(url string) string {
	if url == "" {
		return ""
	}
	return strings.TrimRight(url, "/") + "/"
}

func copyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileNotFound, err, "failed to open %s", srcPath)
	}
	defer src.Close()
	dst, err := os.Create(dstPath)
	if err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to create %s", dstPath)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrap(errors.ErrCodeFileWrite, err, "failed to copy to %s", dstPath)
	}
	return nil
}
