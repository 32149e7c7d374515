// Command sitemap_analyzer inspects a published sitemap and the chunk files it
// references, reporting sizes, duplicate locations and missing files.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/romangod6/kb-sitemap/internal/render"
	"github.com/romangod6/kb-sitemap/internal/sitemap"
)

// Report summarizes an inspected sitemap tree.
type Report struct {
	Files      []FileReport
	URLs       int
	Duplicates []string
	Missing    []string
	Oversized  []string
}

// FileReport describes one document of the tree.
type FileReport struct {
	Path  string
	Kind  string
	Count int
}

func main() {
	maxSize := flag.Int("max-size", sitemap.DefaultMaxSize, "maximum urls per document")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatalf("usage: sitemap_analyzer [-max-size n] <sitemap file>")
	}

	report, err := analyze(afero.NewOsFs(), flag.Arg(0), *maxSize)
	if err != nil {
		log.Fatalf("Error analyzing sitemap: %v", err)
	}

	printReport(os.Stdout, report)
	if len(report.Missing) > 0 || len(report.Oversized) > 0 {
		os.Exit(1)
	}
}

// analyze reads file and, for an index, every document it lists. Listed locations
// are looked up by base name in the directory of file.
func analyze(fs afero.Fs, file string, maxSize int) (*Report, error) {
	report := &Report{}
	seen := make(map[string]bool)

	var visit func(file string, depth int) error
	visit = func(file string, depth int) error {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		if strings.EqualFold(filepath.Ext(file), ".txt") {
			locs := render.ParseText(data)
			report.add(file, "text", locs, seen, maxSize)
			return nil
		}

		doc, err := render.Parse(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", file, err)
		}

		switch {
		case doc.Index != nil:
			report.Files = append(report.Files, FileReport{Path: file, Kind: "index", Count: len(doc.Index.Sitemaps)})
			if depth > 0 {
				// chunks are never indexes themselves
				report.Oversized = append(report.Oversized, file)
				return nil
			}
			for _, loc := range doc.Locs() {
				child := filepath.Join(filepath.Dir(file), baseName(loc))
				exists, err := afero.Exists(fs, child)
				if err != nil {
					return err
				}
				if !exists {
					report.Missing = append(report.Missing, child)
					continue
				}
				if err := visit(child, depth+1); err != nil {
					return err
				}
			}
		case doc.Feed != nil:
			report.add(file, "rss", doc.Locs(), seen, maxSize)
		default:
			report.add(file, "urlset", doc.Locs(), seen, maxSize)
		}
		return nil
	}

	if err := visit(file, 0); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Report) add(file, kind string, locs []string, seen map[string]bool, maxSize int) {
	r.Files = append(r.Files, FileReport{Path: file, Kind: kind, Count: len(locs)})
	r.URLs += len(locs)
	if len(locs) > maxSize {
		r.Oversized = append(r.Oversized, file)
	}
	for _, loc := range locs {
		if seen[loc] {
			r.Duplicates = append(r.Duplicates, loc)
			continue
		}
		seen[loc] = true
	}
}

func baseName(loc string) string {
	if u, err := url.Parse(loc); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(loc)
}

func printReport(w io.Writer, r *Report) {
	fmt.Fprintf(w, "Documents: %d\n", len(r.Files))
	for _, f := range r.Files {
		fmt.Fprintf(w, "  %-8s %6d  %s\n", f.Kind, f.Count, f.Path)
	}
	fmt.Fprintf(w, "Total URLs found: %d\n", r.URLs)

	if len(r.Duplicates) > 0 {
		fmt.Fprintf(w, "\n--- Duplicate locations (%d) ---\n", len(r.Duplicates))
		for _, loc := range r.Duplicates {
			fmt.Fprintf(w, "  %s\n", loc)
		}
	}
	if len(r.Missing) > 0 {
		fmt.Fprintf(w, "\n--- Missing documents (%d) ---\n", len(r.Missing))
		for _, file := range r.Missing {
			fmt.Fprintf(w, "  %s\n", file)
		}
	}
	if len(r.Oversized) > 0 {
		fmt.Fprintf(w, "\n--- Oversized documents (%d) ---\n", len(r.Oversized))
		for _, file := range r.Oversized {
			fmt.Fprintf(w, "  %s\n", file)
		}
	}
}
