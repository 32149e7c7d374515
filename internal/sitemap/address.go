package sitemap

import (
	"fmt"
	"strconv"
	"strings"
)

// splitAddress splits a dotted address "name.key" on its first dot. hasKey is false
// when there is no dot at all.
func splitAddress(address string) (name, key string, hasKey bool) {
	return strings.Cut(address, ".")
}

// chunkAt returns the chunk with the 1-based index spelled by key.
func chunkAt(chunks *Sitemaps, key string) (*Sitemap, bool) {
	index, err := strconv.Atoi(key)
	if err != nil || index < 1 {
		return nil, false
	}
	return chunks.Get(strconv.Itoa(index))
}

// chunkPath inserts "-{index}" before the extension of path:
// "dir/sitemap.xml" becomes "dir/sitemap-1.xml".
func chunkPath(path string, index int) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: cannot chunk a sitemap without a path", ErrConfiguration)
	}

	dir, base := "", path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		dir, base = path[:i+1], path[i+1:]
	}
	if base == "" {
		return "", fmt.Errorf("%w: sitemap path %q has no file name", ErrConfiguration, path)
	}

	stem, ext := base, ""
	if j := strings.LastIndex(base, "."); j > 0 {
		stem, ext = base[:j], base[j:]
	}

	return dir + stem + "-" + strconv.Itoa(index) + ext, nil
}
