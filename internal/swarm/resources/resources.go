// Package resources bundles stock simulator parameter files into the binary.
package resources

import (
	"embed"
	"fmt"
	"os"
	"sort"
)

//go:embed *.param
var files embed.FS

// Extract writes the named embedded parameter file to a temporary file and
// returns its path together with a release function that removes it. The
// release function must be called regardless of how the content is used.
func Extract(name string) (string, func() error, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", nil, fmt.Errorf("embedded parameter file %q: %w", name, err)
	}

	f, err := os.CreateTemp("", "sitlswarm-param-*")
	if err != nil {
		return "", nil, err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", nil, err
	}

	path := f.Name()
	return path, func() error { return os.Remove(path) }, nil
}

// Names lists the available embedded parameter files.
func Names() []string {
	entries, err := files.ReadDir(".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
