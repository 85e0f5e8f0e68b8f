package swarm

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"sitlswarm/internal/swarm/resources"
)

// embeddedScheme marks a parameter source that refers to a file bundled
// into the binary instead of one on disk.
const embeddedScheme = "embedded://"

// ParameterSource is one input contributing content to a drone's parameter
// file. The set of implementations is closed: FileParam, EmbeddedParam, and
// ValueParam.
type ParameterSource interface {
	appendTo(ctx context.Context, w io.Writer) error
}

// FileParam copies the content of a parameter file on disk byte for byte,
// followed by a newline.
type FileParam string

func (p FileParam) appendTo(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Open(string(p))
	if err != nil {
		return fmt.Errorf("%w: parameter file %q: %v", ErrResource, string(p), err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: copy parameter file %q: %v", ErrResource, string(p), err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// EmbeddedParam names a parameter file bundled with the binary. It is
// extracted to a temporary file at add time and released after copying.
type EmbeddedParam string

func (p EmbeddedParam) appendTo(ctx context.Context, w io.Writer) error {
	path, release, err := resources.Extract(string(p))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	defer release()
	return FileParam(path).appendTo(ctx, w)
}

// ValueParam is a single name/value override written directly into the
// parameter file.
type ValueParam struct {
	Name  string
	Value float64
}

func (p ValueParam) appendTo(ctx context.Context, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s\t%s\n", p.Name, strconv.FormatFloat(p.Value, 'g', -1, 64))
	return err
}

// SourceFromString maps a string entry to a parameter source: strings with
// the embedded:// scheme name a bundled file, anything else is a path on disk.
func SourceFromString(s string) ParameterSource {
	if name, ok := strings.CutPrefix(s, embeddedScheme); ok {
		return EmbeddedParam(strings.TrimLeft(name, "/"))
	}
	return FileParam(s)
}
