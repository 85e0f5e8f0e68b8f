package swarm

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sitlswarm/internal/logging"
)

// paramFileName is the parameter file the simulator reads its defaults from.
const paramFileName = "default.param"

// composeParamFile writes the drone's parameter file and creates its
// directory tree (the config dir and the nested fs/ state dir). The file is
// written to a temporary name and renamed, so a cancelled add never leaves
// a half-written file behind as final. Returns the parameter file path.
func composeParamFile(ctx context.Context, id Identity, cfg *Config) (string, error) {
	if err := os.MkdirAll(filepath.Join(id.Dir, "fs"), 0o755); err != nil {
		return "", fmt.Errorf("%w: create drone dir %s: %v", ErrResource, id.Dir, err)
	}

	tmp, err := os.CreateTemp(id.Dir, paramFileName+".*")
	if err != nil {
		return "", fmt.Errorf("%w: create parameter file: %v", ErrResource, err)
	}
	defer os.Remove(tmp.Name())

	if err := writeParams(ctx, tmp, id, cfg); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: write parameter file: %v", ErrResource, err)
	}

	final := filepath.Join(id.Dir, paramFileName)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("%w: finalize parameter file: %v", ErrResource, err)
	}
	return final, nil
}

// writeParams renders the parameter file body: caller-supplied sources in
// list order, then the computed fields. The simulator lets later duplicate
// keys win, so the computed fields always come last and can never be
// overridden by caller input.
func writeParams(ctx context.Context, w io.Writer, id Identity, cfg *Config) error {
	log := logging.FromContext(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, src := range cfg.Params {
		if err := ctx.Err(); err != nil {
			return err
		}
		if src == nil {
			log.Debug("skipping empty parameter source", "drone", id.Index)
			continue
		}
		if err := src.appendTo(ctx, w); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "SYSID_THISMAV\t%d\n", id.Index); err != nil {
		return err
	}

	if cfg.MulticastAddress != "" {
		// A second serial port receives multicast traffic, which simulates
		// broadcast. MAVLink forwarding on this port stays off so traffic
		// does not loop back.
		if _, err := io.WriteString(w, "SERIAL1_PROTOCOL\t2\nSERIAL1_OPTIONS\t1024\n"); err != nil {
			return err
		}
	}

	if id.TCPPort > 0 {
		// A third serial port carries direct traffic from the drone's own
		// TCP port.
		if _, err := io.WriteString(w, "SERIAL2_PROTOCOL\t2\n"); err != nil {
			return err
		}
	}

	return nil
}
