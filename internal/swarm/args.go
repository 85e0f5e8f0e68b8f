package swarm

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"sitlswarm/internal/geo"
)

// SimulatorArgs describes one simulator invocation.
type SimulatorArgs struct {
	Executable string
	Model      string // dynamics model; defaults to "quad"
	ParamFile  string // path to the default parameter file, empty to omit
	UseConsole bool   // drive the simulator over the console instead of TCP
	Home       geo.GPSCoordinate
	Heading    float64
	Index      int  // zero-based instance index; shifts the simulator's ports
	OmitIndex  bool // leave out the -I flag entirely
	UARTs      map[string]string
	RCInPort   int // port to listen on for RC input, 0 to omit
	Speedup    float64
}

// BuildArgs renders the simulator's command-line argument vector. The
// result is deterministic for a given input; UART flags are emitted in
// sorted identifier order.
func BuildArgs(a SimulatorArgs) ([]string, error) {
	model := a.Model
	if model == "" {
		model = "quad"
	}
	speedup := a.Speedup
	if speedup == 0 {
		speedup = 1
	}

	args := []string{a.Executable, "-M", model, "--disable-fgview"}

	if !a.OmitIndex {
		if a.Index < 0 {
			return nil, fmt.Errorf("%w: simulator index must be non-negative", ErrConfiguration)
		}
		args = append(args, "-I", strconv.Itoa(a.Index))
	}

	if a.UseConsole {
		args = append(args, "-C")
	}

	if a.ParamFile != "" {
		args = append(args, "--defaults", a.ParamFile)
	}

	if a.RCInPort > 0 {
		args = append(args, "--rc-in-port", strconv.Itoa(a.RCInPort))
	}

	ids := make([]string, 0, len(a.UARTs))
	for id := range a.UARTs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		args = append(args, fmt.Sprintf("--uart%s=%s", strings.ToUpper(id), a.UARTs[id]))
	}

	// Altitude and heading are truncated toward zero, not rounded, to
	// match the launch files the simulator's ship scripts generate.
	amsl := math.Trunc(a.Home.AMSL*10) / 10
	home := fmt.Sprintf("%.7f,%.7f,%.1f,%d", a.Home.Lat, a.Home.Lon, amsl, int(a.Heading))
	args = append(args, "--home", home)

	// ArduCopter 4.2.1 crashes on macOS when --speedup is missing, so it is
	// always set, even for real-time runs.
	args = append(args, "--speedup", strconv.FormatFloat(speedup, 'g', -1, 64))

	return args, nil
}
