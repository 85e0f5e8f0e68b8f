// Package swarm launches and supervises a swarm of simulated-vehicle
// processes as a single lifecycle unit.
package swarm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"sitlswarm/internal/geo"
	"sitlswarm/internal/logging"
)

// DefaultGCSAddress is where simulated drones send their status packets
// when no ground-control-station address is configured.
const DefaultGCSAddress = "127.0.0.1:14550"

// Config holds the immutable construction parameters of a swarm.
type Config struct {
	// Executable is the full path of the simulator binary.
	Executable string
	// Dir is the swarm's working directory. When empty, a temporary
	// directory is created on activation and removed on shutdown.
	Dir string
	// Params are the parameter sources applied to every drone, in order.
	Params []ParameterSource
	// Transform converts flat-earth home positions to GPS coordinates.
	Transform geo.Transform
	// AMSL, when set, overrides the altitude of every drone's home position.
	AMSL *float64
	// DefaultHeading is used for drones added without an explicit heading.
	// When nil, headings align with the local X axis.
	DefaultHeading *float64
	// GCSAddress is the UDP target for the drones' status packets.
	GCSAddress string
	// MulticastAddress, when set, gives every drone a serial port listening
	// for multicast traffic.
	MulticastAddress string
	// TCPBasePort, when positive, assigns drone N the TCP port base+N-1.
	TCPBasePort int
	// Model is the simulator dynamics model, "quad" by default.
	Model string
	// Speedup is the simulation speed factor, 1 (real time) by default.
	Speedup float64
	// UseConsole drives the simulator over the launcher's own terminal
	// instead of capturing its output.
	UseConsole bool
	// RCInPort is the simulator's RC input port, 0 to leave unset.
	RCInPort int
}

// StartRequest is what the swarm asks of its process runner for one drone.
type StartRequest struct {
	Args         []string
	Name         string
	Daemon       bool
	Dir          string
	StreamStdout bool
	UseStdin     bool
}

// Process is a handle to one supervised simulator process.
type Process interface {
	Name() string
	Wait(ctx context.Context) error
}

// ProcessRunner supervises the swarm's child processes. All processes
// started through it are terminated when it is closed.
type ProcessRunner interface {
	Start(ctx context.Context, req StartRequest) (Process, error)
	RequestStop()
	Close() error
}

type state int

const (
	stateInert state = iota
	stateActive
	stateDone
)

// Swarm coordinates identity allocation, parameter composition, and process
// startup for a set of simulated drones. A Swarm runs at most once: after
// it has been stopped, a fresh instance is needed.
type Swarm struct {
	cfg            Config
	runner         ProcessRunner
	runID          string
	defaultHeading float64

	mu       sync.Mutex
	state    state
	root     string
	ownsRoot bool
	alloc    *allocator
	cancel   context.CancelFunc
	drones   []Identity

	closeOnce sync.Once
	closeErr  error
}

// New validates cfg and creates an inert swarm supervised by runner.
func New(cfg Config, runner ProcessRunner) (*Swarm, error) {
	if cfg.Executable == "" {
		return nil, fmt.Errorf("%w: simulator executable is required", ErrConfiguration)
	}
	if cfg.TCPBasePort < 0 {
		return nil, fmt.Errorf("%w: tcp base port must not be negative", ErrConfiguration)
	}
	if runner == nil {
		return nil, fmt.Errorf("%w: process runner is required", ErrConfiguration)
	}
	if cfg.GCSAddress == "" {
		cfg.GCSAddress = DefaultGCSAddress
	}

	defaultHeading := cfg.Transform.Orientation
	if cfg.DefaultHeading != nil {
		defaultHeading = geo.NormalizeHeading(*cfg.DefaultHeading)
	}

	return &Swarm{
		cfg:            cfg,
		runner:         runner,
		runID:          uuid.New().String()[:8],
		defaultHeading: defaultHeading,
	}, nil
}

// DefaultHeading returns the heading assigned to drones added without one,
// normalized to [0, 360).
func (s *Swarm) DefaultHeading() float64 { return s.defaultHeading }

// Activate establishes the swarm's working directory, opens its concurrency
// scope, and returns the session through which drones are added. The scope
// is a child of ctx: cancelling ctx shuts the swarm down.
func (s *Swarm) Activate(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateActive:
		return nil, fmt.Errorf("%w: swarm is already active", ErrState)
	case stateDone:
		return nil, fmt.Errorf("%w: a stopped swarm cannot be reused", ErrState)
	}

	root := s.cfg.Dir
	owns := false
	if root == "" {
		var err error
		root, err = os.MkdirTemp("", "sitlswarm-"+s.runID+"-")
		if err != nil {
			return nil, fmt.Errorf("%w: create swarm dir: %v", ErrResource, err)
		}
		owns = true
	} else if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create swarm dir %s: %v", ErrResource, root, err)
	}

	scope, cancel := context.WithCancel(ctx)
	s.state = stateActive
	s.root = root
	s.ownsRoot = owns
	s.alloc = newAllocator(root, s.cfg.TCPBasePort)
	s.cancel = cancel

	logging.FromContext(ctx).Info("swarm activated", "run_id", s.runID, "dir", root)
	return &Session{swarm: s, ctx: scope}, nil
}

// stop requests a graceful shutdown: the runner first, then the scope, so
// in-flight adds unwind promptly. Idempotent.
func (s *Swarm) stop() {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return
	}
	s.state = stateDone
	cancel := s.cancel
	s.mu.Unlock()

	s.runner.RequestStop()
	cancel()
}

// close releases everything the swarm owns: the runner (terminating any
// process that did not exit gracefully), then the temporary working
// directory, if this swarm created one.
func (s *Swarm) close() error {
	s.stop()
	s.closeOnce.Do(func() {
		s.closeErr = s.runner.Close()

		s.mu.Lock()
		root, owns := s.root, s.ownsRoot
		s.mu.Unlock()
		if owns && root != "" {
			os.RemoveAll(root)
		}
	})
	return s.closeErr
}

func (s *Swarm) addDrone(ctx, scope context.Context, spec DroneSpec) (Process, error) {
	s.mu.Lock()
	if s.state != stateActive {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: swarm is not active", ErrState)
	}
	id := s.alloc.allocate()
	s.mu.Unlock()

	if err := scope.Err(); err != nil {
		return nil, fmt.Errorf("%w: swarm is shutting down", ErrState)
	}

	home := s.cfg.Transform.ToGPS(spec.Home)
	if s.cfg.AMSL != nil {
		home.AMSL = *s.cfg.AMSL
	}
	heading := s.defaultHeading
	if spec.Heading != nil {
		heading = geo.NormalizeHeading(*spec.Heading)
	}

	// Composition honours both the caller's context and the swarm's scope,
	// so a Stop from another goroutine unwinds an in-flight add.
	addCtx, cancelAdd := context.WithCancel(ctx)
	defer cancelAdd()
	unlink := context.AfterFunc(scope, cancelAdd)
	defer unlink()

	paramFile, err := composeParamFile(addCtx, id, &s.cfg)
	if err != nil {
		if scope.Err() != nil {
			return nil, fmt.Errorf("%w: swarm is shutting down", ErrState)
		}
		return nil, err
	}

	if err := scope.Err(); err != nil {
		return nil, fmt.Errorf("%w: swarm is shutting down", ErrState)
	}

	args, err := BuildArgs(SimulatorArgs{
		Executable: s.cfg.Executable,
		Model:      s.cfg.Model,
		ParamFile:  paramFile,
		UseConsole: s.cfg.UseConsole,
		Home:       home,
		Heading:    heading,
		Index:      id.Index - 1,
		UARTs:      s.uartsFor(id),
		RCInPort:   s.cfg.RCInPort,
		Speedup:    s.cfg.Speedup,
	})
	if err != nil {
		return nil, err
	}

	p, err := s.runner.Start(scope, StartRequest{
		Args:         args,
		Name:         strconv.Itoa(id.Index),
		Daemon:       true,
		Dir:          filepath.Join(id.Dir, "fs"),
		StreamStdout: !s.cfg.UseConsole,
		UseStdin:     s.cfg.UseConsole,
	})
	if err != nil {
		return nil, fmt.Errorf("start simulator %d: %w", id.Index, err)
	}

	s.mu.Lock()
	s.drones = append(s.drones, id)
	s.mu.Unlock()

	logging.FromContext(ctx).Info("drone started",
		"index", id.Index, "lat", home.Lat, "lon", home.Lon, "tcp_port", id.TCPPort)
	return p, nil
}

// uartsFor assigns the simulator's serial port roles for one drone.
func (s *Swarm) uartsFor(id Identity) map[string]string {
	uarts := map[string]string{
		// localhost does not resolve reliably here, at least on macOS
		"A": "udpclient:" + s.cfg.GCSAddress,
		// the fallback targets may go unused; they exist to keep macOS
		// firewall prompts away
		"C": "udpclient:127.0.0.1:14555",
		"D": "udpclient:127.0.0.1:14552",
	}
	if s.cfg.MulticastAddress != "" {
		uarts["C"] = "mcast:" + s.cfg.MulticastAddress
	}
	if id.TCPPort > 0 {
		uarts["D"] = fmt.Sprintf("tcp:%d", id.TCPPort)
	}
	return uarts
}

// DroneSpec describes one drone to add: a home position in the swarm's
// flat-earth frame and an optional heading in degrees.
type DroneSpec struct {
	Home    geo.FlatPoint
	Heading *float64
}

// Session is the capability handle for an active swarm, obtained from
// Activate. Drones can only be added and the swarm only stopped through it.
type Session struct {
	swarm *Swarm
	ctx   context.Context
}

// AddDrone allocates an identity, composes the drone's parameter file, and
// starts its simulator process. A failure affects only this drone; the
// swarm stays active.
func (s *Session) AddDrone(ctx context.Context, spec DroneSpec) (Process, error) {
	return s.swarm.addDrone(ctx, s.ctx, spec)
}

// Stop requests a graceful shutdown of all drones. Idempotent, and safe to
// call from any goroutine.
func (s *Session) Stop() {
	s.swarm.stop()
}

// Done is closed once the swarm's scope has been cancelled.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// Drones returns the identities added so far, in allocation order.
func (s *Session) Drones() []Identity {
	s.swarm.mu.Lock()
	defer s.swarm.mu.Unlock()
	out := make([]Identity, len(s.swarm.drones))
	copy(out, s.swarm.drones)
	return out
}

// Close stops the swarm and releases everything it owns. Idempotent.
func (s *Session) Close() error {
	return s.swarm.close()
}
