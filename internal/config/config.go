// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sitlswarm/internal/geo"
	"sitlswarm/internal/swarm"
)

// Origin anchors the swarm's flat-earth frame on the globe.
type Origin struct {
	Lat         float64 `yaml:"lat"`
	Lon         float64 `yaml:"lon"`
	AMSL        float64 `yaml:"amsl"`
	Orientation float64 `yaml:"orientation"`
}

// ParamSpec is one parameter source entry. Exactly one of File, Embedded,
// or Name/Value may be set; a fully empty entry contributes nothing.
type ParamSpec struct {
	File     string   `yaml:"file"`
	Embedded string   `yaml:"embedded"`
	Name     string   `yaml:"name"`
	Value    *float64 `yaml:"value"`
}

// Placement is one drone's home position in the flat-earth frame, with an
// optional per-drone heading.
type Placement struct {
	X       float64  `yaml:"x"`
	Y       float64  `yaml:"y"`
	Heading *float64 `yaml:"heading"`
}

// LauncherConfig is the root configuration of the swarm launcher.
type LauncherConfig struct {
	Executable       string      `yaml:"executable"`
	Dir              string      `yaml:"dir"`
	Model            string      `yaml:"model"`
	Speedup          float64     `yaml:"speedup"`
	UseConsole       bool        `yaml:"use_console"`
	GCSAddress       string      `yaml:"gcs_address"`
	MulticastAddress string      `yaml:"multicast_address"`
	TCPBasePort      int         `yaml:"tcp_base_port"`
	RCInPort         int         `yaml:"rc_in_port"`
	AMSL             *float64    `yaml:"amsl"`
	DefaultHeading   *float64    `yaml:"default_heading"`
	Origin           Origin      `yaml:"origin"`
	Params           []ParamSpec `yaml:"params"`
	Drones           []Placement `yaml:"drones"`
	Count            int         `yaml:"count"`
	SpacingM         float64     `yaml:"spacing_m"`
}

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*LauncherConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg LauncherConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the semantic constraints the schema cannot express.
func (c *LauncherConfig) Validate() error {
	if c.Executable == "" {
		return fmt.Errorf("%w: executable is required", swarm.ErrConfiguration)
	}
	if c.TCPBasePort < 0 {
		return fmt.Errorf("%w: tcp_base_port must be positive", swarm.ErrConfiguration)
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: count must be non-negative", swarm.ErrConfiguration)
	}
	for i, p := range c.Params {
		if err := p.validate(); err != nil {
			return fmt.Errorf("params[%d]: %w", i, err)
		}
	}
	return nil
}

func (p ParamSpec) validate() error {
	set := 0
	if p.File != "" {
		set++
	}
	if p.Embedded != "" {
		set++
	}
	if p.Name != "" || p.Value != nil {
		if p.Name == "" || p.Value == nil {
			return fmt.Errorf("%w: name and value must be set together", swarm.ErrConfiguration)
		}
		set++
	}
	if set > 1 {
		return fmt.Errorf("%w: at most one of file, embedded, or name/value may be set", swarm.ErrConfiguration)
	}
	return nil
}

// Sources converts the parameter entries to swarm parameter sources,
// preserving order. Empty entries are dropped.
func (c *LauncherConfig) Sources() []swarm.ParameterSource {
	var out []swarm.ParameterSource
	for _, p := range c.Params {
		switch {
		case p.File != "":
			out = append(out, swarm.SourceFromString(p.File))
		case p.Embedded != "":
			out = append(out, swarm.EmbeddedParam(p.Embedded))
		case p.Name != "" && p.Value != nil:
			out = append(out, swarm.ValueParam{Name: p.Name, Value: *p.Value})
		}
	}
	return out
}

// Placements returns the configured drone positions. When no explicit list
// is given, Count drones are placed in a line along the Y axis, SpacingM
// meters apart.
func (c *LauncherConfig) Placements() []Placement {
	if len(c.Drones) > 0 {
		return c.Drones
	}
	spacing := c.SpacingM
	if spacing == 0 {
		spacing = 5
	}
	out := make([]Placement, c.Count)
	for i := range out {
		out[i] = Placement{Y: float64(i) * spacing}
	}
	return out
}

// SwarmConfig assembles the swarm construction parameters.
func (c *LauncherConfig) SwarmConfig() swarm.Config {
	return swarm.Config{
		Executable: c.Executable,
		Dir:        c.Dir,
		Params:     c.Sources(),
		Transform: geo.Transform{
			Origin:      geo.GPSCoordinate{Lat: c.Origin.Lat, Lon: c.Origin.Lon, AMSL: c.Origin.AMSL},
			Orientation: c.Origin.Orientation,
		},
		AMSL:             c.AMSL,
		DefaultHeading:   c.DefaultHeading,
		GCSAddress:       c.GCSAddress,
		MulticastAddress: c.MulticastAddress,
		TCPBasePort:      c.TCPBasePort,
		Model:            c.Model,
		Speedup:          c.Speedup,
		UseConsole:       c.UseConsole,
		RCInPort:         c.RCInPort,
	}
}
