package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sitlswarm/internal/admin"
	"sitlswarm/internal/config"
	"sitlswarm/internal/geo"
	"sitlswarm/internal/logging"
	"sitlswarm/internal/proc"
	"sitlswarm/internal/swarm"
)

var (
	launchConfigPath string
	launchSchemaPath string
	launchAdminAddr  string
	launchVerbose    bool
)

// swarmRunner adapts the process runner to the swarm's supervisor contract.
type swarmRunner struct {
	*proc.Runner
}

func (r swarmRunner) Start(ctx context.Context, req swarm.StartRequest) (swarm.Process, error) {
	return r.Runner.Start(ctx, proc.StartOptions{
		Args:         req.Args,
		Name:         req.Name,
		Daemon:       req.Daemon,
		Dir:          req.Dir,
		StreamStdout: req.StreamStdout,
		UseStdin:     req.UseStdin,
	})
}

var launchCmd = &cobra.Command{
	Use:   "launch",
	Short: "Launch a simulated drone swarm",
	Long:  "launch starts one SITL process per configured drone and supervises them until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := logging.New(launchVerbose)
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
		defer cancel()

		cfg, err := config.Load(launchConfigPath, launchSchemaPath)
		if err != nil {
			return err
		}

		runner := proc.NewRunner(proc.NewConsoleSink(os.Stdout))
		sw, err := swarm.New(cfg.SwarmConfig(), swarmRunner{runner})
		if err != nil {
			return err
		}

		session, err := sw.Activate(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		if launchAdminAddr != "" {
			srv := admin.NewServer(session)
			go func() {
				logger.Info("admin API listening", "addr", launchAdminAddr)
				if err := srv.Start(ctx, launchAdminAddr); err != nil && err != http.ErrServerClosed {
					logger.Error("admin server failed", "err", err)
				}
			}()
		}

		for i, p := range cfg.Placements() {
			spec := swarm.DroneSpec{Home: geo.FlatPoint{X: p.X, Y: p.Y}, Heading: p.Heading}
			if _, err := session.AddDrone(ctx, spec); err != nil {
				// The swarm keeps running with fewer drones than requested.
				logger.Error("drone add failed", "placement", i+1, "err", err)
			}
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigs:
		case <-session.Done():
		}

		session.Stop()
		logger.Info("swarm stopped")
		return session.Close()
	},
}

func init() {
	launchCmd.Flags().StringVar(&launchConfigPath, "config", "config/launcher.yaml", "Path to launcher configuration YAML")
	launchCmd.Flags().StringVar(&launchSchemaPath, "schema", "schemas/launcher.cue", "Path to CUE schema file")
	launchCmd.Flags().StringVar(&launchAdminAddr, "admin", "", "Address for the admin HTTP API (disabled when empty)")
	launchCmd.Flags().BoolVar(&launchVerbose, "verbose", false, "Enable debug logging")
}
