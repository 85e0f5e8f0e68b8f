// Package admin exposes a running swarm over a small HTTP API.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"sitlswarm/internal/geo"
	"sitlswarm/internal/logging"
	"sitlswarm/internal/swarm"
)

// SwarmController is what the admin server needs from a running swarm.
type SwarmController interface {
	AddDrone(ctx context.Context, spec swarm.DroneSpec) (swarm.Process, error)
	Drones() []swarm.Identity
	Stop()
}

// Server serves swarm state and control endpoints.
type Server struct {
	ctl SwarmController
	mux *http.ServeMux
}

// NewServer creates a Server controlling ctl.
func NewServer(ctl SwarmController) *Server {
	s := &Server{ctl: ctl, mux: http.NewServeMux()}
	s.mux.HandleFunc("/drones", s.handleDrones)
	s.mux.HandleFunc("/add-drone", s.handleAddDrone)
	s.mux.HandleFunc("/stop", s.handleStop)
	return s
}

// Start serves until ctx is cancelled, then shuts down.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()
	return srv.ListenAndServe()
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	drones := s.ctl.Drones()
	if drones == nil {
		drones = []swarm.Identity{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(drones)
}

func (s *Server) handleAddDrone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	x, err := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	if err != nil {
		http.Error(w, "invalid x", http.StatusBadRequest)
		return
	}
	y, err := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if err != nil {
		http.Error(w, "invalid y", http.StatusBadRequest)
		return
	}
	spec := swarm.DroneSpec{Home: geo.FlatPoint{X: x, Y: y}}
	if h := r.URL.Query().Get("heading"); h != "" {
		heading, err := strconv.ParseFloat(h, 64)
		if err != nil {
			http.Error(w, "invalid heading", http.StatusBadRequest)
			return
		}
		spec.Heading = &heading
	}

	p, err := s.ctl.AddDrone(r.Context(), spec)
	if err != nil {
		logging.FromContext(r.Context()).Error("add drone failed", "err", err)
		http.Error(w, err.Error(), addDroneStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"name": p.Name()})
}

// addDroneStatus maps an AddDrone failure to its HTTP status: lifecycle
// violations conflict with the swarm's state, bad input is the client's
// fault, and everything else (resources, process startup) is the server's.
func addDroneStatus(err error) int {
	switch {
	case errors.Is(err, swarm.ErrState):
		return http.StatusConflict
	case errors.Is(err, swarm.ErrConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	s.ctl.Stop()
	w.WriteHeader(http.StatusNoContent)
}
