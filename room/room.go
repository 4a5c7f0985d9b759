package room

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/config"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

var (
	ErrNoGeometry = errors.New("config names neither a mesh nor a box")
	ErrOutside    = errors.New("position is outside the room")
)

// Room is a voxelised scene together with the medium it is filled with
type Room struct {
	Scene *voxel.Scene
	Env   acoustic.Environment
}

// NewRoom loads the geometry named by cfg, gives every surface its material and voxelises the
// result
func NewRoom(cfg *config.ExperimentConfig) (*Room, error) {
	assign, err := cfg.Assignment()
	if err != nil {
		return nil, fmt.Errorf("resolving materials: %w", err)
	}
	env, err := cfg.AcousticEnvironment()
	if err != nil {
		return nil, err
	}

	data, err := LoadData(cfg.Input, assign)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	s, err := voxel.NewScene(data, cfg.Simulation.VoxelDepth, cfg.Simulation.VoxelPadding)
	if err != nil {
		return nil, fmt.Errorf("voxelising: %w", err)
	}
	log.Printf("Voxelised %d triangles into a %d^3 grid in %v", len(data.Triangles), 1<<cfg.Simulation.VoxelDepth, time.Since(start))

	return &Room{Scene: s, Env: env}, nil
}

// LoadData builds the scene named by input with surfaces from assign
func LoadData(input config.Input, assign scene.Assignment) (*scene.Data, error) {
	switch {
	case input.Mesh != nil:
		if strings.EqualFold(filepath.Ext(input.Mesh.Path), ".3mf") {
			return scene.Load3MF(input.Mesh.Path, input.Mesh.Scale, assign)
		}
		return scene.LoadMesh(input.Mesh.Path, assign)
	case input.Box != nil:
		return loadBox(input.Box, assign)
	}
	return nil, ErrNoGeometry
}

func loadBox(b *config.BoxInput, assign scene.Assignment) (*scene.Data, error) {
	def, ok := assign[scene.DefaultSurfaceName]
	if !ok {
		return nil, fmt.Errorf("%w: %q", scene.ErrNoSurface, scene.DefaultSurfaceName)
	}
	data, err := scene.Box(b.Min.Vector(), b.Max.Vector(), def)
	if err != nil {
		return nil, err
	}
	if err := assign.Apply(data); err != nil {
		return nil, err
	}
	return data, nil
}

// CheckInside reports ErrOutside when p is not enclosed by the room
func (r *Room) CheckInside(name string, p pt.Vector) error {
	if !r.Scene.Inside(p) {
		return fmt.Errorf("%s %v: %w", name, p, ErrOutside)
	}
	return nil
}

// Simulate traces the source and receiver of cfg through the room
func (r *Room) Simulate(ctx context.Context, cfg *config.ExperimentConfig) (*raytracer.Results, error) {
	params, err := cfg.Params(r.Env)
	if err != nil {
		return nil, err
	}
	if err := r.CheckInside("source", params.Source); err != nil {
		return nil, err
	}
	if err := r.CheckInside("receiver", params.Receiver); err != nil {
		return nil, err
	}

	start := time.Now()
	results, err := raytracer.Run(ctx, r.Scene, params, raytracer.WithProgress(func(done, total int) {
		log.Printf("Traced segment %d/%d (%v)", done, total, time.Since(start).Round(time.Millisecond))
	}))
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	log.Printf("Traced %d rays to depth %d: %d early reflections", params.Rays, results.ReflectionDepth, len(results.ImageSource))
	return results, nil
}

// ReverbTimes gives the Sabine and Eyring estimates for the room
func (r *Room) ReverbTimes() (sabine, eyring acoustic.Bands, err error) {
	data := r.Scene.Data
	if sabine, err = scene.SabineReverbTime(data, r.Env.AirAbsorption); err != nil {
		return
	}
	eyring, err = scene.EyringReverbTime(data, r.Env.AirAbsorption)
	return
}
