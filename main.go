package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"github.com/fogleman/pt/pt"

	goroom "github.com/jdginn/go-acoustic-raytracer/room"
	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/config"
	"github.com/jdginn/go-acoustic-raytracer/room/experiment"
	"github.com/jdginn/go-acoustic-raytracer/room/geo"
	"github.com/jdginn/go-acoustic-raytracer/room/imagesource"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
	"github.com/jdginn/go-acoustic-raytracer/room/voxel"
)

var CLI struct {
	Simulate SimulateCmd `cmd:"" help:"Simulate a room described by a config file"`
	Exact    ExactCmd    `cmd:"" help:"Print the exact image sources of a box"`
	Inspect  InspectCmd  `cmd:"" help:"Load and voxelise a mesh and print statistics"`
}

type SimulateCmd struct {
	Config  string `arg:"" name:"config" help:"experiment config (YAML)" type:"existingfile"`
	NoPlots bool   `name:"no-plots" help:"skip PNG output"`
	Width   int    `name:"width" default:"1200" help:"width of PNG output in pixels"`
	Height  int    `name:"height" default:"800" help:"height of PNG output in pixels"`
}

func (c SimulateCmd) Run() error {
	cfg, err := config.LoadFromFile(c.Config, config.LoadOptions{
		ValidateImmediately: true,
		ResolvePaths:        true,
		MergeFiles:          true,
	})
	if err != nil {
		return err
	}

	room, err := goroom.NewRoom(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	results, err := room.Simulate(ctx, cfg)
	if err != nil {
		return err
	}

	dir, err := experiment.Create(cfg.Output.Directory)
	if err != nil {
		return err
	}
	log.Printf("Writing results to %s", dir.Path)
	if err := config.SaveToFile(cfg, dir.File("config.yaml")); err != nil {
		return err
	}
	if m := cfg.Input.Mesh; m != nil {
		if err := dir.CopyFile(m.Path); err != nil {
			return err
		}
	}
	if err := goroom.SaveImpulses(dir.File("impulses.json"), results.ImageSource, room.Env); err != nil {
		return err
	}
	if err := goroom.SaveHistogram(dir.File("histogram.json"), results.Stochastic); err != nil {
		return err
	}
	if err := room.Scene.Data.SaveSTL(dir.File("room.stl")); err != nil {
		return err
	}
	source, receiver := cfg.Source.Vector(), cfg.Receiver.Vector()
	if len(results.Visual) > 0 {
		if err := goroom.SaveAnnotations(dir.File("annotations.json"), results.Visual, source, receiver, cfg.Simulation.ReceiverRadius); err != nil {
			return err
		}
	}

	if !c.NoPlots {
		if err := goroom.PlotHistogram(dir.File("histogram.png"), c.Width, c.Height, results.Stochastic); err != nil {
			return err
		}
		if err := goroom.PlotImpulses(dir.File("impulses.png"), c.Width, c.Height, results.ImageSource, room.Env); err != nil {
			return err
		}
		// horizontal section at the height of the receiver
		view := goroom.View{
			Data:     room.Scene.Data,
			Source:   source,
			Receiver: receiver,
			Radius:   cfg.Simulation.ReceiverRadius,
			XSize:    c.Width,
			YSize:    c.Height,
			Plane:    goroom.MakePlane(receiver, geo.V(0, 1, 0)),
		}
		if err := goroom.SavePNG(dir.File("paths.png"), view.DrawPaths(results.Visual)); err != nil {
			return err
		}
	}

	return printSummary(room, results)
}

func printSummary(room *goroom.Room, results *raytracer.Results) error {
	sabine, eyring, err := room.ReverbTimes()
	if err != nil {
		return err
	}
	rt60 := goroom.RT60(results.Stochastic)
	early := goroom.EnergyOverWindow(results.ImageSource, room.Env, 50)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "band (Hz)\tSabine (s)\tEyring (s)\tsimulated RT60 (s)\tC50 energy\t")
	for band, centre := range acoustic.BandCentres {
		fmt.Fprintf(w, "%g\t%.3f\t%.3f\t%.3f\t%.3g\t\n", centre, sabine[band], eyring[band], rt60[band], early[band])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("Volume %.2f m³, surface %.2f m², %d early reflections\n",
		room.Scene.Data.Volume(), room.Scene.Data.Area(), len(results.ImageSource))
	return nil
}

type ExactCmd struct {
	Min            []float64 `name:"min" default:"0,0,0" help:"minimum corner of the box"`
	Max            []float64 `name:"max" default:"4,3,6" help:"maximum corner of the box"`
	Source         []float64 `name:"source" default:"1,1,1" help:"source position"`
	Receiver       []float64 `name:"receiver" default:"2,1,5" help:"receiver position"`
	Absorption     float64   `name:"absorption" default:"0.1" help:"absorption of every wall"`
	Scattering     float64   `name:"scattering" default:"0.1" help:"scattering of every wall"`
	Shells         int       `name:"shells" default:"3" help:"maximum reflection order per axis"`
	AngleDependent bool      `name:"angle-dependent" help:"use angle-dependent wall reflectance"`
	MaxDistance    float64   `name:"max-distance" help:"drop images further than this from the receiver"`
	SpeedOfSound   float64   `name:"speed-of-sound" default:"340" help:"speed of sound in m/s"`
}

func vector(name string, v []float64) (pt.Vector, error) {
	if len(v) != 3 {
		return pt.Vector{}, fmt.Errorf("--%s needs three components, got %d", name, len(v))
	}
	return geo.V(v[0], v[1], v[2]), nil
}

func (c ExactCmd) Run() error {
	var corners [4]pt.Vector
	for i, v := range []struct {
		name string
		v    []float64
	}{{"min", c.Min}, {"max", c.Max}, {"source", c.Source}, {"receiver", c.Receiver}} {
		var err error
		if corners[i], err = vector(v.name, v.v); err != nil {
			return err
		}
	}
	surface, err := scene.UniformSurface(c.Absorption, c.Scattering)
	if err != nil {
		return err
	}
	env := acoustic.DefaultEnvironment()
	env.SpeedOfSound = c.SpeedOfSound
	if err := env.Validate(); err != nil {
		return err
	}

	var opts []imagesource.ExactOption
	if c.AngleDependent {
		opts = append(opts, imagesource.WithAngleDependentReflection())
	}
	if c.MaxDistance > 0 {
		opts = append(opts, imagesource.WithMaxDistance(c.MaxDistance))
	}
	box := pt.Box{Min: corners[0], Max: corners[1]}
	impulses, err := imagesource.FindImpulses(box, corners[2], corners[3], surface, c.Shells, opts...)
	if err != nil {
		return err
	}
	sort.Slice(impulses, func(i, j int) bool {
		return impulses[i].Distance < impulses[j].Distance
	})

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "orders\tdistance (m)\ttime (ms)\tgain (dB)\t")
	for _, imp := range impulses {
		gain := imp.Volume.Mean() * acoustic.IntensityForDistance(imp.Distance)
		fmt.Fprintf(w, "%v\t%.3f\t%.2f\t%.1f\t\n", imp.Orders, imp.Distance, imp.Time(env)/goroom.MS, acoustic.ToDB(gain))
	}
	return w.Flush()
}

type InspectCmd struct {
	Mesh    string  `arg:"" name:"mesh" help:"mesh to inspect (3MF, OBJ or STL)" type:"existingfile"`
	Scale   float64 `name:"scale" default:"1" help:"model units per metre, for 3MF"`
	Depth   int     `name:"depth" default:"4" help:"voxel grid depth"`
	Padding float64 `name:"padding" default:"0.1" help:"padding around the mesh in metres"`
}

func (c InspectCmd) Run() error {
	placeholder, err := scene.UniformSurface(0.1, 0.1)
	if err != nil {
		return err
	}
	assign := scene.Assignment{scene.DefaultSurfaceName: placeholder}
	input := config.Input{Mesh: &config.MeshInput{Path: c.Mesh, Scale: c.Scale}}
	data, err := goroom.LoadData(input, assign)
	if err != nil {
		return err
	}
	s, err := voxel.NewScene(data, c.Depth, c.Padding)
	if err != nil {
		return err
	}

	bounds := data.BoundingBox()
	fmt.Printf("Triangles: %d (%d vertices)\n", len(data.Triangles), len(data.Vertices))
	fmt.Printf("Bounds:    %v - %v\n", bounds.Min, bounds.Max)
	fmt.Printf("Volume:    %.3f m³\n", data.Volume())
	fmt.Printf("Area:      %.3f m²\n", data.Area())
	fmt.Printf("Surfaces:  %v\n", data.SurfaceNames)
	fmt.Printf("Voxels:    %v\n", s.Voxels.Stats())
	fmt.Printf("Centre inside: %v\n", s.Inside(bounds.Center()))
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("goroom"),
		kong.Description("Acoustic raytracer and image-source simulator"),
		kong.UsageOnError(),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
