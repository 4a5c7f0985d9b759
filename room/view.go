package room

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"

	"github.com/fogleman/gg"
	"github.com/fogleman/pt/pt"

	"github.com/jdginn/go-acoustic-raytracer/room/acoustic"
	"github.com/jdginn/go-acoustic-raytracer/room/raytracer"
	"github.com/jdginn/go-acoustic-raytracer/room/scene"
)

// View draws a section through the room
type View struct {
	Data     *scene.Data
	Source   pt.Vector
	Receiver pt.Vector
	// Radius of the receiver sphere, in metres
	Radius float64
	XSize  int
	YSize  int
	Plane  Plane
	// These cache the values needed to scale and translate from the scene to the requested image size
	scale      float64
	xTranslate float64
	yTranslate float64
}

func (o *View) project(v pt.Vector) Point2D {
	return To2D(o.Plane.Project(v))
}

// BoundingBox of the section, the source and the receiver in plane coordinates
func (view *View) BoundingBox() (XMin, XMax, YMin, YMax float64) {
	points := Path2D{view.project(view.Source), view.project(view.Receiver)}
	for _, path := range view.Plane.Section(view.Data) {
		points = append(points, path...)
	}
	return points.BoundingBox()
}

func (view *View) computeScaleAndTranslation() {
	XMin, XMax, YMin, YMax := view.BoundingBox()
	view.xTranslate = -XMin
	view.yTranslate = -YMin
	XScale := float64(view.XSize) / (XMax - XMin)
	YScale := float64(view.YSize) / (YMax - YMin)
	view.scale = math.Min(XScale, YScale)
}

func (o *View) translateAndScale(p Point2D) Point2D {
	if o.scale == 0 {
		o.computeScaleAndTranslation()
	}
	return p.Translate(o.xTranslate, o.yTranslate).Scale(o.scale)
}

// DrawPaths draws the room section with the visual rays projected onto it. Rays that reached
// the receiver are red.
func (view *View) DrawPaths(visual [][]raytracer.Reflection) image.Image {
	c := gg.NewContext(view.XSize, view.YSize)
	c.SetRGB(1, 1, 1)
	c.Clear()

	c.SetRGB(0, 0, 0)
	c.SetLineWidth(3)
	for _, lines := range view.Plane.Section(view.Data) {
		for i := 0; i < len(lines)-1; i++ {
			p1 := view.translateAndScale(lines[i])
			p2 := view.translateAndScale(lines[i+1])
			c.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
		}
	}
	c.Stroke()

	c.SetLineWidth(1)
	for _, reflections := range visual {
		positions, heard := VisualPath(view.Source, reflections)
		if heard {
			c.SetRGBA(1, 0, 0, 0.8)
		} else {
			c.SetRGBA(0.5, 0.5, 0.5, 0.3)
		}
		p1 := view.translateAndScale(view.project(positions[0]))
		for _, pos := range positions[1:] {
			p2 := view.translateAndScale(view.project(pos))
			c.DrawLine(p1.X, p1.Y, p2.X, p2.Y)
			p1 = p2
		}
		c.Stroke()
	}

	src := view.translateAndScale(view.project(view.Source))
	c.SetRGB(0, 0, 1)
	c.DrawCircle(src.X, src.Y, 4)
	c.Fill()

	rcv := view.translateAndScale(view.project(view.Receiver))
	c.SetRGB(0, 0.6, 0)
	c.DrawCircle(rcv.X, rcv.Y, 2)
	c.Fill()
	c.DrawCircle(rcv.X, rcv.Y, math.Max(view.Radius*view.scale, 3))
	c.Stroke()

	return c.Image()
}

// SavePNG writes an image drawn by a View
func SavePNG(filename string, img image.Image) error {
	if err := gg.SavePNG(filename, img); err != nil {
		return fmt.Errorf("saving %s: %w", filename, err)
	}
	return nil
}

// decayXYs drops the silent tail, which plots cannot draw
func decayXYs(decay []float64, sampleRate float64) plotter.XYs {
	xys := make(plotter.XYs, 0, len(decay))
	for i, db := range decay {
		if math.IsInf(db, 0) || math.IsNaN(db) {
			break
		}
		xys = append(xys, plotter.XY{X: float64(i) / sampleRate, Y: db})
	}
	return xys
}

// PlotHistogram saves a plot of the Schroeder decay of every band in h
func PlotHistogram(filename string, X, Y int, h raytracer.Histogram) error {
	p := plot.New()
	p.Title.Text = "Energy decay"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Energy (dB)"
	p.Legend.Top = true

	for band, centre := range acoustic.BandCentres {
		xys := decayXYs(SchroederDecay(h.Band(band)), h.SampleRate)
		if len(xys) < 2 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(band)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%g Hz", centre), line)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(font.Length(X), font.Length(Y), filename); err != nil {
		return fmt.Errorf("saving %s: %w", filename, err)
	}
	return nil
}

// PlotImpulses saves a scatter plot of the mean gain of each impulse against its delay after
// the first arrival
func PlotImpulses(filename string, X, Y int, impulses []acoustic.Impulse, env acoustic.Environment) error {
	p := plot.New()
	p.Title.Text = "Early reflections"
	p.X.Label.Text = "Delay (ms)"
	p.Y.Label.Text = "Reflection gain (dB)"

	first := math.Inf(1)
	for _, imp := range impulses {
		first = math.Min(first, imp.Time(env))
	}
	xys := make(plotter.XYs, 0, len(impulses))
	for _, imp := range impulses {
		gain := math.Abs(imp.Volume.Mean())
		if gain == 0 {
			continue
		}
		xys = append(xys, plotter.XY{X: (imp.Time(env) - first) / MS, Y: acoustic.ToDB(gain)})
	}
	if len(xys) > 0 {
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return err
		}
		p.Add(scatter)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(font.Length(X), font.Length(Y), filename); err != nil {
		return fmt.Errorf("saving %s: %w", filename, err)
	}
	return nil
}
