// Command compdemo runs the compositor against headless outputs.
//
// It animates a small scene for a number of steps, then covers the first
// output with a fullscreen surface so that output can bypass compositing,
// and finally writes one PNG per output.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"github.com/gogpu/compositor"
	"github.com/gogpu/compositor/config"
	"github.com/gogpu/compositor/headless"
	"github.com/gogpu/compositor/render"
	"github.com/gogpu/compositor/scene"
	"golang.org/x/image/math/f64"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file (default: one 1280x720 output)")
		steps      = flag.Int("steps", 60, "animation steps")
		interval   = flag.Duration("interval", 16*time.Millisecond, "delay between steps")
		outDir     = flag.String("out", ".", "directory for output PNGs")
		watch      = flag.Bool("watch", false, "reload log_level when the config file changes")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	var level slog.LevelVar
	level.Set(cfg.LogLevel)
	compositor.SetLogger(slog.New(logHandler(&level)))

	if *watch && *configPath != "" {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			err := config.Watch(ctx, *configPath, func(c *config.Config) { level.Set(c.LogLevel) })
			if err != nil {
				log.Printf("Config watch stopped: %v", err)
			}
		}()
	}

	display := headless.NewDisplay(cfg.HeadlessOutputs()...)
	stack := scene.NewStack()
	bounds := display.Bounds()

	background := addSurface(stack, scene.SurfaceParams{Position: bounds})
	background.Submit(gradient(bounds.Size()))

	window := addSurface(stack, scene.SurfaceParams{Position: image.Rect(40, 40, 360, 280), Alpha: 0.85, Shaped: true})
	badge := addSurface(stack, scene.SurfaceParams{Position: image.Rect(0, 0, 96, 96), Shaped: true})
	badge.Submit(drawBadge(96))

	factory, err := compositor.NewDefaultFactory(stack, cfg.RendererFactory())
	if err != nil {
		log.Fatalf("Failed to create factory: %v", err)
	}
	c, err := compositor.New(stack, display, factory, cfg.Options()...)
	if err != nil {
		log.Fatalf("Failed to create compositor: %v", err)
	}
	if err := c.Start(); err != nil {
		log.Fatalf("Failed to start compositor: %v", err)
	}

	for i := range *steps {
		t := float64(i) / float64(max(*steps, 1))
		stack.Batch(func() {
			window.Move(image.Pt(40+int(t*float64(bounds.Dx()-360)), 40+int(60*math.Sin(t*2*math.Pi))))
			window.Submit(drawWindow(320, 240, t))

			cx, cy := bounds.Dx()/2, bounds.Dy()/2
			badge.SetPosition(image.Rect(cx-48, cy-48, cx+48, cy+48))
			badge.SetTransformation(rotation(t * 2 * math.Pi))
		})
		time.Sleep(*interval)
	}

	// A fullscreen opaque surface on the first output makes it eligible
	// for bypass.
	first := display.Outputs()[0].ViewArea()
	cover := addSurface(stack, scene.SurfaceParams{Position: first})
	cover.Submit(render.NewSolidBuffer(first.Size(), color.RGBA{20, 20, 60, 255}, true))
	time.Sleep(max(4*(*interval), 100*time.Millisecond))

	if err := c.Close(); err != nil {
		log.Fatalf("Failed to stop compositor: %v", err)
	}

	var g errgroup.Group
	for _, o := range display.Outputs() {
		g.Go(func() error {
			path := filepath.Join(*outDir, fmt.Sprintf("output-%d.png", o.ID()))
			if err := savePNG(path, o.Snapshot()); err != nil {
				return err
			}
			log.Printf("Output %d saved to %s (%d composited, %d bypassed)\n", o.ID(), path, o.Posts(), o.Bypasses())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}
}

// logHandler logs text to a terminal and JSON otherwise.
func logHandler(level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.NewJSONHandler(os.Stderr, opts)
}

func addSurface(stack *scene.Stack, p scene.SurfaceParams) *scene.Surface {
	s := scene.NewSurface(p)
	if err := stack.Add(s); err != nil {
		log.Fatalf("Failed to add surface: %v", err)
	}
	return s
}

func gradient(size image.Point) *render.ImageBuffer {
	img := image.NewRGBA(image.Rectangle{Max: size})
	for y := range size.Y {
		t := float64(y) / float64(max(size.Y, 1))
		c := color.RGBA{uint8(25 + t*100), uint8(50 + t*75), uint8(100 + t*50), 255}
		for x := range size.X {
			img.SetRGBA(x, y, c)
		}
	}
	return render.NewImageBuffer(img, false)
}

// drawWindow paints a client window whose body color cycles with t.
func drawWindow(w, h int, t float64) *render.ImageBuffer {
	dc := gg.NewContext(w, h)
	dc.DrawRoundedRectangle(0, 0, float64(w), float64(h), 12)
	dc.SetRGB(0.5+0.5*math.Cos(2*math.Pi*t), 0.5+0.5*math.Cos(2*math.Pi*(t-1.0/3)), 0.5+0.5*math.Cos(2*math.Pi*(t-2.0/3)))
	dc.Fill()

	dc.DrawRoundedRectangle(0, 0, float64(w), 28, 12)
	dc.DrawRectangle(0, 14, float64(w), 14)
	dc.SetRGB(0.15, 0.15, 0.2)
	dc.Fill()
	for i, c := range []color.RGBA{{237, 106, 94, 255}, {245, 191, 79, 255}, {98, 197, 84, 255}} {
		dc.DrawCircle(float64(16+i*20), 14, 6)
		dc.SetColor(c)
		dc.Fill()
	}
	return render.NewBufferFromImage(dc.Image(), false)
}

// drawBadge paints a size-sized ring with a bar, so its rotation is visible.
func drawBadge(size int) *render.ImageBuffer {
	dc := gg.NewContext(size, size)
	r := float64(size) / 2
	dc.DrawCircle(r, r, r-4)
	dc.SetRGB255(250, 200, 40)
	dc.Fill()
	dc.DrawRectangle(r-4, 8, 8, r-8)
	dc.SetRGB255(40, 40, 60)
	dc.Fill()
	return render.NewBufferFromImage(dc.Image(), false)
}

func rotation(angle float64) f64.Mat4 {
	sin, cos := math.Sincos(angle)
	return f64.Mat4{
		cos, -sin, 0, 0,
		sin, cos, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
