package storyboard

import (
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ivlev/reelcomposer/internal/spec"
	"github.com/ivlev/reelcomposer/internal/system"
	"github.com/ivlev/reelcomposer/internal/timeline"
)

// layerState is the resolved look of a visual clip at one instant.
type layerState struct {
	Alpha float64
	Zoom  float64
	PanX  float64
}

// stateAt evaluates opacity, animations and in/out transitions of v at the
// timeline time at. start and end bound the clip; end < 0 means open-ended.
func stateAt(v timeline.Visual, start, end, at float64) layerState {
	local := at - start
	st := layerState{Alpha: v.Opacity, Zoom: 1}

	for _, a := range v.Animations {
		val := a.ValueAt(local)
		switch a.Type {
		case timeline.AnimateZoom, timeline.AnimateScale:
			st.Zoom *= val
		case timeline.AnimatePan:
			st.PanX += val
		case timeline.AnimateFade:
			st.Alpha *= val
		}
	}

	if v.In != nil {
		st.Alpha *= v.In.Easing.Progress(local, v.In.Duration)
	}
	if v.Out != nil && end >= 0 {
		st.Alpha *= 1 - v.Out.Easing.Progress(at-(end-v.Out.Duration), v.Out.Duration)
	}
	st.Alpha = math.Max(0, math.Min(1, st.Alpha))
	return st
}

func window(c timeline.Clip) (start, end float64) {
	end, ok := c.EndTime()
	if !ok {
		end = -1
	}
	return c.StartTime(), end
}

// RenderFrame draws the timeline at time at onto a canvas of the given width.
// The canvas comes from the shared image pool; callers hand it back with
// system.PutImage once done.
func (r *Renderer) RenderFrame(s *spec.Specification, at float64) *image.RGBA {
	scale := float64(r.opts.FrameWidth) / float64(s.Settings.Width)
	height := int(math.Round(float64(s.Settings.Height) * scale))
	canvas := system.GetImage(image.Rect(0, 0, r.opts.FrameWidth, height))

	bg := s.Settings.BackgroundColor()
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for _, tr := range s.VisualLayers() {
		for _, c := range tr.ActiveClipsAt(at) {
			switch clip := c.(type) {
			case *timeline.VisualClip:
				r.drawVisual(canvas, clip, s.Settings.Width, s.Settings.Height, scale, at)
			case *timeline.TextClip:
				drawText(canvas, clip, scale, at)
			}
		}
	}

	for _, tx := range s.TransitionsAt(at) {
		drawTransition(canvas, tx, bg, at)
	}

	if r.opts.Label {
		label(canvas, 4, 14, formatTime(at), color.White)
	}
	return canvas
}

func (r *Renderer) drawVisual(canvas *image.RGBA, c *timeline.VisualClip, frameW, frameH int, scale, at float64) {
	start, end := window(c)
	st := stateAt(c.Visual, start, end, at)
	if st.Alpha <= 0 {
		return
	}

	src := r.images.load(c)
	w, h := c.Width, c.Height
	if w == 0 || h == 0 {
		w, h = frameW, frameH
		if src != nil {
			w, h = fit(src.Bounds().Dx(), src.Bounds().Dy(), frameW, frameH)
		}
	}

	sw := float64(w) * scale * st.Zoom
	sh := float64(h) * scale * st.Zoom
	x := (c.X-st.PanX)*scale - (sw-float64(w)*scale)/2
	y := c.Y*scale - (sh-float64(h)*scale)/2
	rect := image.Rect(int(x), int(y), int(x+sw), int(y+sh))
	if rect.Empty() {
		return
	}

	mask := image.NewUniform(color.Alpha{A: uint8(st.Alpha * 255)})
	if src == nil {
		fill := image.NewUniform(placeholderColor(c.Media))
		draw.DrawMask(canvas, rect, fill, image.Point{}, mask, image.Point{}, draw.Over)
		label(canvas, rect.Min.X+4, rect.Min.Y+14, c.Media, color.White)
		return
	}

	layer := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.ApproxBiLinear.Scale(layer, layer.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	draw.DrawMask(canvas, rect, layer, image.Point{}, mask, image.Point{}, draw.Over)
}

// fit scales srcW x srcH to fit inside dstW x dstH, keeping the aspect ratio.
func fit(srcW, srcH, dstW, dstH int) (int, int) {
	if srcW == 0 || srcH == 0 {
		return dstW, dstH
	}
	k := math.Min(float64(dstW)/float64(srcW), float64(dstH)/float64(srcH))
	return int(float64(srcW) * k), int(float64(srcH) * k)
}

func drawText(canvas *image.RGBA, c *timeline.TextClip, scale, at float64) {
	start, end := window(c)
	st := stateAt(c.Visual, start, end, at)
	if st.Alpha <= 0 {
		return
	}

	col, err := spec.ParseColor(c.Font.Color)
	if err != nil {
		col = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	}
	col.A = uint8(st.Alpha * 255)
	col.R = uint8(float64(col.R) * st.Alpha)
	col.G = uint8(float64(col.G) * st.Alpha)
	col.B = uint8(float64(col.B) * st.Alpha)

	b := canvas.Bounds()
	width := font.MeasureString(basicfont.Face7x13, c.Text).Round()
	x := int(c.X * scale)
	switch c.Align {
	case timeline.AlignCenter:
		x += (b.Dx() - width) / 2
	case timeline.AlignRight:
		x = b.Dx() - width - x
	}
	y := int(c.Y * scale)
	if c.Y == 0 {
		y = b.Dy() / 2
	}
	label(canvas, x, y, c.Text, col)
}

// drawTransition dims the frame toward the background as the transition
// reaches its midpoint and draws its progress along the bottom edge.
func drawTransition(canvas *image.RGBA, tx *timeline.Transition, bg color.RGBA, at float64) {
	p := tx.ProgressAt(at)
	dip := 1 - math.Abs(2*p-1)
	b := canvas.Bounds()

	mask := image.NewUniform(color.Alpha{A: uint8(dip * 255)})
	draw.DrawMask(canvas, b, image.NewUniform(bg), image.Point{}, mask, image.Point{}, draw.Over)

	bar := image.Rect(0, b.Dy()-3, int(float64(b.Dx())*p), b.Dy())
	draw.Draw(canvas, bar, image.NewUniform(color.RGBA{R: 0xff, G: 0xc8, A: 0xff}), image.Point{}, draw.Src)
}

func label(dst draw.Image, x, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// placeholderColor gives every unreadable source a stable muted color.
func placeholderColor(name string) color.RGBA {
	h := fnv.New32a()
	h.Write([]byte(name))
	v := h.Sum32()
	return color.RGBA{R: 64 + uint8(v)%128, G: 64 + uint8(v>>8)%128, B: 64 + uint8(v>>16)%128, A: 0xff}
}
