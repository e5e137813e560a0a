package effects

import (
	"fmt"
	"strings"

	"github.com/ivlev/reelcomposer/internal/timeline"
)

// Frame carries the output parameters every filter needs. Total is the
// timeline duration and closes the window of open-ended clips.
type Frame struct {
	Width, Height int
	FPS           float64
	Total         float64
}

// Window returns the time a clip is on screen, clamped to the frame's total.
func (f Frame) Window(c timeline.Clip) (start, end float64) {
	start = c.StartTime()
	end, ok := c.EndTime()
	if !ok || end > f.Total {
		end = f.Total
	}
	return start, end
}

// Enable is the overlay enable expression for a clip: active in [start, end).
func (f Frame) Enable(c timeline.Clip) string {
	start, end := f.Window(c)
	return fmt.Sprintf("gte(t,%.3f)*lt(t,%.3f)", start, end)
}

// VisualFilter builds the chain applied to the input stream of an image or
// video clip before it is overlaid. The stream is shifted so that its first
// frame lands on the clip start.
func VisualFilter(c *timeline.VisualClip, f Frame) string {
	start, end := f.Window(c)
	filters := []string{
		fmt.Sprintf("trim=duration=%.3f", end-start),
		fmt.Sprintf("setpts=PTS-STARTPTS+%.3f/TB", start),
	}

	if c.Width > 0 && c.Height > 0 {
		filters = append(filters, fmt.Sprintf("scale=%d:%d", c.Width, c.Height))
	} else {
		filters = append(filters, fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", f.Width, f.Height))
	}
	if z := zoomFilter(c, start); z != "" {
		filters = append(filters, z)
	}

	filters = append(filters, "format=rgba")
	if c.Opacity < 1 {
		filters = append(filters, fmt.Sprintf("colorchannelmixer=aa=%.3f", c.Opacity))
	}
	if c.In != nil {
		filters = append(filters, fmt.Sprintf("fade=t=in:st=%.3f:d=%.3f:alpha=1", start, c.In.Duration))
	}
	if c.Out != nil && !c.IsOpenEnded() {
		filters = append(filters, fmt.Sprintf("fade=t=out:st=%.3f:d=%.3f:alpha=1", end-c.Out.Duration, c.Out.Duration))
	}
	return strings.Join(filters, ",")
}

// Position is the overlay coordinate pair of a visual clip. Pan animations
// shift x over their window.
func Position(c *timeline.VisualClip) (x, y string) {
	x = fmt.Sprintf("%.3f", c.X)
	y = fmt.Sprintf("%.3f", c.Y)
	for _, a := range c.Animations {
		if a.Type == timeline.AnimatePan {
			x = fmt.Sprintf("%.3f-(%s)", c.X, ramp(a, c.StartTime()))
		}
	}
	return x, y
}

// zoomFilter scales the stream per frame by the last zoom or scale animation.
func zoomFilter(c *timeline.VisualClip, start float64) string {
	var expr string
	for _, a := range c.Animations {
		if a.Type == timeline.AnimateZoom || a.Type == timeline.AnimateScale {
			expr = ramp(a, start)
		}
	}
	if expr == "" {
		return ""
	}
	return fmt.Sprintf("scale=w='trunc(iw*(%s)/2)*2':h='trunc(ih*(%s)/2)*2':eval=frame", expr, expr)
}

// ramp is a linear from→to expression over the animation window, in timeline
// seconds. Easing is not applied.
func ramp(a timeline.Animation, clipStart float64) string {
	begin := clipStart + a.Offset
	return fmt.Sprintf("%.3f+(%.3f)*clip((t-%.3f)/%.3f,0,1)", a.From, a.To-a.From, begin, a.Duration)
}

// TextFilter builds a drawtext filter for a text clip.
func TextFilter(c *timeline.TextClip, f Frame) string {
	start, end := f.Window(c)

	var x string
	switch c.Align {
	case timeline.AlignLeft:
		x = fmt.Sprintf("%.3f", c.X)
	case timeline.AlignRight:
		x = fmt.Sprintf("w-text_w-%.3f", c.X)
	default:
		x = fmt.Sprintf("(w-text_w)/2+%.3f", c.X)
	}
	y := fmt.Sprintf("%.3f", c.Y)
	if c.Y == 0 {
		y = "(h-text_h)/2"
	}

	font := c.Font.Family
	switch c.Font.Weight {
	case "bold":
		font += "\\:style=Bold"
	case "light":
		font += "\\:style=Light"
	}

	opts := []string{
		"text='" + EscapeText(c.Text) + "'",
		"font='" + font + "'",
		fmt.Sprintf("fontsize=%d", c.Font.Size),
		"fontcolor=" + c.Font.Color,
		"x=" + x,
		"y=" + y,
		fmt.Sprintf("alpha='%s'", textAlpha(c, start, end)),
		fmt.Sprintf("enable='%s'", f.Enable(c)),
	}
	return "drawtext=" + strings.Join(opts, ":")
}

func textAlpha(c *timeline.TextClip, start, end float64) string {
	alpha := fmt.Sprintf("%.3f", c.Opacity)
	if c.In != nil {
		alpha += fmt.Sprintf("*clip((t-%.3f)/%.3f,0,1)", start, c.In.Duration)
	}
	if c.Out != nil && !c.IsOpenEnded() {
		alpha += fmt.Sprintf("*clip((%.3f-t)/%.3f,0,1)", end, c.Out.Duration)
	}
	return alpha
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, "’",
	`:`, `\:`,
	`%`, `\%`,
)

// EscapeText makes caption text safe inside a quoted drawtext option.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// AudioFilter builds the chain for one audio clip: trim to the clip length,
// gain (clip volume times track volume), envelope, fades and a delay to the
// clip start. A crossfade lengthens both fades to at least the crossfade time.
func AudioFilter(c *timeline.AudioClip, trackVolume float64, f Frame) string {
	start, end := f.Window(c)
	length := end - start

	filters := []string{
		fmt.Sprintf("atrim=duration=%.3f", length),
		"asetpts=PTS-STARTPTS",
	}
	if c.Normalize {
		filters = append(filters, "loudnorm")
	}
	filters = append(filters, fmt.Sprintf("volume=%.3f", c.Volume*trackVolume))
	if len(c.Envelope) > 0 {
		filters = append(filters, fmt.Sprintf("volume='%s':eval=frame", EnvelopeExpr(c.Envelope)))
	}

	fadeIn, fadeOut := c.FadeIn, c.FadeOut
	if c.Crossfade > fadeIn {
		fadeIn = c.Crossfade
	}
	if c.Crossfade > fadeOut {
		fadeOut = c.Crossfade
	}
	if fadeIn > 0 {
		filters = append(filters, fmt.Sprintf("afade=t=in:st=0:d=%.3f", fadeIn))
	}
	if fadeOut > 0 && !c.IsOpenEnded() {
		filters = append(filters, fmt.Sprintf("afade=t=out:st=%.3f:d=%.3f", max(length-fadeOut, 0), fadeOut))
	}

	if ms := int(start * 1000); ms > 0 {
		filters = append(filters, fmt.Sprintf("adelay=%d:all=1", ms))
	}
	return strings.Join(filters, ",")
}

// EnvelopeExpr turns envelope points into a piecewise-linear expression of the
// clip-local time t, holding the first level before the first point and the
// last level after the last one.
func EnvelopeExpr(points []timeline.EnvelopePoint) string {
	if len(points) == 1 {
		return fmt.Sprintf("%.3f", points[0].Level)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "if(lte(t,%.3f),%.3f,", points[0].Time, points[0].Level)
	open := 1
	for i := 1; i < len(points); i++ {
		prev, next := points[i-1], points[i]
		span := next.Time - prev.Time
		if span <= 0 {
			continue
		}
		fmt.Fprintf(&b, "if(lte(t,%.3f),%.3f+(t-%.3f)/%.3f*(%.3f),",
			next.Time, prev.Level, prev.Time, span, next.Level-prev.Level)
		open++
	}
	fmt.Fprintf(&b, "%.3f", points[len(points)-1].Level)
	b.WriteString(strings.Repeat(")", open))
	return b.String()
}
