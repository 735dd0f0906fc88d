package exporter

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Secondary cameras are shrunk to this size before being overlaid.
	insetWidth  = 320
	insetHeight = 240

	outputLabel = "out"
)

// Positions are the overlay corners assigned to secondary cameras in
// order: top-left, top-right, bottom-left, bottom-right. A fifth secondary
// wraps around to top-left.
var Positions = [...]string{"10:10", "W-w-10:10", "10:H-h-10", "W-w-10:H-h-10"}

// Input is one camera clip fed to the engine.
type Input struct {
	Camera   string
	Path     string
	Start    float64
	Duration float64
}

// Step is one filter of the composition graph.
type Step interface {
	filter() string
}

// Scale resizes the video stream In and labels the result Out.
type Scale struct {
	In     string
	Out    string
	Width  int
	Height int
}

func (s Scale) filter() string {
	return fmt.Sprintf("[%s]scale=%d:%d[%s]", s.In, s.Width, s.Height, s.Out)
}

// Overlay draws Top over Base at Position and labels the result Out.
type Overlay struct {
	Base     string
	Top      string
	Position string
	Out      string
}

func (o Overlay) filter() string {
	return fmt.Sprintf("[%s][%s]overlay=%s[%s]", o.Base, o.Top, o.Position, o.Out)
}

// Graph is the composition of an export: the inputs in engine order, the
// index of the reference input and the filter chain layered on top of it.
// A graph with no steps passes the reference stream through unchanged.
type Graph struct {
	Inputs    []Input
	Reference int
	Steps     []Step
}

// BuildGraph lays out inputs with the reference camera as the full-size base
// and every other input scaled down and overlaid in turn. Overlays chain
// left to right, each consuming the previous result.
func BuildGraph(inputs []Input, reference string) (Graph, error) {
	ref := -1
	for i, in := range inputs {
		if in.Camera == reference {
			ref = i
			break
		}
	}
	if ref == -1 {
		return Graph{}, fmt.Errorf("%w: reference camera %q has no clip", ErrPrecondition, reference)
	}

	g := Graph{Inputs: inputs, Reference: ref}

	secondaries := make([]int, 0, len(inputs)-1)
	for i := range inputs {
		if i != ref {
			secondaries = append(secondaries, i)
		}
	}

	base := streamLabel(ref)
	for i, idx := range secondaries {
		inset := "cam" + strconv.Itoa(i)
		out := "tmp" + strconv.Itoa(i)
		if i == len(secondaries)-1 {
			out = outputLabel
		}

		g.Steps = append(g.Steps,
			Scale{In: streamLabel(idx), Out: inset, Width: insetWidth, Height: insetHeight},
			Overlay{Base: base, Top: inset, Position: Positions[i%len(Positions)], Out: out},
		)
		base = out
	}

	return g, nil
}

func streamLabel(input int) string {
	return strconv.Itoa(input) + ":v"
}

// Overlays returns the overlay steps in chain order.
func (g Graph) Overlays() []Overlay {
	var overlays []Overlay
	for _, s := range g.Steps {
		if o, ok := s.(Overlay); ok {
			overlays = append(overlays, o)
		}
	}
	return overlays
}

// FilterComplex serializes the steps into an ffmpeg -filter_complex value.
func (g Graph) FilterComplex() string {
	filters := make([]string, 0, len(g.Steps))
	for _, s := range g.Steps {
		filters = append(filters, s.filter())
	}
	return strings.Join(filters, ";")
}

// Args renders the full ffmpeg argument list writing to output.
func (g Graph) Args(output string) []string {
	args := []string{"-hide_banner", "-y"}
	for _, in := range g.Inputs {
		args = append(args,
			"-ss", formatSeconds(in.Start),
			"-t", formatSeconds(in.Duration),
			"-i", in.Path,
		)
	}

	if len(g.Steps) == 0 {
		args = append(args, "-map", streamLabel(g.Reference))
	} else {
		args = append(args, "-filter_complex", g.FilterComplex(), "-map", "["+outputLabel+"]")
	}

	return append(args, output)
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
