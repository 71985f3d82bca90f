package flamegraph

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"sort"
	"strconv"
	"strings"
)

// SVGOptions configures the flame graph SVG output.
type SVGOptions struct {
	Title       string
	Width       int
	Height      int
	ColorScheme string // "hot", "cold", "mem"
	Unit        string // label for stack values, e.g. "samples" or "ns"
}

// DefaultSVGOptions returns sensible defaults.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Title:       "Flame Graph",
		Width:       1200,
		ColorScheme: "hot",
		Unit:        "samples",
	}
}

// frame represents a stack frame in the flame graph tree.
type frame struct {
	name     string
	value    int64
	children map[string]*frame
}

func newFrame(name string) *frame {
	return &frame{
		name:     name,
		children: make(map[string]*frame),
	}
}

// parseFolded builds a frame tree from folded stack lines. Lines without
// a count are counted once.
func parseFolded(collapsed io.Reader) (*frame, error) {
	root := newFrame("root")

	scanner := bufio.NewScanner(collapsed)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx := strings.LastIndexByte(line, ' ')
		if idx <= 0 {
			continue
		}
		count, err := strconv.ParseInt(line[idx+1:], 10, 64)
		if err != nil || count <= 0 {
			count = 1
		}

		node := root
		for _, fname := range strings.Split(line[:idx], ";") {
			child, ok := node.children[fname]
			if !ok {
				child = newFrame(fname)
				node.children[fname] = child
			}
			child.value += count
			node = child
		}
		root.value += count
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read collapsed stacks: %w", err)
	}
	return root, nil
}

// GenerateSVG renders collapsed stacks as an SVG flame graph.
func GenerateSVG(collapsed io.Reader, svg io.Writer, opts SVGOptions) error {
	if opts.Width == 0 {
		opts.Width = 1200
	}
	if opts.Unit == "" {
		opts.Unit = "samples"
	}

	root, err := parseFolded(collapsed)
	if err != nil {
		return err
	}
	totalSamples := root.value
	if totalSamples == 0 {
		return fmt.Errorf("no samples found in collapsed stacks")
	}

	// Calculate dimensions
	frameHeight := 16
	fontSize := 12
	maxDepth := getMaxDepth(root, 0)
	chartHeight := (maxDepth + 2) * frameHeight
	headerHeight := 40
	totalHeight := chartHeight + headerHeight + 20

	if opts.Height == 0 {
		opts.Height = totalHeight
	}

	// Write SVG header
	fmt.Fprintf(svg, `<?xml version="1.0" standalone="no"?>
<!DOCTYPE svg PUBLIC "-//W3C//DTD SVG 1.1//EN" "http://www.w3.org/Graphics/SVG/1.1/DTD/svg1.1.dtd">
<svg version="1.1" width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">
<style>
  .func:hover { stroke:black; stroke-width:0.5; cursor:pointer; }
  text { font-family: monospace; font-size: %dpx; }
</style>
<rect x="0" y="0" width="%d" height="%d" fill="white"/>
<text x="%d" y="20" text-anchor="middle" style="font-size:16px; font-weight:bold;">%s</text>
<text x="%d" y="35" text-anchor="middle" style="font-size:12px; fill:#666;">(%d %s)</text>
`,
		opts.Width, opts.Height, fontSize,
		opts.Width, opts.Height,
		opts.Width/2, html.EscapeString(opts.Title),
		opts.Width/2, totalSamples, html.EscapeString(opts.Unit))

	// Render frames bottom-up
	margin := 10
	chartWidth := opts.Width - 2*margin
	baseY := opts.Height - 20
	r := renderer{w: svg, frameHeight: frameHeight, baseY: baseY, total: totalSamples, scheme: opts.ColorScheme, unit: opts.Unit}
	r.render(root, margin, chartWidth, 0)

	fmt.Fprintln(svg, "</svg>")
	return nil
}

type renderer struct {
	w           io.Writer
	frameHeight int
	baseY       int
	total       int64
	scheme      string
	unit        string
}

func (r *renderer) render(f *frame, x, width, depth int) {
	if width < 1 || f.value == 0 {
		return
	}

	y := r.baseY - (depth * r.frameHeight)
	red, green, blue := frameColor(depth, r.scheme)

	fmt.Fprintf(r.w, `<g class="func">
<rect x="%d" y="%d" width="%d" height="%d" fill="rgb(%d,%d,%d)" rx="1"/>
`, x, y-r.frameHeight, width, r.frameHeight-1, red, green, blue)

	if label := fitLabel(f.name, width); label != "" {
		fmt.Fprintf(r.w, `<text x="%d" y="%d" fill="black">%s</text>
`, x+2, y-4, html.EscapeString(label))
	}

	pctStr := fmt.Sprintf("%.1f%%", float64(f.value)/float64(r.total)*100)
	fmt.Fprintf(r.w, `<title>%s (%d %s, %s)</title>
</g>
`, html.EscapeString(f.name), f.value, html.EscapeString(r.unit), pctStr)

	childX := x
	for _, child := range f.sortedChildren() {
		childWidth := int(float64(width) * float64(child.value) / float64(f.value))
		if childWidth < 1 {
			childWidth = 1
		}
		r.render(child, childX, childWidth, depth+1)
		childX += childWidth
	}
}

// fitLabel truncates name to the approximate character capacity of width.
func fitLabel(name string, width int) string {
	if width <= 40 {
		return ""
	}
	maxChars := (width - 4) / 7
	if len(name) <= maxChars {
		return name
	}
	if maxChars > 3 {
		return name[:maxChars-2] + ".."
	}
	return ""
}

func (f *frame) sortedChildren() []*frame {
	names := make([]string, 0, len(f.children))
	for name := range f.children {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*frame, len(names))
	for i, name := range names {
		out[i] = f.children[name]
	}
	return out
}

func frameColor(depth int, scheme string) (int, int, int) {
	// Deterministic color based on depth
	switch scheme {
	case "cold":
		g := 50 + (depth*30)%150
		b := 150 + (depth*20)%100
		return 30, g, b
	case "mem":
		g := 190 + (depth*15)%60
		return 30, g, 30
	default: // "hot"
		r := 200 + (depth*15)%55
		g := 50 + (depth*40)%150
		return r, g, 30
	}
}

func getMaxDepth(f *frame, depth int) int {
	max := depth
	for _, child := range f.children {
		d := getMaxDepth(child, depth+1)
		if d > max {
			max = d
		}
	}
	return max
}

