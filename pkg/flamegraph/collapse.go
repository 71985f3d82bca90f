package flamegraph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/pprof/profile"
)

// CollapseProfile converts pprof samples to folded stack format using the
// sample value at valueIndex, and returns the total of that value.
// Output: "func1;func2;func3 count\n", root first.
func CollapseProfile(p *profile.Profile, valueIndex int, w io.Writer) int64 {
	stacks := make(map[string]int64)
	var total int64

	for _, s := range p.Sample {
		if valueIndex >= len(s.Value) {
			continue
		}
		v := s.Value[valueIndex]
		if v == 0 {
			continue
		}

		var names []string
		// pprof stores leaf first; inlined lines within a location are
		// also leaf first.
		for i := len(s.Location) - 1; i >= 0; i-- {
			lines := s.Location[i].Line
			for j := len(lines) - 1; j >= 0; j-- {
				if lines[j].Function != nil {
					names = append(names, shortName(lines[j].Function.Name))
				}
			}
		}
		if len(names) == 0 {
			continue
		}
		stacks[strings.Join(names, ";")] += v
		total += v
	}

	WriteFolded(w, stacks)
	return total
}

// WriteFolded writes stack counts in folded format, sorted by stack for
// deterministic output.
func WriteFolded(w io.Writer, stacks map[string]int64) {
	keys := make([]string, 0, len(stacks))
	for k := range stacks {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if stacks[k] <= 0 {
			continue
		}
		fmt.Fprintf(w, "%s %d\n", k, stacks[k])
	}
}

// shortName strips the package path, keeping "pkg.Func".
func shortName(name string) string {
	if idx := strings.LastIndex(name, "/"); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
