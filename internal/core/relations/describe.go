package relations

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

var describeNotes = []string{
	"  • Negative distances indicate erosion/shrinking (e.g., in_the_heart_of)",
	"  • Ring buffers exclude the reference feature itself (e.g., shores of lake)",
	"  • Buffer from 'center' vs 'boundary' determines buffer origin",
}

// DescribeAll renders every relation grouped by category for inclusion in a
// language-model prompt. The layout is stable so prompts are reproducible.
func (r *Registry) DescribeAll() string {
	var lines []string

	for _, category := range domain.Categories {
		cfgs := r.Configs(category)
		if len(cfgs) == 0 {
			continue
		}
		lines = append(lines, "\n"+strings.ToUpper(string(category))+" RELATIONS:")

		for _, rel := range cfgs {
			var dist string
			if rel.DefaultDistanceM != nil {
				d := *rel.DefaultDistanceM
				dist = fmt.Sprintf(" (default: %sm)", formatMeters(math.Abs(d)))
				if d < 0 {
					dist = fmt.Sprintf(" (default: %sm erosion)", formatMeters(math.Abs(d)))
				}
			}

			var flags []string
			if rel.RingOnly {
				flags = append(flags, "ring buffer")
			}
			if rel.BufferFrom != "" {
				flags = append(flags, "from "+string(rel.BufferFrom))
			}
			var flagInfo string
			if len(flags) > 0 {
				flagInfo = " [" + strings.Join(flags, ", ") + "]"
			}

			lines = append(lines, "  • "+rel.Name+dist+flagInfo, "    "+rel.Description)
			if len(rel.AppliesTo) > 0 {
				lines = append(lines, "    (commonly used with: "+strings.Join(rel.AppliesTo, ", ")+")")
			}
		}
	}

	lines = append(lines, "\nNOTES:")
	lines = append(lines, describeNotes...)
	return strings.Join(lines, "\n")
}

func formatMeters(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
