package output

import (
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"

	"github.com/vulnverified/altsweep/internal/engine"
)

// Version is set via ldflags at build time.
var Version = "dev"

// WriteHeader prints the altsweep banner.
func WriteHeader(w io.Writer, noColor bool) {
	fmt.Fprintf(w, "%s - subdomain permutation and resolution\n\n", styled(color.Bold, noColor).Sprintf("altsweep %s", Version))
}

// WriteSummary prints the post-run summary.
func WriteSummary(w io.Writer, result *engine.RunResult, noColor bool) {
	bold := styled(color.Bold, noColor)
	warn := styled(color.FgYellow, noColor)

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d parsed, %d skipped\n", bold.Sprint("Domains:"), result.Domains-len(result.Skipped), len(result.Skipped))
	if len(result.ZoneTransfers) > 0 {
		fmt.Fprintf(w, "%s %d added from zone transfers\n", bold.Sprint("Seeds:"), result.Expanded)
	}
	fmt.Fprintf(w, "%s %d generated, %d unique\n", bold.Sprint("Candidates:"), result.Generated, result.Candidates)
	fmt.Fprintf(w, "%s %d of %d processed\n", bold.Sprint("Resolved:"), len(result.Resolved), result.Processed)

	if len(result.Suppressed) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s %d values throttled (likely wildcard DNS)\n", warn.Sprint("!"), len(result.Suppressed))
		values := make([]string, 0, len(result.Suppressed))
		for v := range result.Suppressed {
			values = append(values, v)
		}
		slices.SortFunc(values, func(a, b string) int {
			if d := result.Suppressed[b] - result.Suppressed[a]; d != 0 {
				return d
			}
			if a < b {
				return -1
			}
			return 1
		})
		for _, v := range values {
			fmt.Fprintf(w, "  %s (%d more suppressed)\n", v, result.Suppressed[v])
		}
	}

	if len(result.ZoneTransfers) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s Zone transfer enabled for %d zones\n", warn.Sprint("!"), len(result.ZoneTransfers))
		for _, zone := range result.ZoneTransfers {
			fmt.Fprintf(w, "  %s\n", zone)
		}
	}

	if result.Interrupted {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s Interrupted: %d of %d candidates processed\n", warn.Sprint("!"), result.Processed, result.Candidates)
	}
}

func styled(attr color.Attribute, noColor bool) *color.Color {
	c := color.New(attr)
	if noColor {
		c.DisableColor()
	}
	return c
}
