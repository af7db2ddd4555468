package finance

import (
	"fmt"
	"sort"
	"strings"

	"stockTrendPCA/internal/storage"

	"github.com/vicanso/go-charts/v2"
)

// MakeUsageChart draws a pie of analyses per source (api, telegram, cli).
func MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	if len(stats) == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	sources := sortedSources(stats)
	total := 0
	for _, src := range sources {
		total += stats[src].Count
	}

	values := make([]float64, 0, len(sources))
	labels := make([]string, 0, len(sources))
	for _, src := range sources {
		n := stats[src].Count
		values = append(values, float64(n))
		labels = append(labels, fmt.Sprintf("%s (%.1f%%)", src, float64(n)/float64(total)*100))
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Analyses by Source (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatUsageStatsText summarises usage per source with its most analysed
// symbols.
func FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	if len(stats) == 0 {
		return "No analyses recorded for the specified period."
	}

	sources := sortedSources(stats)
	total := 0
	for _, src := range sources {
		total += stats[src].Count
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Usage (%d days)\n\n", days)
	fmt.Fprintf(&b, "Total analyses: %d\n\n", total)
	for _, src := range sources {
		st := stats[src]
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", src, st.Count, float64(st.Count)/float64(total)*100)

		type symCount struct {
			sym   string
			count int
		}
		syms := make([]symCount, 0, len(st.Symbols))
		for s, c := range st.Symbols {
			syms = append(syms, symCount{s, c})
		}
		sort.Slice(syms, func(i, j int) bool {
			if syms[i].count != syms[j].count {
				return syms[i].count > syms[j].count
			}
			return syms[i].sym < syms[j].sym
		})
		for i, s := range syms {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  • %s: %d\n", s.sym, s.count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sortedSources(stats map[string]*storage.UsageStats) []string {
	out := make([]string, 0, len(stats))
	for src := range stats {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
