package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"stockTrendPCA/internal/analysis"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var start, end, window, symbols, out string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one PCA and print the summary",
		Example: `  stockpca analyze --start 2024-09-01 --end 2024-10-01
  stockpca analyze --symbols TCS.NS,INFY.NS,ITC.NS --window 3m --out ./report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.wire(cmd.Context()); err != nil {
				return err
			}
			req := analysis.Request{
				Start:      start,
				End:        end,
				Window:     window,
				Source:     analysis.SourceCLI,
				SkipCharts: out == "",
			}
			for _, s := range strings.Split(symbols, ",") {
				if s = strings.TrimSpace(s); s != "" {
					req.Symbols = append(req.Symbols, s)
				}
			}

			rep, err := a.service.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			if out != "" {
				return writeReport(out, rep)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default from DEFAULT_START)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD, exclusive (default from DEFAULT_END)")
	cmd.Flags().StringVar(&window, "window", "", "Lookback ending today, e.g. 30d, 6w, 3m, 1y; overrides --start/--end")
	cmd.Flags().StringVar(&symbols, "symbols", "", "Comma-separated symbols (default: basket)")
	cmd.Flags().StringVar(&out, "out", "", "Directory for report.json, trend.png and returns.png")
	return cmd
}

func printReport(w io.Writer, rep *analysis.Report) {
	res := rep.Result
	sum := res.Summary
	fmt.Fprintf(w, "Window:             %s (%d trading days)\n", rep.Range.String(), len(res.Dates))
	fmt.Fprintf(w, "Main trend stock:   %s\n", sum.MainTrendAsset)
	fmt.Fprintf(w, "Max |loading|:      %s\n", sum.MaxLoadingAsset)
	fmt.Fprintf(w, "Variance explained: %.2f%%\n", sum.VarianceExplained)
	fmt.Fprintf(w, "Total variance:     %.6g\n", sum.TotalVariance)
	fmt.Fprintf(w, "Converged:          %t after %d iterations\n\n", sum.Converged, sum.Iterations)

	fmt.Fprintf(w, "%-14s %10s %10s %10s %10s\n", "SYMBOL", "PC1", "RETURN%", "VOL%", "MAXDD%")
	for i, sym := range res.Symbols {
		st := rep.Stats[i]
		fmt.Fprintf(w, "%-14s %+10.4f %10.2f %10.2f %10.2f\n", sym, res.Eigen.Vectors[0][i], st.TotalReturn, st.Volatility, st.MaxDrawdown)
	}
}

func writeReport(dir string, rep *analysis.Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(analysis.NewView(rep, false), "", "  ")
	if err != nil {
		return err
	}
	files := map[string][]byte{
		"report.json": data,
		"trend.png":   rep.TrendChart,
		"returns.png": rep.ReturnsChart,
	}
	for name, b := range files {
		if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
