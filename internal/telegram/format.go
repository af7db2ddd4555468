package telegram

import (
	"fmt"
	"strings"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/config"
	"stockTrendPCA/internal/storage"
)

// formatSummary is the caption sent with the trend chart.
func formatSummary(rep *analysis.Report) string {
	res := rep.Result
	sum := res.Summary

	var b strings.Builder
	fmt.Fprintf(&b, "PCA • %s • %s\n", strings.Join(res.Symbols, ", "), rep.Range.String())
	fmt.Fprintf(&b, "Main trend: %s (%.1f%% of variance)\n", sum.MainTrendAsset, sum.VarianceExplained)
	if sum.MaxLoadingAsset != sum.MainTrendAsset {
		fmt.Fprintf(&b, "Largest |loading|: %s (moves against the trend)\n", sum.MaxLoadingAsset)
	}
	b.WriteString("PC1:")
	for i, sym := range res.Symbols {
		fmt.Fprintf(&b, " %s %+.3f", sym, res.Eigen.Vectors[0][i])
		if i < len(res.Symbols)-1 {
			b.WriteString(",")
		}
	}
	fmt.Fprintf(&b, "\n%d trading days", len(res.Dates))
	if !sum.Converged {
		fmt.Fprintf(&b, "\n⚠️ Solver stopped after %d iterations without converging; treat as approximate.", sum.Iterations)
	}
	return b.String()
}

func formatHistory(recs []storage.AnalysisRecord) string {
	if len(recs) == 0 {
		return "No analyses yet. Try /pca"
	}
	var b strings.Builder
	b.WriteString("Recent analyses\n\n")
	for _, r := range recs {
		flag := ""
		if !r.Converged {
			flag = " ⚠️"
		}
		fmt.Fprintf(&b, "%s • %s • %s..%s • %s %.1f%% • %s%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), strings.Join(r.Symbols, ","), r.Start, r.End,
			r.MainTrend, r.VarianceExplained, r.Source, flag)
	}
	return b.String()
}

func formatBasket(b config.Basket) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Default basket: %s\n\n", b.Name)
	for _, a := range b.Assets {
		if a.Name != "" {
			fmt.Fprintf(&sb, "- %s (%s)\n", a.Symbol, a.Name)
		} else {
			fmt.Fprintf(&sb, "- %s\n", a.Symbol)
		}
	}
	return sb.String()
}
