package finance

import "sort"

// filterPositive drops missing and non-positive closes, keeping timestamps and
// values aligned. Yahoo reports halted or not-yet-closed bars as null.
func filterPositive(ts []int64, cl []*float64) ([]int64, []float64) {
	n := len(ts)
	if len(cl) < n {
		n = len(cl)
	}
	outTs := make([]int64, 0, n)
	outCl := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if cl[i] == nil || *cl[i] <= 0 {
			continue
		}
		outTs = append(outTs, ts[i])
		outCl = append(outCl, *cl[i])
	}
	return outTs, outCl
}

// filterIQR removes outliers using the Interquartile Range (IQR) rule.
// Any point with value outside [Q1 - k*IQR, Q3 + k*IQR] is dropped.
// For short series (< minPoints), it returns original data.
func filterIQR(dates []string, cl []float64, k float64, minPoints int) ([]string, []float64) {
	if len(cl) < minPoints || len(dates) != len(cl) {
		return dates, cl
	}
	vals := make([]float64, len(cl))
	copy(vals, cl)
	sort.Float64s(vals)
	q1 := percentile(vals, 0.25)
	q3 := percentile(vals, 0.75)
	iqr := q3 - q1
	if iqr <= 0 {
		return dates, cl
	}
	lower := q1 - k*iqr
	upper := q3 + k*iqr
	outDates := make([]string, 0, len(dates))
	outCl := make([]float64, 0, len(cl))
	for i, v := range cl {
		if v < lower || v > upper {
			continue
		}
		outDates = append(outDates, dates[i])
		outCl = append(outCl, v)
	}
	if len(outCl) < minPoints/2 {
		return dates, cl
	}
	return outDates, outCl
}

// percentile interpolates linearly over sorted values.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	hi := lo + 1
	if hi >= len(sorted) {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
