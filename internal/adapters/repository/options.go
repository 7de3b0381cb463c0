package repository

// Option applies a configuration option to the SummaryStore.
type Option func(*SummaryStore)

// WithHistogramBinning sets the number of bins and the upper edge of every
// multiplicity histogram. The lower edge is always 0.
func WithHistogramBinning(bins int, xmax float64) Option {
	return func(s *SummaryStore) {
		s.bins = bins
		s.xmax = xmax
	}
}

// WithMaxSummaries bounds how many per-event summaries are retained for
// lookup. Histograms and totals always cover every recorded event.
func WithMaxSummaries(n int) Option {
	return func(s *SummaryStore) {
		if n > 0 {
			s.maxSummaries = n
		}
	}
}
