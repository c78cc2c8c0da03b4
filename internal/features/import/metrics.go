package import_feature

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Validations  *prometheus.CounterVec
	Commits      *prometheus.CounterVec
	RowsImported prometheus.Counter
	RowsSkipped  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fwpm_import_validations_total",
			Help: "Validate calls by outcome (clean, rejected, failed).",
		}, []string{"outcome"}),
		Commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fwpm_import_commits_total",
			Help: "Commit calls by outcome (success, rejected, failed, replayed).",
		}, []string{"outcome"}),
		RowsImported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fwpm_import_rows_imported_total",
			Help: "Rows stored by commits.",
		}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fwpm_import_rows_skipped_total",
			Help: "Invalid rows left out of commits.",
		}),
	}
	reg.MustRegister(m.Validations, m.Commits, m.RowsImported, m.RowsSkipped)
	return m
}
