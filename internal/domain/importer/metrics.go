package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budget_imports_started_total",
		Help: "Number of CSV import runs started.",
	}, []string{"kind"})

	importRowsImported = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budget_import_rows_imported_total",
		Help: "Number of CSV rows successfully imported.",
	}, []string{"kind"})

	importRowsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "budget_import_rows_failed_total",
		Help: "Number of CSV rows rejected during import.",
	}, []string{"kind"})
)
