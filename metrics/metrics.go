package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storyvault_backups_total",
		Help: "Total de snapshots de sessão gerados",
	}, []string{"type"})
	RestoresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storyvault_restores_total",
		Help: "Total de restaurações por resultado",
	}, []string{"type", "result"})
	IntegrityFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storyvault_integrity_failures_total",
		Help: "Snapshots rejeitados por falha de integridade",
	})
	ArchivesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storyvault_archives_total",
		Help: "Total de snapshots arquivados por backend",
	}, []string{"storage"})
)

func init() {
	prometheus.MustRegister(BackupsTotal, RestoresTotal, IntegrityFailuresTotal, ArchivesTotal)
}
