// Package metrics exposes Prometheus counters for saves, backups, logins and
// undo.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records application events. It satisfies store.Recorder,
// bridge.Recorder, board.Recorder and service.LoginRecorder.
type Collector struct {
	saves         *prometheus.CounterVec
	backups       prometheus.Counter
	backupsPruned prometheus.Counter
	logins        *prometheus.CounterVec
	undos         prometheus.Counter
}

// NewCollector creates the counters and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_board_saves_total",
			Help: "Board saves through the bridge, by result.",
		}, []string{"result"}),
		backups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanban_board_backups_total",
			Help: "Backups of the boards collection written.",
		}),
		backupsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanban_backups_pruned_total",
			Help: "Old backups removed by retention.",
		}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_logins_total",
			Help: "Password gate attempts, by result.",
		}, []string{"result"}),
		undos: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "kanban_undo_total",
			Help: "Undo steps applied.",
		}),
	}

	reg.MustRegister(c.saves, c.backups, c.backupsPruned, c.logins, c.undos)
	return c
}

// RecordSave counts a bridge save.
func (c *Collector) RecordSave(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	c.saves.WithLabelValues(result).Inc()
}

// RecordBackup counts a written backup.
func (c *Collector) RecordBackup() { c.backups.Inc() }

// RecordBackupsPruned counts backups removed by retention.
func (c *Collector) RecordBackupsPruned(n int) { c.backupsPruned.Add(float64(n)) }

// RecordLogin counts a login attempt.
func (c *Collector) RecordLogin(result string) { c.logins.WithLabelValues(result).Inc() }

// RecordUndo counts an applied undo.
func (c *Collector) RecordUndo() { c.undos.Inc() }

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
