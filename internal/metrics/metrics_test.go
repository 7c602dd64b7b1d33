package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue finds a counter by name and label value ("" for unlabelled).
func counterValue(t *testing.T, reg *prometheus.Registry, name, label string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, lp := range m.GetLabel() {
				if lp.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSave(true)
	c.RecordSave(true)
	c.RecordSave(false)
	c.RecordBackup()
	c.RecordBackupsPruned(3)
	c.RecordLogin("success")
	c.RecordLogin("rejected")
	c.RecordLogin("rejected")
	c.RecordUndo()

	tests := []struct {
		name  string
		label string
		want  float64
	}{
		{"kanban_board_saves_total", "success", 2},
		{"kanban_board_saves_total", "failure", 1},
		{"kanban_board_backups_total", "", 1},
		{"kanban_backups_pruned_total", "", 3},
		{"kanban_logins_total", "success", 1},
		{"kanban_logins_total", "rejected", 2},
		{"kanban_undo_total", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.label, func(t *testing.T) {
			if got := counterValue(t, reg, tt.name, tt.label); got != tt.want {
				t.Errorf("%s{%s} = %v, want %v", tt.name, tt.label, got, tt.want)
			}
		})
	}
}

func TestHandler_ServesExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordUndo()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "kanban_undo_total 1") {
		t.Errorf("body does not contain the undo counter:\n%s", body)
	}
}
