package prometheus

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/tokenguard"
	"github.com/MrEthical07/tokenguard/metrics/export/internaldefs"
)

// ContentType is the Prometheus text format version served by Handler.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// Source supplies snapshots. *tokenguard.Engine implements it.
type Source interface {
	MetricsSnapshot() tokenguard.MetricsSnapshot
	AuditDropped() uint64
}

var _ Source = (*tokenguard.Engine)(nil)

type Exporter struct {
	source Source
}

func NewExporter(source Source) *Exporter {
	return &Exporter{source: source}
}

// Handler serves the current snapshot on every request.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", ContentType)
		_, _ = io.WriteString(w, e.Render())
	})
}

// Render returns the exposition text, or "" when metrics are disabled and
// nothing was dropped.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snap := e.source.MetricsSnapshot()
	dropped := e.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		counter(&b, def, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snap.Histograms[def.ID]
		if !ok {
			continue
		}
		histogram(&b, def, internaldefs.Cumulative(raw), snap.HistogramSums[def.ID].Seconds())
	}
	counter(&b, internaldefs.AuditDropped, dropped)

	return b.String()
}

func header(b *strings.Builder, def internaldefs.Def, kind string) {
	b.WriteString("# HELP " + def.Name + " " + escapeHelp(def.Help) + "\n")
	b.WriteString("# TYPE " + def.Name + " " + kind + "\n")
}

func counter(b *strings.Builder, def internaldefs.Def, v uint64) {
	header(b, def, "counter")
	b.WriteString(def.Name + " " + strconv.FormatUint(v, 10) + "\n")
}

func histogram(b *strings.Builder, def internaldefs.Def, cumulative []uint64, sumSeconds float64) {
	header(b, def, "histogram")
	for i, n := range cumulative {
		le := "+Inf"
		if i < len(internaldefs.UpperBounds) {
			le = strconv.FormatFloat(internaldefs.UpperBounds[i].Seconds(), 'g', -1, 64)
		}
		b.WriteString(def.Name + `_bucket{le="` + le + `"} ` + strconv.FormatUint(n, 10) + "\n")
	}
	b.WriteString(def.Name + "_sum " + strconv.FormatFloat(sumSeconds, 'g', -1, 64) + "\n")
	b.WriteString(def.Name + "_count " + strconv.FormatUint(cumulative[len(cumulative)-1], 10) + "\n")
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
