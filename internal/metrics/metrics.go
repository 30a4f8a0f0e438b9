package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cycles_total", Help: "Completed trading cycles"},
	)
	SnapshotFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "snapshot_failures_total", Help: "Market snapshot fetches that came back empty"},
	)
	SignalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "signals_total", Help: "Classifier outcomes by status"},
		[]string{"status"},
	)
	TradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "trades_total", Help: "Book mutations by kind"},
		[]string{"book", "event"},
	)
	Equity = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "equity", Help: "Total account equity after the last cycle"},
	)
)

func init() {
	prometheus.MustRegister(CyclesTotal, SnapshotFailures, SignalsTotal, TradesTotal, Equity)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
