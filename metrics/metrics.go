// Package metrics wires the beacon's scheduler, service framework, and
// Argos radio into prometheus/client_golang instrumentation for the host
// bring-up/test harness, grounded on the pack's own GNSS receiver exporter.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TasksPosted counts scheduler.Post calls by task name.
	TasksPosted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_scheduler_tasks_posted_total",
		Help: "Tasks posted to the scheduler queue, by name.",
	}, []string{"task"})

	// TaskQueueDepth reports the number of tasks currently pending.
	TaskQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_scheduler_queue_depth",
		Help: "Tasks currently pending in the scheduler queue.",
	})

	// ServiceInitiations counts Behavior.Initiate calls by service name.
	ServiceInitiations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_service_initiations_total",
		Help: "Service Initiate() calls, by service.",
	}, []string{"service"})

	// ServiceActive reports whether a service is currently mid-acquisition.
	ServiceActive = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "beacon_service_active",
		Help: "1 while a service has in-flight work, 0 otherwise.",
	}, []string{"service"})

	// ArgosTxTotal counts Argos transmissions by packet kind.
	ArgosTxTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "beacon_argos_tx_total",
		Help: "Argos transmissions sent, by packet kind.",
	}, []string{"kind"})

	// ArgosDepthPileDepth reports how many records are queued for transmission.
	ArgosDepthPileDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_argos_depth_pile_depth",
		Help: "Records currently queued in the Argos depth pile.",
	})

	// BatteryVoltageMV reports the last-sampled battery voltage.
	BatteryVoltageMV = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_battery_voltage_mv",
		Help: "Last-sampled battery voltage in millivolts.",
	})

	// UnderwaterState reports the detector's current debounced state.
	UnderwaterState = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "beacon_underwater_state",
		Help: "1 if the debounced underwater detector reports submerged.",
	})
)

func init() {
	prometheus.MustRegister(
		TasksPosted, TaskQueueDepth,
		ServiceInitiations, ServiceActive,
		ArgosTxTotal, ArgosDepthPileDepth,
		BatteryVoltageMV, UnderwaterState,
	)
}

// Handler returns the promhttp handler cmd/beacon mounts on its metrics
// listener.
func Handler() http.Handler {
	return promhttp.Handler()
}
