package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventsReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "nostrbot_events_received_total",
	Help: "Inbound events seen by the dispatcher",
})

var handlerMatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nostrbot_handler_matches_total",
	Help: "Filter matches per handler",
}, []string{"handler"})

var handlerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "nostrbot_handler_errors_total",
	Help: "Action failures and panics per handler",
}, []string{"handler"})
