package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	questCompletionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quest_completions_total",
		Help: "Total quest completion events logged",
	})
	shopPurchasesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shop_purchases_total",
		Help: "Total shop purchase events logged",
	})
	walletEchoesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_echoes_suppressed_total",
		Help: "Wallet change notifications discarded as self-echoes",
	})
	walletExternalApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_external_changes_applied_total",
		Help: "Wallet change notifications applied as external state",
	})
	goalsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "goals_completed_total",
		Help: "Goals transitioned to completed",
	})
)
