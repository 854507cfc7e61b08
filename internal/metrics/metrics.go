// Package metrics declares the Prometheus counters shared by the pipelines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts pages retrieved, by transport (http, render).
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_pages_fetched_total",
		Help: "The total number of pages fetched, by transport.",
	}, []string{"transport"})
	// FetchErrors counts fetches that failed after retries.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_fetch_errors_total",
		Help: "The total number of failed page fetches, by transport.",
	}, []string{"transport"})
	// MembersScraped counts member cards successfully extracted.
	MembersScraped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_members_scraped_total",
		Help: "The total number of council member records extracted.",
	})
	// DecisionsExtracted counts decisions pulled out of minutes text.
	DecisionsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_decisions_extracted_total",
		Help: "The total number of decisions extracted from meeting minutes.",
	})
	// NamesMatched counts scraped names resolved to a stored member.
	NamesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_names_matched_total",
		Help: "The total number of scraped names matched to a member.",
	})
	// NamesUnmatched counts scraped names that resolved to nothing.
	NamesUnmatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_names_unmatched_total",
		Help: "The total number of scraped names with no member match.",
	})
	// RowsUpserted counts relational rows written, by table.
	RowsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scraper_rows_upserted_total",
		Help: "The total number of rows inserted or updated, by table.",
	}, []string{"table"})
	// VotesRecorded counts vote rows written from the tracker pipeline.
	VotesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scraper_votes_recorded_total",
		Help: "The total number of vote rows recorded.",
	})
)
