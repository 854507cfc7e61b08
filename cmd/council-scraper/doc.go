// Package main hosts the council-scraper entrypoint.
//
// Architecture overview:
//   - Subcommands: "members" scrapes the council roster from the city
//     website, "minutes" walks the documents portal and extracts decisions
//     from the newest meeting minutes, "votetracker" ingests the
//     third-party vote tracker spreadsheet. Each runs one pipeline to
//     completion and exits.
//   - Fetch pipeline: plain pages go through the Colly-based fetcher with
//     retry and per-domain delay; the documents portal, which builds its
//     listings with JavaScript, goes through the Chromedp renderer with a
//     parallelism cap and per-domain QPS limiting.
//   - Persistence: members, meetings, agenda items, decisions, and votes
//     are upserted into Postgres via pgx. Raw minutes documents are
//     optionally archived to the configured blob backend (local/GCS), and
//     a compact Pub/Sub notice is published per run when a topic is
//     configured.
//   - Configuration & plumbing: Viper populates config from file and env
//     (prefix COUNCIL); zap provides structured logging; Prometheus
//     counters are exported via the optional admin listener's /metrics
//     handler alongside /healthz.
//
// Operational notes:
//   - Shutdown is coordinated via context cancellation: SIGINT/SIGTERM
//     stop the run, the renderer and connection pools close on exit.
//   - Member-name matching is deliberately conservative; unmatched names
//     are counted and logged rather than guessed.
//
// Run locally: go run ./cmd/council-scraper --config config.yaml members
// (or rely solely on COUNCIL_* env overrides).
package main
