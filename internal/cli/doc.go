// Package cli implements the command-line interface for nyrr-watch.
//
// The Cobra-based CLI offers one-shot checks (check), a scheduled loop (watch),
// offline parsing of saved pages (parse) and a dump of the effective
// configuration (config). It wires the scraper, storage, notifier and runner
// packages together from a config.Config.
package cli
