// Package internal contains the implementation packages behind the devkit
// CLI and web server.
//
// # Package Organization
//
// The tool engines have no HTTP or terminal dependencies:
//
//   - regex: pattern evaluation, match highlighting and substitution
//   - formatter: JSON/YAML parsing, re-serialisation, diffs and URL fetches
//   - scaffolding: project templates, add-ons and zip packaging
//   - cheatsheet: bilingual cheat sheets, search and directory reloads
//
// The surfaces built on top of them:
//
//   - server: HTTP pages, JSON APIs and the live regex websocket
//   - views: templ components rendered by the server
//   - tui: the interactive cheat-sheet browser
//
// Supporting packages:
//
//   - config: viper-backed settings with validation
//   - errors: typed errors, codes and CLI suggestions
//   - logging: structured logging on slog
//   - monitoring: health checks behind /health
//   - github: cached repository star counts
//   - highlight: chroma syntax highlighting
//   - i18n: English and Sinhala message catalogues
//   - validation: URL and path checks shared by fetchers and writers
//   - watcher: debounced fsnotify watching
//   - version: build information
//
// # Concurrency
//
// Engines are safe for concurrent use. The cheat-sheet repository swaps
// its sheet set atomically on reload so readers never see a partial load.
//
// # Testing
//
// Unit tests use testify. Property tests use gopter and only build with
// the "property" tag:
//
//	go test -tags property ./...
package internal
