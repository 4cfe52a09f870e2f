// Package cli provides the interactive deal document command-line client.
//
// An App mounts one document view (a deal, or the global view over every
// deal) and drives it from a read-eval-print loop: browse documents by
// category or as a flat list, queue and upload files, download or preview
// documents, delete them, and audit storage drift. Every command failure is
// reported with the user message of its common.Error.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
