// Package logging provides the single print mutex that serializes
// per-entry log groups across the pipeline's concurrent workers,
// mirroring validate_bibtex.py's BibTeXValidator.print_lock: every
// worker logs its own entry's findings as one uninterrupted group
// instead of interleaving lines from concurrent entries.
package logging

import (
	"log"
	"sync"
)

var printMu sync.Mutex

// Group runs fn while holding the shared print mutex, so every line fn
// logs is contiguous in the combined stdout stream even when other
// workers are logging concurrently.
func Group(fn func()) {
	printMu.Lock()
	defer printMu.Unlock()
	fn()
}

// Entry logs one entry's validation summary as a single held-lock group:
// one line with the lint, update and conflict counts.
func Entry(citeKey string, lintCount, updated, conflicts int) {
	Group(func() {
		log.Printf("[%s] lint=%d updated=%d conflicts=%d", citeKey, lintCount, updated, conflicts)
	})
}

// Warn logs a single warning line under the same print mutex, for
// adapter transport/malformed-response warnings raised outside an
// entry's own log group.
func Warn(format string, args ...any) {
	Group(func() {
		log.Printf("warn: "+format, args...)
	})
}
