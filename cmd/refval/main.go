// Command refval loads a .bib file, runs the validation pipeline over
// every entry, and either prints a summary report or launches the
// interactive review server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"

	termutil "github.com/andrew-d/go-termutil"
	"github.com/gorilla/handlers"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/bet-lab/reference-validator/internal/bibtexio"
	"github.com/bet-lab/reference-validator/internal/config"
	"github.com/bet-lab/reference-validator/internal/model"
	"github.com/bet-lab/reference-validator/internal/pipeline"
	"github.com/bet-lab/reference-validator/internal/server"
	"github.com/bet-lab/reference-validator/internal/session"
	"github.com/bet-lab/reference-validator/internal/store"
)

var (
	bibPath = flag.String("f", "", "path to the .bib file to validate")
	serve   = flag.Bool("serve", false, "launch the review server after validation instead of printing a report")
	write   = flag.String("o", "", "write the canonical, schema-filtered bibliography to this path and exit")
)

func main() {
	flag.Parse()
	if *bibPath == "" {
		log.Fatal("refval: -f <path.bib> is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("refval: %v", err)
	}

	f, err := os.Open(*bibPath)
	if err != nil {
		log.Fatalf("refval: %v", err)
	}
	raw, err := bibtexio.Decode(f)
	f.Close()
	if err != nil {
		log.Fatalf("refval: %v", err)
	}

	entries, originals := pipeline.Prepare(raw)

	journal, err := openJournal(cfg.JournalPath)
	if err != nil {
		log.Fatalf("refval: %v", err)
	}
	recordStore := store.New(journal)
	if err := recordStore.Load(entries); err != nil {
		log.Fatalf("refval: %v", err)
	}

	orch := pipeline.NewOrchestrator(cfg.UserAgentProduct, cfg.ContactEmail, cfg.RateLimitDelay, cfg.CacheDefaultExpiration, cfg.CacheCleanupInterval)
	p := pipeline.New(orch, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := p.Run(ctx, entries, originals)
	if err != nil {
		log.Fatalf("refval: pipeline: %v", err)
	}

	switch {
	case *write != "":
		if err := writeCanonical(*write, recordStore); err != nil {
			log.Fatalf("refval: %v", err)
		}
	case *serve:
		sess := session.New(recordStore, results)
		srv := server.New(sess)
		logged := handlers.RecoveryHandler()(handlers.LoggingHandler(os.Stdout, srv))
		log.Printf("refval: review server listening on %s", cfg.Listen)
		log.Fatal(http.ListenAndServe(cfg.Listen, logged))
	default:
		printReport(results)
	}
}

func openJournal(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, nil
	}
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if err := store.EnsureSchema(db); err != nil {
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return db, nil
}

func writeCanonical(path string, recordStore *store.Store) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()
	entries := bibtexio.FilterAllowedFields(recordStore.All())
	return bibtexio.Encode(out, entries)
}

// printReport prints a one-line-per-entry summary: enough to eyeball
// at a glance, full detail available through -serve instead. Piped
// output (a
// redirect into a log file, a pipe into another tool) drops the "!"
// conflict marker a terminal would otherwise show, since a
// non-interactive reader gets no benefit from it.
func printReport(results []*model.ValidationResult) {
	interactive := termutil.Isatty(os.Stdout.Fd())
	conflictMarker := ""
	if interactive {
		conflictMarker = "!"
	}

	var missing, updated, conflicts, identical int
	for _, r := range results {
		missing += len(r.FieldsMissing)
		updated += len(r.FieldsUpdated)
		conflicts += len(r.FieldsConflict)
		identical += len(r.FieldsIdentical)
		marker := ""
		if len(r.FieldsConflict) > 0 {
			marker = conflictMarker
		}
		fmt.Printf("%-24s %-1s lint=%-3d updated=%-3d conflict=%-3d identical=%-3d doi_valid=%v arxiv_valid=%v\n",
			r.EntryKey, marker, len(r.LintMessages), len(r.FieldsUpdated), len(r.FieldsConflict), len(r.FieldsIdentical),
			r.DOIValid, r.ArxivValid)
	}
	fmt.Printf("\n%d entries: %d missing, %d updated, %d conflicts, %d identical\n",
		len(results), missing, updated, conflicts, identical)
}
