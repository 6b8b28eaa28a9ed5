package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Mabumabu-01/it-terms/pkg/common"
	"github.com/Mabumabu-01/it-terms/pkg/config"
	"github.com/Mabumabu-01/it-terms/pkg/harvest"
	"github.com/Mabumabu-01/it-terms/pkg/journal"
	"github.com/Mabumabu-01/it-terms/pkg/reading"
	"github.com/Mabumabu-01/it-terms/pkg/wiki"
	"github.com/Mabumabu-01/it-terms/pkg/wordlist"
)

func main() {
	listFlag := flag.Bool("list", false, "print the word list with readings and exit")
	flag.Parse()

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := common.NewLogger(cfg.LogLevel)

	if *listFlag {
		if err := printList(cfg.WordsPath); err != nil {
			logger.Fatal().Err(err).Msg("list failed")
		}
		return
	}

	if len(cfg.Categories) == 0 {
		fmt.Println("No CATEGORIES provided.")
		return
	}

	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	entries, err := wordlist.Load(cfg.WordsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load word list")
	}
	list := wordlist.NewList(entries)
	logger.Info().Int("entries", list.Len()).Str("path", cfg.WordsPath).Msg("word list loaded")

	journalDB, err := journal.Open(cfg.JournalPath)
	if err != nil {
		// The journal is observability only; a broken journal never blocks a run.
		logger.Warn().Err(err).Str("path", cfg.JournalPath).Msg("journal unavailable")
		journalDB = nil
	} else {
		defer journalDB.Close()
	}

	client := wiki.NewClient(cfg.Lang,
		wiki.WithMinInterval(cfg.Sleep),
		wiki.WithLogger(logger),
	)

	opts := []harvest.Option{harvest.WithLogger(logger)}
	if len(cfg.Denylist) > 0 {
		opts = append(opts, harvest.WithDenylist(cfg.Denylist))
	}
	h := harvest.New(client, list, cfg.Lang, func(entries []wordlist.Entry) error {
		return wordlist.Save(cfg.WordsPath, entries)
	}, opts...)

	started := time.Now()
	added, err := h.Run(ctx, cfg.Categories, cfg.Limit)
	if err != nil {
		logger.Fatal().Err(err).Int("added", added).Msg("harvest failed")
	}

	outcome := journal.OutcomeCompleted
	if added >= cfg.Limit {
		outcome = journal.OutcomeLimit
	}

	if journalDB != nil {
		run := journal.Run{
			StartedAt:  started,
			FinishedAt: time.Now(),
			Categories: cfg.Categories,
			Lang:       cfg.Lang,
			Limit:      cfg.Limit,
			Added:      added,
			Outcome:    outcome,
		}
		if _, err := journal.RecordRun(journalDB, run); err != nil {
			logger.Warn().Err(err).Msg("failed to record run")
		}
	}

	if outcome == journal.OutcomeLimit {
		fmt.Printf("Reached limit (%d). Added=%d\n", cfg.Limit, added)
	} else {
		fmt.Printf("Done. Added=%d\n", added)
	}
}

// printList dumps the persisted collection with katakana readings as a
// curation aid. No network access.
func printList(path string) error {
	entries, err := wordlist.Load(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Word list is empty.")
		return nil
	}

	annotator, err := reading.NewAnnotator()
	if err != nil {
		return fmt.Errorf("create annotator: %w", err)
	}

	for _, e := range entries {
		label := e.Term
		if r := annotator.Reading(e.Term); r != "" && r != e.Term {
			label = fmt.Sprintf("%s [%s]", e.Term, r)
		}

		def := e.DefinitionJA
		if def == "" {
			def = e.DefinitionEN
		}
		fmt.Printf("%4d  %s\n      %s\n", e.ID, label, truncate(def, 60))
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
