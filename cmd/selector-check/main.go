package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/maltedev/price-scraper/internal/dom"
	"github.com/maltedev/price-scraper/internal/extract"
	"github.com/maltedev/price-scraper/internal/logger"
	"github.com/maltedev/price-scraper/internal/models"
	"github.com/maltedev/price-scraper/internal/stores"
)

func main() {
	var (
		storeName = flag.String("store", "", "Store whose selectors to apply")
		htmlFile  = flag.String("file", "", "Saved HTML page")
		direct    = flag.Bool("direct", false, "Treat the page as a product detail page")
		code      = flag.String("code", "-", "Code to put in the printed row")
		logLevel  = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	log := logger.New(*logLevel, "console")

	if *storeName == "" || *htmlFile == "" {
		fmt.Fprintln(os.Stderr, "Please provide -store and -file")
		flag.Usage()
		os.Exit(1)
	}

	adapter, err := stores.Default().Lookup(*storeName)
	if err != nil {
		log.Error("unknown store", "error", err, "available", stores.Default().Names())
		os.Exit(1)
	}

	pc := extract.PageContext{Classification: extract.Listing, Selectors: adapter.Selectors}
	if *direct {
		if adapter.Redirect == nil {
			log.Error("store has no product page selectors", "store", adapter.Name)
			os.Exit(1)
		}
		pc = extract.PageContext{Classification: extract.Direct, Selectors: adapter.Redirect.Selectors}
	}

	f, err := os.Open(*htmlFile)
	if err != nil {
		log.Error("failed to open page", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	doc, err := dom.NewDocumentFromReader(f)
	if err != nil {
		log.Error("failed to parse page", "error", err)
		os.Exit(1)
	}

	rec, err := extract.Extract(doc, pc)
	if err != nil {
		log.Error("extraction failed", "error", err)
		os.Exit(1)
	}
	if rec == nil {
		log.Warn("no product container matched", "container", pc.Selectors.Container)
	}

	row := models.NewResultRow(*code, adapter.Name, rec, nil)
	log.Info("extracted", "store", adapter.Name, "classification", pc.Classification, "available", row.Available)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(row); err != nil {
		log.Error("failed to print row", "error", err)
		os.Exit(1)
	}
}
