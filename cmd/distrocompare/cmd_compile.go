package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HerbHall/distrocompare/internal/compile"
	"github.com/HerbHall/distrocompare/internal/store"
	"github.com/HerbHall/distrocompare/pkg/catalog"
)

func runCompile(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	dir := fs.String("dir", "data/distros", "directory of per-distribution JSON documents")
	output := fs.String("output", "", "JSON output path (default: <dir>/../"+compile.DefaultOutput+", \"-\" to skip)")
	dbPath := fs.String("db", "", "also write a SQLite catalog snapshot to this path")
	templatePath := fs.String("template", "", "attribute template for the snapshot (default: embedded)")
	descriptionsPath := fs.String("descriptions", "", "descriptions for the snapshot (default: embedded)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *output == "" {
		*output = filepath.Join(filepath.Dir(filepath.Clean(*dir)), compile.DefaultOutput)
	}

	ctx := context.Background()
	res, err := compile.Compile(ctx, *dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile failed: %v\n", err)
		os.Exit(1)
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(os.Stderr, "skipped %s: %s\n", s.File, s.Error)
	}
	for _, name := range res.Duplicates {
		fmt.Fprintf(os.Stderr, "duplicate record %q ignored\n", name)
	}

	if *output != "-" {
		if err := compile.WriteJSON(*output, res.Records); err != nil {
			fmt.Fprintf(os.Stderr, "write failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Compiled %d records to %s\n", len(res.Records), *output)
	}

	if *dbPath != "" {
		if err := writeSnapshot(ctx, *dbPath, *templatePath, *descriptionsPath, res.Records); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Stored %d records in %s\n", len(res.Records), *dbPath)
	}
}

func writeSnapshot(ctx context.Context, dbPath, templatePath, descriptionsPath string, records []catalog.Record) error {
	defaults := catalog.NewDefaults()

	tmpl, err := defaults.Template()
	if templatePath != "" {
		var data []byte
		if data, err = os.ReadFile(templatePath); err == nil {
			tmpl, err = catalog.ParseTemplate(data)
		}
	}
	if err != nil {
		return fmt.Errorf("template: %w", err)
	}

	desc, err := defaults.Descriptions()
	if descriptionsPath != "" {
		var data []byte
		if data, err = os.ReadFile(descriptionsPath); err == nil {
			desc, err = catalog.ParseDescriptions(data)
		}
	}
	if err != nil {
		return fmt.Errorf("descriptions: %w", err)
	}

	db, err := store.New(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	repo, err := store.NewCatalogRepository(ctx, db)
	if err != nil {
		return err
	}
	return compile.WriteSnapshot(ctx, repo, tmpl, desc, records)
}
