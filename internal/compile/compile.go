// Package compile gathers per-distribution documents into a single catalog
// artifact: an indented distributions.json array or a SQLite snapshot.
package compile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/HerbHall/distrocompare/internal/store"
	"github.com/HerbHall/distrocompare/pkg/catalog"
)

// DefaultOutput is the file name written next to the record documents.
const DefaultOutput = "distributions.json"

// Skipped is a document that could not be compiled.
type Skipped struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Result holds the compiled records in file-name order.
type Result struct {
	Records    []catalog.Record `json:"records"`
	Skipped    []Skipped        `json:"skipped,omitempty"`
	Duplicates []string         `json:"duplicates,omitempty"`
}

// Compile reads every *.json document in dir. Documents that cannot be
// decoded are skipped and reported; the first record with a name wins.
func Compile(ctx context.Context, dir string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read record dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)

	res := &Result{Records: make([]catalog.Record, 0, len(files))}
	seen := make(map[string]bool, len(files))
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := compileFile(filepath.Join(dir, name))
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{File: name, Error: err.Error()})
			continue
		}
		if seen[rec.Name] {
			res.Duplicates = append(res.Duplicates, rec.Name)
			continue
		}
		seen[rec.Name] = true
		res.Records = append(res.Records, rec)
	}
	return res, nil
}

func compileFile(path string) (catalog.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return catalog.Record{}, err
	}
	doc, err := ExtractFenced(data)
	if err != nil {
		return catalog.Record{}, err
	}
	return catalog.ParseRecord(doc)
}

// ExtractFenced unwraps a research-tool envelope of the form
// {"rawData": "```json {...} ```"} and returns the inner document. Any
// other document is returned unchanged.
func ExtractFenced(data []byte) ([]byte, error) {
	var envelope struct {
		RawData *string `json:"rawData"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if envelope.RawData == nil {
		return data, nil
	}
	inner := strings.ReplaceAll(*envelope.RawData, "```json", "")
	inner = strings.TrimSpace(strings.ReplaceAll(inner, "```", ""))
	if inner == "" {
		return nil, errors.New("empty rawData envelope")
	}
	if !json.Valid([]byte(inner)) {
		return nil, errors.New("rawData does not contain a JSON document")
	}
	return []byte(inner), nil
}

// WriteJSON writes records as an indented JSON array to path.
func WriteJSON(path string, records []catalog.Record) error {
	if records == nil {
		records = []catalog.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	// Write through a temp file so a failed run leaves the old artifact.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}

// WriteSnapshot stores records with tmpl and descriptions as the catalog
// snapshot in repo, replacing any previous one.
func WriteSnapshot(ctx context.Context, repo store.CatalogRepository, tmpl *catalog.Template, descriptions map[string]string, records []catalog.Record) error {
	if err := repo.SaveSnapshot(ctx, catalog.NewSnapshot(tmpl, records, descriptions)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
