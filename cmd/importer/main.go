package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/samirrijal/barrierfree/internal/adapters/postgres"
	"github.com/samirrijal/barrierfree/internal/core/domain"
	"github.com/samirrijal/barrierfree/internal/pkg/config"
	"github.com/samirrijal/barrierfree/internal/pkg/logging"
)

const batchSize = 500

// Imports accessibility overrides from a CSV ("osm_id,accessibility" with
// a header row) or a JSON array of {"osm_id","accessibility"} objects.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <overrides.csv|overrides.json>")
	}
	path := os.Args[1]

	cfg, err := config.Load("barrierfree-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)
	logger := logging.Component("importer")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var overrides []domain.AccessibilityOverride
	if strings.EqualFold(filepath.Ext(path), ".json") {
		overrides, err = readJSON(f)
	} else {
		overrides, err = readCSV(f)
	}
	if err != nil {
		log.Fatalf("parse %s: %v", path, err)
	}

	repo := postgres.NewAccessibilityRepo(db)
	for start := 0; start < len(overrides); start += batchSize {
		end := min(start+batchSize, len(overrides))
		if err := repo.UpsertBatch(ctx, overrides[start:end]); err != nil {
			log.Fatalf("upsert rows %d-%d: %v", start, end, err)
		}
		logger.Info("batch stored", "from", start, "to", end)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		logger.Warn("count overrides", "error", err)
	}
	logger.Info("import done", "file", path, "imported", len(overrides), "total", total)
}

func readCSV(r io.Reader) ([]domain.AccessibilityOverride, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	if header[0] != "osm_id" || header[1] != "accessibility" {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var out []domain.AccessibilityOverride
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		o, err := parseOverride(rec[0], rec[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func readJSON(r io.Reader) ([]domain.AccessibilityOverride, error) {
	var rows []struct {
		OSMID         string `json:"osm_id"`
		Accessibility string `json:"accessibility"`
	}
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, err
	}
	out := make([]domain.AccessibilityOverride, 0, len(rows))
	for i, row := range rows {
		o, err := parseOverride(row.OSMID, row.Accessibility)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, o)
	}
	return out, nil
}

func parseOverride(osmID, accessibility string) (domain.AccessibilityOverride, error) {
	a := domain.Accessibility(strings.ToLower(strings.TrimSpace(accessibility)))
	if !a.Valid() {
		return domain.AccessibilityOverride{}, fmt.Errorf("%w: %q", domain.ErrInvalidAccessibility, accessibility)
	}
	osmID = strings.TrimSpace(osmID)
	if osmID == "" {
		return domain.AccessibilityOverride{}, errors.New("empty osm_id")
	}
	return domain.AccessibilityOverride{OSMID: osmID, Accessibility: a}, nil
}
