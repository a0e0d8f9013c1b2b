package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"foodgram/internal/config"
	"foodgram/internal/db"
	applog "foodgram/internal/log"
	"foodgram/internal/store"
)

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type importResult struct {
	Created  int
	Existing int
	Skipped  int
}

func main() {
	path := "data/ingredients.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := run(context.Background(), path); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("input path must not be empty")
	}

	records, err := readRecords(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	database, err := db.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(database); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	result, err := importRecords(ctx, store.New(database), records)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d ingredients (%d created, %d already present, %d skipped)\n",
		result.Created+result.Existing, result.Created, result.Existing, result.Skipped)
	return nil
}

// readRecords picks a parser by file extension.
func readRecords(path string) ([]ingredientRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSON(bytes.NewReader(data))
	case ".csv":
		return parseCSV(bytes.NewReader(data))
	case ".pdf":
		return parsePDF(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}

func parseJSON(r io.Reader) ([]ingredientRecord, error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

func parseCSV(r io.Reader) ([]ingredientRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}
	if len(rows[0]) >= 2 && strings.EqualFold(strings.TrimSpace(rows[0][0]), "name") {
		rows = rows[1:]
	}

	records := make([]ingredientRecord, 0, len(rows))
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		records = append(records, ingredientRecord{
			Name:            strings.TrimSpace(row[0]),
			MeasurementUnit: strings.TrimSpace(row[1]),
		})
	}
	return records, nil
}

func parsePDF(data []byte) ([]ingredientRecord, error) {
	text, err := extractTextFromPDF(data)
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return parseLines(text), nil
}

// extractTextFromPDF rebuilds text lines from positioned glyphs. Glyphs
// sharing a baseline form one line; lines run top to bottom.
func extractTextFromPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("read pdf content: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		for _, line := range pageLines(page.Content().Text) {
			builder.WriteString(line)
			builder.WriteString("\n")
		}
	}
	return builder.String(), nil
}

func pageLines(glyphs []pdf.Text) []string {
	rows := make(map[int64]*strings.Builder)
	var baselines []int64
	for _, glyph := range glyphs {
		if glyph.S == "\n" {
			continue
		}
		y := int64(math.Round(glyph.Y))
		row, ok := rows[y]
		if !ok {
			row = &strings.Builder{}
			rows[y] = row
			baselines = append(baselines, y)
		}
		row.WriteString(glyph.S)
	}
	sort.Slice(baselines, func(i, j int) bool { return baselines[i] > baselines[j] })

	lines := make([]string, 0, len(baselines))
	for _, y := range baselines {
		lines = append(lines, rows[y].String())
	}
	return lines
}

// parseLines reads "name, unit" pairs, one per line. The unit follows the
// last comma so names may contain commas.
func parseLines(text string) []ingredientRecord {
	var records []ingredientRecord
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		idx := strings.LastIndex(line, ",")
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(line[:idx])
		unit := strings.TrimSpace(line[idx+1:])
		if name == "" || unit == "" {
			continue
		}
		records = append(records, ingredientRecord{Name: name, MeasurementUnit: unit})
	}
	return records
}

// importRecords upserts every record. Invalid records are logged and skipped
// so one bad line does not abort a large catalog.
func importRecords(ctx context.Context, s *store.Store, records []ingredientRecord) (importResult, error) {
	var result importResult
	for idx, record := range records {
		_, created, err := s.UpsertIngredient(ctx, store.IngredientInput{
			Name:            record.Name,
			MeasurementUnit: record.MeasurementUnit,
		})
		var verr *store.ValidationError
		switch {
		case errors.As(err, &verr):
			applog.Warn(ctx, "skipping invalid ingredient", "row", idx+1, "name", record.Name, "fields", verr.Fields)
			result.Skipped++
		case err != nil:
			return result, fmt.Errorf("import row %d (%s): %w", idx+1, record.Name, err)
		case created:
			result.Created++
		default:
			result.Existing++
		}
	}
	return result, nil
}
