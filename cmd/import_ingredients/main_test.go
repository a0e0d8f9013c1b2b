package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"foodgram/internal/db"
	"foodgram/internal/store"
	"foodgram/models"
)

func TestParseJSON(t *testing.T) {
	t.Parallel()

	records, err := parseJSON(strings.NewReader(`[{"name":"Абрикосы","measurement_unit":"г"},{"name":"Вода","measurement_unit":"мл"}]`))
	if err != nil {
		t.Fatalf("parseJSON returned error: %v", err)
	}
	if len(records) != 2 || records[1].Name != "Вода" || records[1].MeasurementUnit != "мл" {
		t.Fatalf("unexpected records %+v", records)
	}

	if _, err := parseJSON(strings.NewReader(`{"name":"x"}`)); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestParseCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"without header", "Абрикосы,г\nВода, мл\n", 2},
		{"with header", "name,measurement_unit\nАбрикосы,г\n", 1},
		{"short rows skipped", "Абрикосы,г\nсломано\n", 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			records, err := parseCSV(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("parseCSV returned error: %v", err)
			}
			if len(records) != tt.want {
				t.Fatalf("expected %d records, got %+v", tt.want, records)
			}
		})
	}

	if _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty csv")
	}
}

func TestParseLines(t *testing.T) {
	t.Parallel()

	records := parseLines("Перец чёрный, молотый, г\n\nбез единицы\n , г\nЯйца,шт\n")
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[0].Name != "Перец чёрный, молотый" || records[0].MeasurementUnit != "г" {
		t.Fatalf("unexpected first record %+v", records[0])
	}
}

func TestParsePDFRejectsGarbage(t *testing.T) {
	t.Parallel()

	if _, err := parsePDF([]byte("not a pdf")); err == nil {
		t.Fatal("expected error for invalid pdf data")
	}
}

func TestParsePDFReadsOneIngredientPerLine(t *testing.T) {
	t.Parallel()

	data := buildTextPDF("Sugar, g", "Flour, g", "Black pepper, ground, g")
	records, err := parsePDF(data)
	if err != nil {
		t.Fatalf("parsePDF returned error: %v", err)
	}

	want := []ingredientRecord{
		{Name: "Sugar", MeasurementUnit: "g"},
		{Name: "Flour", MeasurementUnit: "g"},
		{Name: "Black pepper, ground", MeasurementUnit: "g"},
	}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %+v", len(want), records)
	}
	for i := range want {
		if records[i] != want[i] {
			t.Fatalf("record %d: expected %+v, got %+v", i, want[i], records[i])
		}
	}
}

// buildTextPDF writes a one-page PDF that shows each line below the
// previous one using relative Td moves.
func buildTextPDF(lines ...string) []byte {
	var content strings.Builder
	content.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	for i, line := range lines {
		if i > 0 {
			content.WriteString("0 -16 Td\n")
		}
		fmt.Fprintf(&content, "(%s) Tj\n", line)
	}
	content.WriteString("ET\n")

	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestReadRecordsByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "ingredients.csv")
	if err := os.WriteFile(csvPath, []byte("Мёд,г\n"), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := readRecords(csvPath)
	if err != nil {
		t.Fatalf("readRecords returned error: %v", err)
	}
	if len(records) != 1 || records[0].Name != "Мёд" {
		t.Fatalf("unexpected records %+v", records)
	}

	txtPath := filepath.Join(dir, "ingredients.txt")
	if err := os.WriteFile(txtPath, []byte("Мёд,г\n"), 0o600); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	if _, err := readRecords(txtPath); err == nil {
		t.Fatal("expected unsupported extension error")
	}
}

func TestImportRecordsUpserts(t *testing.T) {
	conn, err := db.OpenSQLite(t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	ctx := context.Background()
	s := store.New(conn)
	records := []ingredientRecord{
		{Name: "Абрикосы", MeasurementUnit: "г"},
		{Name: "Вода", MeasurementUnit: "ml"},
		{Name: "Неизвестное", MeasurementUnit: "бочка"},
	}
	result, err := importRecords(ctx, s, records)
	if err != nil {
		t.Fatalf("importRecords returned error: %v", err)
	}
	if result.Created != 2 || result.Skipped != 1 || result.Existing != 0 {
		t.Fatalf("unexpected first import result %+v", result)
	}

	again, err := importRecords(ctx, s, records[:2])
	if err != nil {
		t.Fatalf("second import returned error: %v", err)
	}
	if again.Created != 0 || again.Existing != 2 {
		t.Fatalf("expected second import to match existing rows, got %+v", again)
	}

	var count int64
	if err := conn.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		t.Fatalf("count ingredients: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 ingredients, got %d", count)
	}
}
