package table

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/matzehuels/cardforge/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenCSV(t *testing.T) {
	path := writeFile(t, "data.csv", "\ufeffАртикул,Применимость по КК,Ссылка на фото\n"+
		"AB-123,Toyota / Honda,http://x/1.jpg\n"+
		"\"CD,456\",\"Kia \"\"Rio\"\"\",\n"+
		",,\n"+
		"EF-789\n")

	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}

	wantCols := []string{"Артикул", "Применимость по КК", "Ссылка на фото"}
	if !reflect.DeepEqual(tbl.Columns, wantCols) {
		t.Errorf("Columns = %q, want %q", tbl.Columns, wantCols)
	}
	if tbl.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (blank row skipped)", tbl.Len())
	}
	if got := tbl.Rows[0].Get("Артикул"); got != "AB-123" {
		t.Errorf("row 0 article = %q", got)
	}
	if got := tbl.Rows[1].Get("Артикул"); got != "CD,456" {
		t.Errorf("quoted cell = %q", got)
	}
	if got := tbl.Rows[1].Get("Применимость по КК"); got != `Kia "Rio"` {
		t.Errorf("escaped quotes = %q", got)
	}
	if got := tbl.Rows[2].Get("Ссылка на фото"); got != "" {
		t.Errorf("short row missing cell = %q, want empty", got)
	}
	if got := tbl.Rows[0].Get("missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestOpenXLSX(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"Article", "Price"},
		{"AB-123", 1999},
		{"CD-456", 10.5},
	})

	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if !reflect.DeepEqual(tbl.Columns, []string{"Article", "Price"}) {
		t.Errorf("Columns = %q", tbl.Columns)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if got := tbl.Rows[0].Get("Price"); got != "1999" {
		t.Errorf("numeric cell = %q, want 1999", got)
	}
	if got := tbl.Rows[1].Get("Article"); got != "CD-456" {
		t.Errorf("Article = %q", got)
	}
}

func TestColumns(t *testing.T) {
	csvPath := writeFile(t, "data.csv", "a,b,c\n1,2,3\n\"unterminated\n")
	cols, err := Columns(csvPath)
	if err != nil {
		t.Fatalf("Columns(csv) error: %v", err)
	}
	if !reflect.DeepEqual(cols, []string{"a", "b", "c"}) {
		t.Errorf("Columns(csv) = %q", cols)
	}

	xlsxPath := writeXLSX(t, [][]any{{"x", "y"}, {1, 2}})
	cols, err = Columns(xlsxPath)
	if err != nil {
		t.Fatalf("Columns(xlsx) error: %v", err)
	}
	if !reflect.DeepEqual(cols, []string{"x", "y"}) {
		t.Errorf("Columns(xlsx) = %q", cols)
	}
}

func TestHeaderNames(t *testing.T) {
	got := headerNames([]string{" name ", "", "name", "name", "price"})
	want := []string{"name", "Unnamed: 1", "name.1", "name.2", "price"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("headerNames() = %q, want %q", got, want)
	}
}

func TestOpenEmpty(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"header only", "a,b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Open(writeFile(t, "data.csv", tt.content))
			if err != nil {
				t.Fatalf("Open() error: %v", err)
			}
			if tbl.Len() != 0 {
				t.Errorf("Len() = %d, want 0", tbl.Len())
			}
		})
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"missing csv", filepath.Join(dir, "missing.csv")},
		{"unsupported extension", writeFile(t, "data.txt", "a,b")},
		{"corrupt workbook", writeFile(t, "data.xlsx", "not a zip")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Open(tt.path); !errors.Is(err, errors.ErrCodeDataUnreadable) {
				t.Errorf("Open() error = %v, want DATA_UNREADABLE", err)
			}
		})
	}
}
