// Package importer implements the two-phase spreadsheet import: a parsed
// price list is diffed against the catalog into a preview, then applied
// row-by-row on confirmation.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PriceRow is one parsed spreadsheet row of a supplier price list.
type PriceRow struct {
	Barcode         string  `json:"barcode"`
	Name            string  `json:"name"`
	ActiveSubstance *string `json:"active_substance,omitempty"`
	Laboratory      *string `json:"laboratory,omitempty"`
	PurchasePrice   float64 `json:"purchase_price"`
	TaxRate         float64 `json:"iva_rate"`
	Inventory       int     `json:"inventory"`
}

var headerAliases = map[string]string{
	"CODIGO DE BARRAS":   "barcode",
	"CODIGO":             "barcode",
	"BARCODE":            "barcode",
	"DESCRIPCION":        "name",
	"NOMBRE":             "name",
	"PRODUCTO":           "name",
	"DELTA":              "purchase_price",
	"COSTO":              "purchase_price",
	"PRECIO":             "purchase_price",
	"IVA":                "iva",
	"TAX":                "iva",
	"INV":                "inventory",
	"STOCK":              "inventory",
	"CANTIDAD":           "inventory",
	"LABORATORIO":        "laboratory",
	"LAB":                "laboratory",
	"FABRICANTE":         "laboratory",
	"SUSTANCIA ACTIVA":   "active_substance",
	"SUSTANCIA":          "active_substance",
	"INGREDIENTE ACTIVO": "active_substance",
}

// accentFolder strips combining marks so DESCRIPCIÓN matches DESCRIPCION.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// ParsePriceRows reads the first sheet of an Excel price list. Barcode, name
// and cost columns are required; rows without a barcode are skipped.
func ParsePriceRows(reader io.Reader) ([]PriceRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"barcode", "name", "purchase_price"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	parsed := make([]PriceRow, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		barcode := strings.TrimSpace(cell(cells, colMap, "barcode"))
		if barcode == "" {
			continue
		}
		price, err := parseMoney(cell(cells, colMap, "purchase_price"))
		if err != nil {
			return nil, fmt.Errorf("row %d: purchase price: %w", i+2, err)
		}

		row := PriceRow{
			Barcode:       barcode,
			Name:          strings.TrimSpace(cell(cells, colMap, "name")),
			PurchasePrice: price,
			TaxRate:       parseTaxRate(cell(cells, colMap, "iva")),
		}
		if v := strings.TrimSpace(cell(cells, colMap, "laboratory")); v != "" {
			row.Laboratory = &v
		}
		if v := strings.TrimSpace(cell(cells, colMap, "active_substance")); v != "" {
			row.ActiveSubstance = &v
		}
		if v := strings.TrimSpace(cell(cells, colMap, "inventory")); v != "" {
			qty, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("row %d: inventory: %w", i+2, err)
			}
			row.Inventory = qty
		}
		parsed = append(parsed, row)
	}
	return parsed, nil
}

func mapColumns(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, raw := range header {
		key := normalizeHeader(raw)
		if field, ok := headerAliases[key]; ok {
			if _, taken := colMap[field]; !taken {
				colMap[field] = i
			}
		}
	}
	return colMap
}

func normalizeHeader(raw string) string {
	folded, _, err := transform.String(accentFolder, raw)
	if err != nil {
		folded = raw
	}
	return strings.ToUpper(strings.TrimSpace(folded))
}

func cell(cells []string, colMap map[string]int, field string) string {
	i, ok := colMap[field]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func parseMoney(raw string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty amount")
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", raw, err)
	}
	return value, nil
}

// parseTaxRate maps the IVA column to a rate. "IVA" means the standard 16%
// rate, "s/IVA" (or blank) means exempt; an explicit numeric rate wins.
func parseTaxRate(raw string) float64 {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case value == "":
		return 0
	case strings.HasPrefix(value, "S/"), strings.Contains(value, "SIN"), value == "EXENTO":
		return 0
	}
	if strings.HasSuffix(value, "%") {
		if pct, err := strconv.ParseFloat(strings.TrimSuffix(value, "%"), 64); err == nil {
			return pct / 100
		}
	}
	if rate, err := strconv.ParseFloat(value, 64); err == nil && rate < 1 {
		return rate
	}
	return 0.16
}
