package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ParseIngredientsCSV reads a spreadsheet export with the header
// name,category,unit,conversions. Conversions are written as
// "cup=200; tbsp=12". Header names are matched case-insensitively and
// unknown columns are ignored.
func ParseIngredientsCSV(r io.Reader) (File, error) {
	records, err := readCSV(r)
	if err != nil {
		return File{}, err
	}

	file := File{Ingredients: make([]IngredientEntry, 0, len(records))}
	for i, record := range records {
		name := record["name"]
		if name == "" {
			continue
		}
		conversions, err := parseConversions(record["conversions"])
		if err != nil {
			return File{}, fmt.Errorf("row %d (%s): %w", i+2, name, err)
		}
		file.Ingredients = append(file.Ingredients, IngredientEntry{
			Name:        name,
			Category:    record["category"],
			Unit:        record["unit"],
			Conversions: conversions,
		})
	}
	return file, nil
}

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, errors.New("csv is empty")
	}

	header := rows[0]
	for idx, key := range header {
		header[idx] = strings.ToLower(strings.TrimSpace(key))
	}
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}

		record := make(map[string]string, len(header))
		for idx, key := range header {
			if idx >= len(row) {
				continue
			}
			record[key] = strings.TrimSpace(row[idx])
		}
		records = append(records, record)
	}

	return records, nil
}

func parseConversions(value string) (map[string]float64, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	conversions := make(map[string]float64)
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		unit, raw, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("conversion %q must look like unit=factor", part)
		}
		factor, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("conversion %q: factor is not a number", part)
		}
		conversions[strings.TrimSpace(unit)] = factor
	}
	return conversions, nil
}
