package config

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leontonobunaga/amaprice/internal/models"
)

// LoadCategories reads the crawl target list. The format follows the
// file extension: .yaml/.yml is a document with a categories list,
// anything else is treated as CSV with one category per row.
func LoadCategories(path string) ([]models.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseCategoriesYAML(data)
	default:
		return parseCategoriesCSV(data)
	}
}

// parseCategoriesCSV reads rows of the form: name, url, url, ...
// A header row is recognized by carrying no URL and skipped. Rows
// without a name or without at least one http URL are skipped.
func parseCategoriesCSV(data []byte) ([]models.Category, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse categories CSV: %w", err)
	}

	var categories []models.Category
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}

		var urls []string
		for _, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if strings.HasPrefix(cell, "http") {
				urls = append(urls, cell)
			}
		}

		if len(urls) == 0 {
			continue
		}

		categories = append(categories, models.Category{
			Name: name,
			URLs: urls,
		})
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories found")
	}

	return categories, nil
}

type categoriesDocument struct {
	Categories []models.Category `yaml:"categories"`
}

func parseCategoriesYAML(data []byte) ([]models.Category, error) {
	var doc categoriesDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse categories YAML: %w", err)
	}

	var categories []models.Category
	for _, c := range doc.Categories {
		if c.Name == "" || len(c.URLs) == 0 {
			continue
		}
		categories = append(categories, c)
	}

	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories found")
	}

	return categories, nil
}
