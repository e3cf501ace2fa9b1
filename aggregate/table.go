package aggregate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fallbacks for unit types missing from the table
const (
	UnknownFreightClass = "0"
	UnknownNMFC         = "000000-00"
)

// Classification maps one packaging category to its freight class and NMFC item
type Classification struct {
	Category     string `yaml:"category"`
	FreightClass string `yaml:"freight_class"`
	NMFC         string `yaml:"nmfc"`
}

// Table is an ordered list of classifications; lookups are exact matches
type Table []Classification

// DefaultTable returns the built-in furniture classifications
func DefaultTable() Table {
	return Table{
		{Category: "Chairs", FreightClass: "175", NMFC: "079300-12"},
		{Category: "Stack Chairs", FreightClass: "150", NMFC: "079300-11"},
		{Category: "Lounge Seating", FreightClass: "200", NMFC: "079300-13"},
		{Category: "Tables", FreightClass: "100", NMFC: "079300-09"},
		{Category: "Table Tops", FreightClass: "100", NMFC: "079300-09"},
		{Category: "Table Bases", FreightClass: "85", NMFC: "079300-08"},
		{Category: "Panels", FreightClass: "100", NMFC: "079300-09"},
		{Category: "Storage", FreightClass: "125", NMFC: "079300-10"},
		{Category: "Parts", FreightClass: "85", NMFC: "079300-08"},
	}
}

// Lookup returns the freight class and NMFC code for a unit type
func (t Table) Lookup(unitType string) (freightClass, nmfc string) {
	for _, c := range t {
		if c.Category == unitType {
			return c.FreightClass, c.NMFC
		}
	}
	return UnknownFreightClass, UnknownNMFC
}

type tableFile struct {
	Classifications Table `yaml:"classifications"`
}

// LoadTable reads a classification table from a YAML file of the form
//
//	classifications:
//	  - category: Chairs
//	    freight_class: "175"
//	    nmfc: 079300-12
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading freight table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes YAML table data
func ParseTable(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing freight table: %w", err)
	}
	if len(f.Classifications) == 0 {
		return nil, fmt.Errorf("freight table has no classifications")
	}
	seen := make(map[string]bool, len(f.Classifications))
	for i, c := range f.Classifications {
		if c.Category == "" {
			return nil, fmt.Errorf("freight table entry %d has no category", i)
		}
		if seen[c.Category] {
			return nil, fmt.Errorf("freight table lists %q twice", c.Category)
		}
		seen[c.Category] = true
	}
	return f.Classifications, nil
}
