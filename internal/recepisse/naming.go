package recepisse

import "strings"

// Naming holds the configured prefixes and suffixes of output files.
type Naming struct {
	ReceiptPrefix string `mapstructure:"prefRecep" yaml:"prefRecep"`
	ReceiptSuffix string `mapstructure:"sufRecep" yaml:"sufRecep"`
	MapPrefix     string `mapstructure:"prefPlan" yaml:"prefPlan"`
	MapSuffix     string `mapstructure:"sufPlan" yaml:"sufPlan"`
}

// ReceiptName returns the base name (no extension) of the receipt.
func (n Naming) ReceiptName(kind, number string) string {
	return Filename(n.ReceiptPrefix, kind, number, n.ReceiptSuffix)
}

// MapName returns the base name (no extension) of the map document.
func (n Naming) MapName(kind, number string) string {
	return Filename(n.MapPrefix, kind, number, n.MapSuffix)
}

// Filename joins "prefix KIND-number suffix", trims it and turns the
// remaining spaces into dashes.
func Filename(prefix, kind, number, suffix string) string {
	name := prefix + " " + kind + "-" + number + " " + suffix
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "-")
}
