// Package geo maps rendered map features back to ISO 3166-1 alpha-2 country
// codes and display names. Feature property bags differ between geometry
// sources, so codes and names are read through ordered extractor chains.
package geo
