package domain

// RegionValue is a raw region cell of the species sheet.
type RegionValue struct {
	Name  string
	Value string
}

// Record is one parsed row of the species sheet: the species itself plus the
// categories and regions that hang off it.
type Record struct {
	Species    SpeciesFields
	Categories []string
	Regions    []RegionValue
}
