package mem

// WordsDump provides data for testing.
type WordsDump struct {
	Bases []uint64
	Sizes []uint64
	Pages [][]int64
}

// Dump memory data for testing.
func (m *Words) Dump() (d WordsDump) {
	d.Bases = m.bases
	d.Sizes = m.sizes
	d.Pages = m.pages
	return d
}
