package mem

import "fmt"

// PagedCore provides functionality common to any paged memory model.
type PagedCore struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint64

	// Limit is the number of addressable cells: any access at or beyond it
	// is an error. Zero means unbounded.
	Limit uint64

	bases []uint64
	sizes []uint64
}

// LimitError indicates that a memory operation, like load or store, reached
// past the limit.
type LimitError struct {
	Addr  uint64
	Limit uint64
	Op    string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("%v @%v out of bounds, limit %v", lim.Op, lim.Addr, lim.Limit)
}

// findPage returns the index of the last page whose base is <= addr, or 0.
func (m *PagedCore) findPage(addr uint64) int {
	i, j := 0, len(m.bases)
	for i < j {
		h := int(uint(i+j)>>1) + 1
		if h < len(m.bases) && m.bases[h] <= addr {
			i = h
		} else {
			j = h - 1
		}
	}
	return i
}

// prevEnd returns the end of the page before pageID, or 0 for the first.
func (m *PagedCore) prevEnd(pageID int) uint64 {
	if i := pageID - 1; i >= 0 && i < len(m.bases) {
		return m.bases[i] + m.sizes[i]
	}
	return 0
}

func (m *PagedCore) allocPage(pageID int, addr uint64) (base, size uint64, isNew bool) {
	if pageID == len(m.bases) {
		base = addr / m.PageSize * m.PageSize
		size = m.PageSize
		if lastEnd := m.prevEnd(pageID); base < lastEnd {
			size -= lastEnd - base
			base = lastEnd
		}
		m.bases = append(m.bases, base)
		m.sizes = append(m.sizes, size)
		return base, size, true
	}

	base = m.bases[pageID]
	if addr < base {
		size = m.PageSize
		nextBase := base
		base = addr / m.PageSize * m.PageSize
		if lastEnd := m.prevEnd(pageID); base < lastEnd {
			base = lastEnd
		}
		if gapSize := nextBase - base; size > gapSize {
			size = gapSize
		}
		m.bases = append(m.bases, 0)
		m.sizes = append(m.sizes, 0)
		copy(m.bases[pageID+1:], m.bases[pageID:])
		copy(m.sizes[pageID+1:], m.sizes[pageID:])
		m.bases[pageID] = base
		m.sizes[pageID] = size
		return base, size, true
	}

	return base, m.sizes[pageID], false
}

func (m *PagedCore) checkLimit(addr uint64, op string) error {
	if maxSize := m.Limit; maxSize != 0 && addr >= maxSize {
		return LimitError{addr, maxSize, op}
	}
	return nil
}
