package mem

// DefaultPageSize provides a default for Words.PageSize.
const DefaultPageSize = 256

// Words implements a sparse, paged memory of int64 cells. Every cell reads as
// zero until stored; pages are only allocated by stores.
type Words struct {
	PagedCore
	pages [][]int64
}

// Size returns an address one position higher than the last position in the
// last page allocated so far.
func (m *Words) Size() uint64 {
	if i := len(m.bases) - 1; i >= 0 {
		return m.bases[i] + uint64(len(m.pages[i]))
	}
	return 0
}

// Load returns a single value from the given address.
// Returns an error if addr is at or past Limit.
func (m *Words) Load(addr uint64) (int64, error) {
	if err := m.checkLimit(addr, "load"); err != nil {
		return 0, err
	}

	if len(m.pages) == 0 {
		return 0, nil
	}

	pageID := m.findPage(addr)
	base := m.bases[pageID]
	page := m.pages[pageID]
	if addr >= base && addr-base < uint64(len(page)) {
		return page[addr-base], nil
	}

	return 0, nil
}

// LoadInto reads len(buf) cells from memory starting at addr, zero filling
// wherever no page has been allocated.
// Returns an error if the range reaches past Limit; no partial load is done.
func (m *Words) LoadInto(addr uint64, buf []int64) error {
	if len(buf) == 0 {
		return nil
	}

	end := addr + uint64(len(buf))
	if err := m.checkLimit(end-1, "load"); err != nil {
		return err
	}

	for pageID := m.findPage(addr); addr < end && pageID < len(m.bases); pageID++ {
		base := m.bases[pageID]
		if base >= end {
			break
		}

		if base > addr {
			skip := base - addr
			for i := range buf[:skip] {
				buf[i] = 0
			}
			buf = buf[skip:]
			addr = base
		}

		page := m.pages[pageID]
		if skip := addr - base; skip > 0 {
			if skip >= uint64(len(page)) {
				continue
			}
			page = page[skip:]
		}

		n := copy(buf, page)
		buf = buf[n:]
		addr += uint64(n)
	}

	for i := range buf {
		buf[i] = 0
	}

	return nil
}

// Stor stores any values at addr, allocating pages if necessary.
// Returns an error if the range reaches past Limit; no partial store is done.
func (m *Words) Stor(addr uint64, values ...int64) error {
	if len(values) == 0 {
		return nil
	}

	end := addr + uint64(len(values))
	if err := m.checkLimit(end-1, "stor"); err != nil {
		return err
	}

	if m.PageSize == 0 {
		m.PageSize = DefaultPageSize
	}

	for pageID := m.findPage(addr); addr < end; pageID++ {
		base, size, page := m.allocPage(pageID, addr)
		if skip := addr - base; skip > 0 {
			if skip >= size {
				continue
			}
			page = page[skip:]
		}
		n := copy(page, values)
		values = values[n:]
		addr += uint64(n)
	}

	return nil
}

// Each calls fn with every non-zero cell, in address order.
func (m *Words) Each(fn func(addr uint64, val int64)) {
	for i, page := range m.pages {
		base := m.bases[i]
		for j, val := range page {
			if val != 0 {
				fn(base+uint64(j), val)
			}
		}
	}
}

func (m *Words) allocPage(pageID int, addr uint64) (base, size uint64, page []int64) {
	base, size, isNew := m.PagedCore.allocPage(pageID, addr)
	if isNew {
		page = make([]int64, size)
		if pageID == len(m.pages) {
			m.pages = append(m.pages, page)
		} else {
			m.pages = append(m.pages, nil)
			copy(m.pages[pageID+1:], m.pages[pageID:])
			m.pages[pageID] = page
		}
	} else {
		page = m.pages[pageID]
	}
	return base, size, page
}
