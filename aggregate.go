package stripedmap

// Size, IsEmpty and ContainsValue implement the retry-then-lock-all
// aggregate protocol: they sum (or scan) across every partition twice
// and, if two consecutive passes agree, trust the later one. After
// retriesBeforeLock unstable passes they fall back to locking every
// partition (forcing materialization of any that were never written to)
// and taking one authoritative pass under full lock.

// Size returns the total number of entries across every partition.
func (m *Map[K, V]) Size() int {
	prevSum := int64(-1)
	haveSum := false
	for retries := -1; ; retries++ {
		if retries == retriesBeforeLock {
			return m.sizeLockAll()
		}
		parts := m.dir.Materialized()
		var sum int64
		var total int64
		for _, p := range parts {
			total += p.Count()
			sum += int64(p.ModStamp())
		}
		if haveSum && sum == prevSum {
			return int(total)
		}
		prevSum, haveSum = sum, true
	}
}

func (m *Map[K, V]) sizeLockAll() int {
	parts := m.dir.EnsureAll()
	for _, p := range parts {
		p.Lock()
	}
	defer func() {
		for _, p := range parts {
			p.Unlock()
		}
	}()
	var total int64
	for _, p := range parts {
		total += p.Count()
	}
	return int(total)
}

// IsEmpty reports whether the map has no entries. It short-circuits as
// soon as any partition shows a non-zero count.
func (m *Map[K, V]) IsEmpty() bool {
	prevSum := int64(-1)
	haveSum := false
	for retries := -1; ; retries++ {
		if retries == retriesBeforeLock {
			return m.isEmptyLockAll()
		}
		parts := m.dir.Materialized()
		var sum int64
		for _, p := range parts {
			if p.Count() != 0 {
				return false
			}
			sum += int64(p.ModStamp())
		}
		if haveSum && sum == prevSum {
			return true
		}
		prevSum, haveSum = sum, true
	}
}

func (m *Map[K, V]) isEmptyLockAll() bool {
	parts := m.dir.EnsureAll()
	for _, p := range parts {
		p.Lock()
	}
	defer func() {
		for _, p := range parts {
			p.Unlock()
		}
	}()
	for _, p := range parts {
		if p.Count() != 0 {
			return false
		}
	}
	return true
}

// ContainsValue reports whether value is bound to any key. It
// short-circuits on the first match found during an optimistic pass.
func (m *Map[K, V]) ContainsValue(value V) (bool, error) {
	if m.isNilVal(value) {
		return false, ErrNilValue
	}
	prevSum := int64(-1)
	haveSum := false
	for retries := -1; ; retries++ {
		if retries == retriesBeforeLock {
			return m.containsValueLockAll(value), nil
		}
		parts := m.dir.Materialized()
		var sum int64
		for _, p := range parts {
			sum += int64(p.ModStamp())
			tbl := p.Table()
			for i := 0; i < tbl.Len(); i++ {
				for e := tbl.Head(i); e != nil; e = e.Next() {
					if e.Value() == value {
						return true, nil
					}
				}
			}
		}
		if haveSum && sum == prevSum {
			return false, nil
		}
		prevSum, haveSum = sum, true
	}
}

func (m *Map[K, V]) containsValueLockAll(value V) bool {
	parts := m.dir.EnsureAll()
	for _, p := range parts {
		p.Lock()
	}
	defer func() {
		for _, p := range parts {
			p.Unlock()
		}
	}()
	for _, p := range parts {
		tbl := p.Table()
		for i := 0; i < tbl.Len(); i++ {
			for e := tbl.Head(i); e != nil; e = e.Next() {
				if e.Value() == value {
					return true
				}
			}
		}
	}
	return false
}
