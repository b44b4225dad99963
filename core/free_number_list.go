package core

// FreeNumberList hands out small natural-number IDs, starting at 1.
// The allocated set is kept as an ordered list of inclusive ranges [a,b],
// so long-lived populations with scattered holes stay compact.
// Descriptor heaps and the GPU scene item allocator are the main users.
type FreeNumberList struct {
	maxValue uint32
	// Strictly ordered, non-overlapping, non-adjacent allocated ranges.
	ranges [][2]uint32
}

// NewFreeNumberList creates an allocator that can hand out 1..maxValue.
func NewFreeNumberList(maxValue uint32) *FreeNumberList {
	return &FreeNumberList{maxValue: maxValue}
}

// Allocate returns the smallest natural number not currently allocated,
// or 0 if the allocator is exhausted.
func (l *FreeNumberList) Allocate() uint32 {
	n := uint32(1)
	insertAt := len(l.ranges)
	for i, r := range l.ranges {
		if n < r[0] {
			insertAt = i
			break
		}
		n = r[1] + 1
	}
	if n > l.maxValue {
		return 0
	}

	// Expand a neighboring range if possible, otherwise insert [n,n].
	prev := insertAt - 1
	extendsPrev := prev >= 0 && l.ranges[prev][1]+1 == n
	mergesNext := insertAt < len(l.ranges) && l.ranges[insertAt][0] == n+1

	switch {
	case extendsPrev && mergesNext:
		l.ranges[prev][1] = l.ranges[insertAt][1]
		l.ranges = append(l.ranges[:insertAt], l.ranges[insertAt+1:]...)
	case extendsPrev:
		l.ranges[prev][1] = n
	case mergesNext:
		l.ranges[insertAt][0] = n
	default:
		l.ranges = append(l.ranges, [2]uint32{})
		copy(l.ranges[insertAt+1:], l.ranges[insertAt:])
		l.ranges[insertAt] = [2]uint32{n, n}
	}
	return n
}

// Deallocate removes n from the allocated set.
// Returns false if n is not currently allocated.
func (l *FreeNumberList) Deallocate(n uint32) bool {
	for i, r := range l.ranges {
		if n < r[0] || n > r[1] {
			continue
		}
		switch {
		case r[0] == r[1]:
			l.ranges = append(l.ranges[:i], l.ranges[i+1:]...)
		case n == r[0]:
			l.ranges[i][0] = n + 1
		case n == r[1]:
			l.ranges[i][1] = n - 1
		default:
			// Split [a,b] into [a,n-1] and [n+1,b].
			l.ranges = append(l.ranges, [2]uint32{})
			copy(l.ranges[i+1:], l.ranges[i:])
			l.ranges[i][1] = n - 1
			l.ranges[i+1] = [2]uint32{n + 1, r[1]}
		}
		return true
	}
	return false
}

// Exhausted reports whether every number in 1..maxValue is allocated.
func (l *FreeNumberList) Exhausted() bool {
	return len(l.ranges) == 1 && l.ranges[0][0] == 1 && l.ranges[0][1] == l.maxValue
}

// MaxValue returns the upper bound this allocator was constructed with.
func (l *FreeNumberList) MaxValue() uint32 {
	return l.maxValue
}

// NumAllocated returns how many numbers are currently allocated.
func (l *FreeNumberList) NumAllocated() uint32 {
	var total uint32
	for _, r := range l.ranges {
		total += r[1] - r[0] + 1
	}
	return total
}
