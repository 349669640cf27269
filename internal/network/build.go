package network

import (
	"fmt"
	"strconv"
	"strings"
)

// Chain returns the linear network of n physical sites:
// -1>0, 0>1, ..., (n-1)>-1.
func Chain(n int) (*Network, error) {
	if n <= 0 {
		return nil, invalid("chain needs at least one site")
	}
	bonds := make([]Bond, 0, n+1)
	bonds = append(bonds, Bond{-1, 0})
	for i := 0; i+1 < n; i++ {
		bonds = append(bonds, Bond{i, i + 1})
	}
	bonds = append(bonds, Bond{n - 1, -1})

	orbs := make([]int, n)
	for i := range orbs {
		orbs[i] = i
	}
	return New(bonds, orbs)
}

// ParseBonds reads the compact bond notation "from>to" separated by commas
// or whitespace, e.g. "-1>0, 0>1, 1>-1".
func ParseBonds(text string) ([]Bond, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	bonds := make([]Bond, 0, len(fields))
	for _, f := range fields {
		from, to, ok := strings.Cut(f, ">")
		if !ok {
			return nil, fmt.Errorf("bond %q: expected from>to", f)
		}
		a, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("bond %q: %w", f, err)
		}
		b, err := strconv.Atoi(to)
		if err != nil {
			return nil, fmt.Errorf("bond %q: %w", f, err)
		}
		bonds = append(bonds, Bond{a, b})
	}
	return bonds, nil
}

// FormatBonds is the inverse of ParseBonds.
func FormatBonds(bonds []Bond) string {
	parts := make([]string, len(bonds))
	for i, b := range bonds {
		parts[i] = fmt.Sprintf("%d>%d", b[0], b[1])
	}
	return strings.Join(parts, ", ")
}
