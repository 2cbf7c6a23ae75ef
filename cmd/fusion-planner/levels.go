package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rsned/fusion-planner/pkg/fusion"
)

// parseLevels reads "primary,secondary,tertiary". Missing trailing values are zero.
func parseLevels(s string) (fusion.BonusLevels, error) {
	var levels fusion.BonusLevels
	s = strings.TrimSpace(s)
	if s == "" {
		return levels, nil
	}

	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return levels, fmt.Errorf("want at most 3 levels, got %d", len(parts))
	}

	dst := []*int{&levels.Primary, &levels.Secondary, &levels.Tertiary}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return levels, fmt.Errorf("level %d: %w", i+1, err)
		}
		if n < 0 {
			return levels, fmt.Errorf("level %d is negative", i+1)
		}
		*dst[i] = n
	}
	return levels, nil
}
