package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Version представляет версию игровой платформы в формате major.minor.patch.
type Version struct {
	Major int
	Minor int
	Patch int
}

var (
	// VersionBountifulUpdate — минимальная поддерживаемая версия платформы (1.8).
	VersionBountifulUpdate = Version{Major: 1, Minor: 8}
	// VersionCombatUpdate — версия, в которой появилась полоса босса (1.9).
	VersionCombatUpdate = Version{Major: 1, Minor: 9}
	// VersionWildUpdate — версия, начиная с которой игровой чат
	// доставляется как системный (1.19).
	VersionWildUpdate = Version{Major: 1, Minor: 19}
)

// ParseVersion разбирает строку вида "1.19.4" или "1.8".
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid platform version %q", s)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid platform version %q", s)
		}
		nums[i] = n
	}

	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// AtLeast сообщает, что версия v не ниже other.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

func (v Version) String() string {
	if v.Patch == 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
