package domain

import (
	"fmt"
	"math/big"
	"regexp"
)

// InitialVersion is the version every new or duplicated template starts at.
const InitialVersion = "1.0.0"

var versionPattern = regexp.MustCompile(`^(\d+)\.\d+\.\d+$`)

// IsValidVersion reports whether v is a strict major.minor.patch string.
func IsValidVersion(v string) bool {
	return versionPattern.MatchString(v)
}

// NextMajorVersion returns "{major+1}.0.0" for any string IsValidVersion
// accepts. Leading zeros are dropped and the major component is unbounded.
func NextMajorVersion(v string) (string, error) {
	match := versionPattern.FindStringSubmatch(v)
	if match == nil {
		return "", fmt.Errorf("invalid version %q", v)
	}
	major, ok := new(big.Int).SetString(match[1], 10)
	if !ok {
		return "", fmt.Errorf("invalid version %q", v)
	}
	return major.Add(major, big.NewInt(1)).String() + ".0.0", nil
}
