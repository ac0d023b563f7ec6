package patient

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// MRN format: two uppercase letters followed by eight digits.
var mrnPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{8}$`)

const mrnPrefix = "CL"

// ValidMRN reports whether s is a well-formed medical record number.
func ValidMRN(s string) bool {
	return mrnPattern.MatchString(s)
}

// GenerateMRN produces a new random MRN. Uniqueness is enforced by the
// per-tenant unique index, not here.
func GenerateMRN() (string, error) {
	max := big.NewInt(100000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate mrn: %w", err)
	}
	return fmt.Sprintf("%s%08d", mrnPrefix, n.Int64()), nil
}
