package order

import (
	"math/rand/v2"
	"regexp"
	"time"
)

const numberLayout = "20060102150405"

var numberPattern = regexp.MustCompile(`^ORD\d{14}[A-Z]{3}$`)

// NewNumber formats ORD + yyyyMMddHHmmss + three uppercase letters. The
// letters only make collisions unlikely; Create reports ErrNumberTaken and
// the caller retries.
func NewNumber(now time.Time) string {
	b := make([]byte, 3)
	for i := range b {
		b[i] = byte('A' + rand.IntN(26))
	}
	return "ORD" + now.Format(numberLayout) + string(b)
}

func ValidNumber(s string) bool { return numberPattern.MatchString(s) }
