// Package ordernumber builds the human-facing order identifiers printed on
// receipts and called out at the counter.
package ordernumber

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"time"
)

const (
	// Prefix starts every order number.
	Prefix = "ORD"

	// SuffixLength is the number of random characters after the date.
	// 36^6 keeps same-day collisions rare; callers still retry on a
	// duplicate.
	SuffixLength = 6

	alphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	dateLayout = "20060102"
)

var pattern = regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{6}$`)

// Generator produces order numbers.
type Generator interface {
	// Generate returns ORD-YYYYMMDD-XXXXXX for the UTC date of now.
	Generate(now time.Time) string
}

type generator struct {
	intN func(n int) int
}

// NewGenerator returns a generator backed by math/rand/v2.
func NewGenerator() Generator {
	return &generator{intN: rand.IntN}
}

func (g *generator) Generate(now time.Time) string {
	var b strings.Builder
	b.Grow(len(Prefix) + 2 + len(dateLayout) + SuffixLength)
	b.WriteString(Prefix)
	b.WriteByte('-')
	b.WriteString(now.UTC().Format(dateLayout))
	b.WriteByte('-')
	for range SuffixLength {
		b.WriteByte(alphabet[g.intN(len(alphabet))])
	}
	return b.String()
}

// Valid reports whether s has the order number shape.
func Valid(s string) bool {
	return pattern.MatchString(s)
}

// DatePart returns the YYYYMMDD segment of a well-formed order number.
func DatePart(s string) (string, bool) {
	if !Valid(s) {
		return "", false
	}
	return s[len(Prefix)+1 : len(Prefix)+1+len(dateLayout)], true
}
