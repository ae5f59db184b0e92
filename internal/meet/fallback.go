package meet

import (
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"
)

// BaseURL is the host prefix of every generated link.
const BaseURL = "https://meet.google.com/"

const letters = "abcdefghijklmnopqrstuvwxyz"

var segmentLengths = [...]int{3, 4, 3}

var fallbackPattern = regexp.MustCompile(`^https://meet\.google\.com/[a-z]{3}-[a-z]{4}-[a-z]{3}$`)

// IsFallbackShaped reports whether url has the shape of a generated link.
func IsFallbackShaped(url string) bool {
	return fallbackPattern.MatchString(url)
}

// Generator creates fallback links from a random source.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator returns a Generator drawing from src.
// A nil src uses a randomly seeded PCG source.
func NewGenerator(src rand.Source) *Generator {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Generator{rnd: rand.New(src)}
}

// Link returns a new meet-style URL. It never fails.
func (g *Generator) Link() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.WriteString(BaseURL)
	for i, n := range segmentLengths {
		if i > 0 {
			b.WriteByte('-')
		}
		for j := 0; j < n; j++ {
			b.WriteByte(letters[g.rnd.IntN(len(letters))])
		}
	}
	return b.String()
}

var defaultGenerator = NewGenerator(nil)

// GenerateFallbackLink returns a meet-style URL using the package generator.
func GenerateFallbackLink() string {
	return defaultGenerator.Link()
}
