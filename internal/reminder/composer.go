package reminder

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
)

// Composer produces the reminder text for a delivery. Its randomness is
// cosmetic and must not leak into scheduling decisions.
type Composer interface {
	Compose(displayName string) string
}

// defaultPhrases is the built-in supplementary phrase pool, used when no
// phrases file is configured.
var defaultPhrases = []string{
	"Have a wonderful day!",
	"Rise and shine!",
	"Today is going to be a good one.",
	"Don't forget to smile today.",
	"Make the most of it!",
}

// GreetingComposer greets the user by display name, with a small chance of an
// alternate pet name instead, and appends one random phrase from its pool.
type GreetingComposer struct {
	mu            sync.Mutex
	rnd           *rand.Rand
	alternateName string
	alternateOdds int // 1-in-N chance of the alternate name; 0 disables it
	phrases       []string
}

// GreetingOptions configures a GreetingComposer.
type GreetingOptions struct {
	AlternateName string
	AlternateOdds int
	Phrases       []string
	Source        rand.Source // injectable for deterministic tests
}

// NewGreetingComposer creates the default composer: "sweetheart" at 1-in-26
// odds, built-in phrase pool, time-seeded randomness.
func NewGreetingComposer() *GreetingComposer {
	return NewGreetingComposerWithOptions(GreetingOptions{})
}

// NewGreetingComposerWithOptions creates a composer with explicit settings.
func NewGreetingComposerWithOptions(o GreetingOptions) *GreetingComposer {
	if o.AlternateName == "" {
		o.AlternateName = "sweetheart"
	}
	if o.AlternateOdds <= 0 {
		o.AlternateOdds = 26
	}
	if len(o.Phrases) == 0 {
		o.Phrases = defaultPhrases
	}
	if o.Source == nil {
		o.Source = rand.NewSource(time.Now().UnixNano())
	}
	return &GreetingComposer{
		rnd:           rand.New(o.Source),
		alternateName: o.AlternateName,
		alternateOdds: o.AlternateOdds,
		phrases:       o.Phrases,
	}
}

// Compose builds the greeting text.
func (c *GreetingComposer) Compose(displayName string) string {
	c.mu.Lock()
	who := displayName
	if c.alternateOdds > 0 && c.rnd.Intn(c.alternateOdds) == 0 {
		who = c.alternateName
	}
	phrase := c.phrases[c.rnd.Intn(len(c.phrases))]
	c.mu.Unlock()
	return fmt.Sprintf("Good morning, %s! %s", who, phrase)
}

// LoadPhrases reads a phrase pool from a file, one phrase per line. Blank
// lines are skipped.
func LoadPhrases(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var phrases []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			phrases = append(phrases, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return phrases, nil
}
