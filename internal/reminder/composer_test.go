package reminder

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGreetingComposer_Compose(t *testing.T) {
	c := NewGreetingComposerWithOptions(GreetingOptions{
		AlternateOdds: 1000000, // keep the alternate name out of the way
		Source:        rand.NewSource(1),
	})

	text := c.Compose("Alice")
	assert.True(t, strings.HasPrefix(text, "Good morning, "), "text = %q", text)
	assert.Contains(t, text, "Alice")
}

func TestGreetingComposer_AlternateNameAlways(t *testing.T) {
	c := NewGreetingComposerWithOptions(GreetingOptions{
		AlternateName: "sweetheart",
		AlternateOdds: 1, // Intn(1) is always 0
		Source:        rand.NewSource(1),
	})

	text := c.Compose("Alice")
	assert.Contains(t, text, "sweetheart")
	assert.NotContains(t, text, "Alice")
}

func TestGreetingComposer_Deterministic(t *testing.T) {
	a := NewGreetingComposerWithOptions(GreetingOptions{Source: rand.NewSource(42)})
	b := NewGreetingComposerWithOptions(GreetingOptions{Source: rand.NewSource(42)})

	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Compose("Bob"), b.Compose("Bob"))
	}
}

func TestGreetingComposer_UsesEveryPhrase(t *testing.T) {
	phrases := []string{"one", "two", "three"}
	c := NewGreetingComposerWithOptions(GreetingOptions{
		AlternateOdds: 1000000,
		Phrases:       phrases,
		Source:        rand.NewSource(7),
	})

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		text := c.Compose("Alice")
		for _, p := range phrases {
			if strings.HasSuffix(text, p) {
				seen[p] = true
			}
		}
	}
	assert.Len(t, seen, len(phrases))
}

func TestLoadPhrases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases.txt")
	content := "Have a great day!\n\n  Enjoy the sunshine.  \n\nCarpe diem.\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	phrases, err := LoadPhrases(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Have a great day!", "Enjoy the sunshine.", "Carpe diem."}, phrases)
}

func TestLoadPhrases_MissingFile(t *testing.T) {
	_, err := LoadPhrases(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
