package tokenizer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWord_EncodeDecodeRoundTrip(t *testing.T) {
	w := NewWord()

	texts := []string{
		"Hello, world!",
		"  leading and trailing  ",
		"multi\nline\n\ntext with 42 numbers.",
		"unicode: café 漢字 — dash",
		"",
	}

	for _, text := range texts {
		ids := w.Encode(text)
		assert.Equal(t, text, w.Decode(ids))
		assert.Equal(t, len(ids), w.Count(text))
	}
}

func TestWord_Count(t *testing.T) {
	w := NewWord()
	assert.Equal(t, 0, w.Count(""))
	assert.Equal(t, 2, w.Count("hello world"))
	assert.Equal(t, 4, w.Count("hello, world!"))
	assert.Equal(t, 1, w.Count("   "))
}

func TestWord_StableIDs(t *testing.T) {
	w := NewWord()
	first := w.Encode("alpha beta alpha")
	assert.Equal(t, first[0], w.Encode("alpha")[0])
	assert.NotEqual(t, first[0], first[1])
}

func TestWord_ConcurrentUse(t *testing.T) {
	w := NewWord()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				ids := w.Encode("the quick brown fox jumps over the lazy dog")
				_ = w.Decode(ids)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 9, w.Count("the quick brown fox jumps over the lazy dog"))
}

func TestTail(t *testing.T) {
	w := NewWord()
	text := "one two three four five"

	assert.Equal(t, " four five", Tail(w, text, 2))
	assert.Equal(t, text, Tail(w, text, 10))
	assert.Equal(t, "", Tail(w, text, 0))
	assert.Equal(t, "", Tail(w, "", 3))
}

func TestTiktoken_SpecialTokenFallsBackToPermissive(t *testing.T) {
	tk, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		t.Skipf("tiktoken unavailable: %v", err)
	}

	text := "before <|endoftext|> after"
	ids := tk.Encode(text)
	assert.NotEmpty(t, ids)
	assert.Equal(t, text, tk.Decode(ids))
	assert.Equal(t, DefaultEncoding, tk.Name())
}

func TestTiktoken_UnknownNameFallsBack(t *testing.T) {
	tk, err := NewTiktoken("not-a-real-encoding")
	if err != nil {
		t.Skipf("tiktoken unavailable: %v", err)
	}
	assert.Equal(t, DefaultEncoding, tk.Name())
	assert.Greater(t, tk.Count("hello world"), 0)
}
