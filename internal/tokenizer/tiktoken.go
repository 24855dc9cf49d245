package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

var loaderOnce sync.Once

// Tiktoken implements Tokenizer with a tiktoken BPE encoding
type Tiktoken struct {
	encodingName string
	tke          *tiktoken.Tiktoken
}

// NewTiktoken creates a tokenizer for the given model or encoding name.
// Unknown names fall back to DefaultEncoding.
func NewTiktoken(modelOrEncoding string) (*Tiktoken, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	if modelOrEncoding == "" {
		modelOrEncoding = DefaultEncoding
	}

	encodingName := modelOrEncoding
	tke, err := tiktoken.GetEncoding(modelOrEncoding)
	if err != nil {
		tke, err = tiktoken.EncodingForModel(modelOrEncoding)
		if err != nil {
			tke, err = tiktoken.GetEncoding(DefaultEncoding)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrEncodingUnavailable, DefaultEncoding, err)
			}
			encodingName = DefaultEncoding
		}
	}

	return &Tiktoken{encodingName: encodingName, tke: tke}, nil
}

// Encode encodes text, rejecting special tokens first and retrying once in
// permissive mode when the text contains one
func (t *Tiktoken) Encode(text string) []int {
	if ids, ok := t.encodeStrict(text); ok {
		return ids
	}
	return t.tke.Encode(text, []string{"all"}, nil)
}

// encodeStrict reports false when tiktoken rejects a disallowed special token.
// tiktoken signals that case by panicking.
func (t *Tiktoken) encodeStrict(text string) (ids []int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ids, ok = nil, false
		}
	}()
	return t.tke.Encode(text, nil, []string{"all"}), true
}

func (t *Tiktoken) Decode(ids []int) string {
	return t.tke.Decode(ids)
}

func (t *Tiktoken) Count(text string) int {
	return len(t.Encode(text))
}

func (t *Tiktoken) Name() string {
	return t.encodingName
}
