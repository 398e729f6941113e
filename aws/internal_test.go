package aws

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

// Ensure text is split on paragraphs and words.
func TestSplitTextOnParagraphs(t *testing.T) {
	if a := splitTextOnParagraphs("one\ntwo\n\nthree", 8); !reflect.DeepEqual(a, []string{"one\ntwo", "three"}) {
		t.Fatalf("unexpected chunks: %q", a)
	}

	if a := splitTextOnParagraphs("the quick brown fox", 10); !reflect.DeepEqual(a, []string{"the quick", "brown fox"}) {
		t.Fatalf("unexpected chunks: %q", a)
	}

	if a := splitTextOnParagraphs("ab abcdefgh xy", 4); !reflect.DeepEqual(a, []string{"ab", "abcd", "efgh", "xy"}) {
		t.Fatalf("unexpected chunks: %q", a)
	}

	text := strings.Repeat("word ", 1000)
	for i, chunk := range splitTextOnParagraphs(text, MaxCharactersPerRequest) {
		if len(chunk) > MaxCharactersPerRequest {
			t.Fatalf("chunk %d too long: %d", i, len(chunk))
		}
	}
}

// Ensure a word longer than the request limit is cut into multiple chunks.
func TestSplitTextOnParagraphs_LongWord(t *testing.T) {
	text := "intro " + strings.Repeat("é", MaxCharactersPerRequest*2+10)
	chunks := splitTextOnParagraphs(text, MaxCharactersPerRequest)
	if len(chunks) != 4 {
		t.Fatalf("unexpected chunk count: %d", len(chunks))
	} else if chunks[0] != "intro" {
		t.Fatalf("unexpected first chunk: %q", chunks[0])
	}
	for i, chunk := range chunks {
		if n := utf8.RuneCountInString(chunk); n > MaxCharactersPerRequest {
			t.Fatalf("chunk %d too long: %d", i, n)
		}
	}
	if got := strings.Join(chunks[1:], ""); got != strings.Repeat("é", MaxCharactersPerRequest*2+10) {
		t.Fatal("long word not preserved")
	}
}

// Ensure text is escaped and wrapped with a speaking rate.
func TestSSML(t *testing.T) {
	if s := ssml("Tom & Jerry <3", false); s != `<speak><prosody rate="medium">Tom &amp; Jerry &lt;3</prosody></speak>` {
		t.Fatalf("unexpected ssml: %s", s)
	} else if s := ssml("Hi", true); s != `<speak><prosody rate="slow">Hi</prosody></speak>` {
		t.Fatalf("unexpected ssml: %s", s)
	}
}
