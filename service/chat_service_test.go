package service

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/llm"
	"github.com/Novicer18/lexadvisor/models"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"short message kept whole", "Is my lease valid?", "Is my lease valid?"},
		{"whitespace collapsed", "  Is \n my\tlease   valid? ", "Is my lease valid?"},
		{"empty falls back", "   ", "New conversation"},
		{
			"long message cut at word boundary",
			"What are the statutory notice requirements for terminating a commercial lease in this jurisdiction?",
			"What are the statutory notice requirements for terminating…",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveTitle(tc.content); got != tc.want {
				t.Errorf("deriveTitle(%q) = %q, want %q", tc.content, got, tc.want)
			}
		})
	}
}

func TestDeriveTitleNeverExceedsBound(t *testing.T) {
	long := strings.Repeat("word ", 50)
	title := deriveTitle(long)
	// bound plus the ellipsis rune
	if utf8.RuneCountInString(title) > maxTitleLength+1 {
		t.Errorf("title too long (%d runes): %q", utf8.RuneCountInString(title), title)
	}
}

func TestDeriveTitleKeepsMultibyteRunesIntact(t *testing.T) {
	// A long spaceless question in CJK has no word boundary to cut at; the
	// truncation must still land between runes.
	content := "q" + strings.Repeat("租", 80)
	title := deriveTitle(content)

	if !utf8.ValidString(title) {
		t.Fatalf("title is not valid UTF-8: %q", title)
	}
	if got := utf8.RuneCountInString(title); got > maxTitleLength+1 {
		t.Errorf("title too long (%d runes): %q", got, title)
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("truncated title should end with ellipsis: %q", title)
	}
}

func TestCitationsFromDeduplicatesByDocument(t *testing.T) {
	docA, docB := uuid.New(), uuid.New()
	chunks := []models.DocumentChunk{
		{DocumentID: docA, DocumentTitle: "Lease Act", DocumentDomain: models.DomainProperty},
		{DocumentID: docA, DocumentTitle: "Lease Act", DocumentDomain: models.DomainProperty},
		{DocumentID: docB, DocumentTitle: "Labor Code", DocumentDomain: models.DomainLabor},
	}

	citations := citationsFrom(chunks)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d: %v", len(citations), citations)
	}
	if citations[0].Title != "Lease Act" || citations[0].Domain != models.DomainProperty {
		t.Errorf("unexpected first citation %+v", citations[0])
	}
	if citations[1].Title != "Labor Code" || citations[1].Domain != models.DomainLabor {
		t.Errorf("unexpected second citation %+v", citations[1])
	}
}

func TestCitationsFromEmpty(t *testing.T) {
	if got := citationsFrom(nil); got != nil {
		t.Errorf("expected nil citations, got %v", got)
	}
}

func TestBuildContextOrdering(t *testing.T) {
	history := []models.Message{
		{Role: models.MessageRoleUser, Content: "first question"},
		{Role: models.MessageRoleAssistant, Content: "first answer"},
		{Role: models.MessageRoleSystem, Content: "stale system row"},
	}

	messages := buildContext("system prompt", history, "second question")

	want := []llm.Message{
		{Role: "system", Content: "system prompt"},
		{Role: "user", Content: "first question"},
		{Role: "assistant", Content: "first answer"},
		{Role: "user", Content: "second question"},
	}
	if len(messages) != len(want) {
		t.Fatalf("expected %d messages, got %d: %v", len(want), len(messages), messages)
	}
	for i, msg := range messages {
		if msg != want[i] {
			t.Errorf("message %d: got %+v, want %+v", i, msg, want[i])
		}
	}
}

func TestSystemPromptListsSources(t *testing.T) {
	chunks := []models.DocumentChunk{
		{DocumentTitle: "Lease Act", DocumentDomain: models.DomainProperty, ChunkText: "Notice must be written."},
	}

	prompt := systemPrompt(chunks)
	if !strings.Contains(prompt, "Lease Act") || !strings.Contains(prompt, "Notice must be written.") {
		t.Errorf("prompt missing source content: %q", prompt)
	}

	bare := systemPrompt(nil)
	if strings.Contains(bare, "Relevant excerpts") {
		t.Errorf("empty retrieval should not announce excerpts: %q", bare)
	}
}
