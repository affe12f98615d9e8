package llm

import (
	"fmt"
	"strings"
	"testing"
)

func event(delta string) string {
	return fmt.Sprintf(`data: {"choices":[{"delta":{"content":%q}}]}`+"\n", delta)
}

func TestStreamParserEmitsAccumulatedSnapshots(t *testing.T) {
	stream := event("The ") + event("lease ") + event("is void.") + "data: [DONE]\n"

	p := NewStreamParser()
	snapshots := p.Feed([]byte(stream))

	want := []string{"The ", "The lease ", "The lease is void."}
	if len(snapshots) != len(want) {
		t.Fatalf("expected %d snapshots, got %d: %v", len(want), len(snapshots), snapshots)
	}
	for i, s := range snapshots {
		if s != want[i] {
			t.Errorf("snapshot %d: expected %q, got %q", i, want[i], s)
		}
	}
	if !p.Done() {
		t.Error("parser should be done after sentinel")
	}
	if p.Text() != "The lease is void." {
		t.Errorf("unexpected final text %q", p.Text())
	}
}

func TestStreamParserArbitraryChunkBoundaries(t *testing.T) {
	stream := event("Under ") + event("section ") + event("12, ") + event("notice is required.") + "data: [DONE]\n"
	const wantText = "Under section 12, notice is required."

	raw := []byte(stream)
	for split := 0; split <= len(raw); split++ {
		p := NewStreamParser()
		snapshots := p.Feed(raw[:split])
		snapshots = append(snapshots, p.Feed(raw[split:])...)

		if len(snapshots) != 4 {
			t.Fatalf("split %d: expected 4 snapshots, got %d: %v", split, len(snapshots), snapshots)
		}
		prev := ""
		for i, s := range snapshots {
			if !strings.HasPrefix(s, prev) || len(s) <= len(prev) {
				t.Fatalf("split %d: snapshot %d %q is not a prefix-extension of %q", split, i, s, prev)
			}
			prev = s
		}
		if p.Text() != wantText {
			t.Fatalf("split %d: expected final text %q, got %q", split, wantText, p.Text())
		}
	}
}

func TestStreamParserIgnoresCommentsAndBlankLines(t *testing.T) {
	stream := ": keep-alive\n\n" + event("a") + "\n: ping\n" + event("b") + "data: [DONE]\n"

	p := NewStreamParser()
	snapshots := p.Feed([]byte(stream))

	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d: %v", len(snapshots), snapshots)
	}
	if p.Text() != "ab" {
		t.Errorf("expected text %q, got %q", "ab", p.Text())
	}
}

func TestStreamParserStopsAtSentinel(t *testing.T) {
	stream := event("before") + "data: [DONE]\n" + event("after")

	p := NewStreamParser()
	snapshots := p.Feed([]byte(stream))

	if len(snapshots) != 1 || snapshots[0] != "before" {
		t.Fatalf("expected single %q snapshot, got %v", "before", snapshots)
	}
	if !p.Done() {
		t.Error("parser should be done")
	}
	if got := p.Feed([]byte(event("late"))); got != nil {
		t.Errorf("feed after done should emit nothing, got %v", got)
	}
	if p.Text() != "before" {
		t.Errorf("text after sentinel should stay %q, got %q", "before", p.Text())
	}
}

func TestStreamParserStripsCarriageReturns(t *testing.T) {
	stream := strings.ReplaceAll(event("crlf")+"data: [DONE]\n", "\n", "\r\n")

	p := NewStreamParser()
	snapshots := p.Feed([]byte(stream))

	if len(snapshots) != 1 || snapshots[0] != "crlf" {
		t.Fatalf("expected single %q snapshot, got %v", "crlf", snapshots)
	}
	if !p.Done() {
		t.Error("parser should be done")
	}
}

func TestStreamParserWaitsForSplitPayload(t *testing.T) {
	full := event("patience")
	head, tail := full[:len(full)/2], full[len(full)/2:]

	p := NewStreamParser()
	if got := p.Feed([]byte(head)); got != nil {
		t.Fatalf("partial line should emit nothing, got %v", got)
	}
	snapshots := p.Feed([]byte(tail))
	if len(snapshots) != 1 || snapshots[0] != "patience" {
		t.Fatalf("expected single %q snapshot, got %v", "patience", snapshots)
	}
}

func TestStreamParserDiscardsPartialLineOnClose(t *testing.T) {
	p := NewStreamParser()
	p.Feed([]byte(event("kept")))
	p.Feed([]byte(`data: {"choices":[{"delta":{"content":"trunc`)) // transport closed here

	if p.Text() != "kept" {
		t.Errorf("partial trailing line should be discarded, text is %q", p.Text())
	}
}

func TestStreamParserBoundsUnparseableLines(t *testing.T) {
	junk := "data: {" + strings.Repeat("x", maxPendingBytes) + "\n"

	p := NewStreamParser()
	if got := p.Feed([]byte(junk)); got != nil {
		t.Fatalf("junk line should emit nothing, got %v", got)
	}
	if p.Stalls() != 1 {
		t.Fatalf("expected 1 recorded stall, got %d", p.Stalls())
	}

	// The stream must keep making progress after the discard
	snapshots := p.Feed([]byte(event("recovered")))
	if len(snapshots) != 1 || snapshots[0] != "recovered" {
		t.Fatalf("expected recovery snapshot, got %v", snapshots)
	}
}

func TestStreamParserSkipsEmptyDeltas(t *testing.T) {
	stream := `data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\n" + event("text") + "data: [DONE]\n"

	p := NewStreamParser()
	snapshots := p.Feed([]byte(stream))

	if len(snapshots) != 1 || snapshots[0] != "text" {
		t.Fatalf("role-only event should not emit, got %v", snapshots)
	}
}
