package llm

import (
	"encoding/json"
	"strings"
)

const doneSentinel = "[DONE]"

// maxPendingBytes bounds how much buffered input the parser will hold while
// waiting for an unparseable data line to complete. A line still unparseable
// past this bound is discarded and counted instead of stalling forever.
const maxPendingBytes = 1 << 20

// StreamParser reassembles a chunked stream of newline-delimited
// "data: <json>" event records into accumulated assistant text.
//
// Chunks arrive at arbitrary, non-line-aligned boundaries, so the parser keeps
// a rolling buffer and only consumes complete lines. A data line whose JSON
// payload fails to parse is treated as split across transport chunks: the line
// is pushed back onto the buffer and parsing resumes when more bytes arrive.
type StreamParser struct {
	buf    string
	text   strings.Builder
	done   bool
	stalls int
}

// NewStreamParser creates a parser in its initial accumulating state
func NewStreamParser() *StreamParser {
	return &StreamParser{}
}

// streamEvent is the shape of one chat-completion stream record
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason,omitempty"`
	} `json:"choices"`
}

func (e *streamEvent) delta() string {
	if len(e.Choices) == 0 {
		return ""
	}
	return e.Choices[0].Delta.Content
}

// Feed appends a chunk of bytes and returns one accumulated-text snapshot per
// delta extracted from it. Each snapshot is the full assistant text so far, so
// callers can always render the latest snapshot without tracking concatenation.
func (p *StreamParser) Feed(chunk []byte) []string {
	if p.done {
		return nil
	}
	p.buf += string(chunk)

	var snapshots []string
	for {
		idx := strings.IndexByte(p.buf, '\n')
		if idx < 0 {
			break
		}
		line := strings.TrimSuffix(p.buf[:idx], "\r")
		p.buf = p.buf[idx+1:]

		// Blank lines and ":" comment lines carry no data
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if payload == doneSentinel {
			// End-of-stream marker: stop without touching the rest of the buffer
			p.done = true
			break
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(payload), &event); err != nil {
			// The record was likely split across transport chunks: restore the
			// line and wait for more bytes rather than failing the stream.
			p.buf = line + "\n" + p.buf
			if len(p.buf) > maxPendingBytes {
				p.buf = p.buf[len(line)+1:]
				p.stalls++
				continue
			}
			break
		}

		delta := event.delta()
		if delta == "" {
			continue
		}
		p.text.WriteString(delta)
		snapshots = append(snapshots, p.text.String())
	}
	return snapshots
}

// Text returns the accumulated assistant text so far
func (p *StreamParser) Text() string {
	return p.text.String()
}

// Done reports whether the end-of-stream sentinel was seen
func (p *StreamParser) Done() bool {
	return p.done
}

// Stalls returns how many over-long unparseable lines were discarded
func (p *StreamParser) Stalls() int {
	return p.stalls
}
