package sse

import (
	"fmt"
	"testing"
)

func TestParser_SingleEvent_ReturnsData(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: hello world\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != "hello world" {
		t.Errorf("expected data %q, got %q", "hello world", event.Data)
	}
	if event.Type != "" {
		t.Errorf("expected empty event type, got %q", event.Type)
	}
}

func TestParser_MultilineData_JoinsWithNewlines(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: line1\ndata: line2\ndata: line3\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != "line1\nline2\nline3" {
		t.Errorf("expected joined data, got %q", event.Data)
	}
}

func TestParser_EventTypeAndID_Captured(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("event: message_start\nid: 42\ndata: payload\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Type != "message_start" {
		t.Errorf("expected event type %q, got %q", "message_start", event.Type)
	}
	if event.ID != "42" {
		t.Errorf("expected id %q, got %q", "42", event.ID)
	}
	if event.Data != "payload" {
		t.Errorf("expected data %q, got %q", "payload", event.Data)
	}
}

func TestParser_CRLFLines_Handled(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: hello\r\n\r\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != "hello" {
		t.Errorf("expected data %q, got %q", "hello", event.Data)
	}
}

func TestParser_PartialFeed_NotReadyUntilBlankLine(t *testing.T) {
	parser := NewParser()

	parser.Feed([]byte("data: hel"))
	if _, ok := parser.Next(); ok {
		t.Fatal("expected not-ready for a partial line")
	}

	parser.Feed([]byte("lo\n"))
	if _, ok := parser.Next(); ok {
		t.Fatal("expected not-ready before the terminating blank line")
	}

	parser.Feed([]byte("\n"))
	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event after the blank line")
	}
	if event.Data != "hello" {
		t.Errorf("expected data %q, got %q", "hello", event.Data)
	}
}

func TestParser_CoalescedEvents_DrainInOrder(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: a\n\ndata: b\n\ndata: c\n\n"))

	for _, want := range []string{"a", "b", "c"} {
		event, ok := parser.Next()
		if !ok {
			t.Fatalf("expected event with data %q", want)
		}
		if event.Data != want {
			t.Errorf("expected data %q, got %q", want, event.Data)
		}
	}

	if _, ok := parser.Next(); ok {
		t.Error("expected no further events")
	}
}

func TestParser_ByteAtATimeFeed_StillParses(t *testing.T) {
	input := "event: delta\ndata: {\"text\":\"hi\"}\ndata: more\n\ndata: second\n\n"

	parser := NewParser()
	var events []Event
	for i := 0; i < len(input); i++ {
		parser.Feed([]byte{input[i]})
		for {
			event, ok := parser.Next()
			if !ok {
				break
			}
			events = append(events, event)
		}
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != "delta" || events[0].Data != "{\"text\":\"hi\"}\nmore" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
	if events[1].Data != "second" {
		t.Errorf("expected second event data %q, got %q", "second", events[1].Data)
	}
}

func TestParser_CommentsAndUnknownFields_Ignored(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte(": keep-alive comment\nretry: 3000\ndata: real\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != "real" {
		t.Errorf("expected data %q, got %q", "real", event.Data)
	}
}

func TestParser_NoDataEvent_Discarded(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("event: ping\n\ndata: after\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected the data-carrying event")
	}
	if event.Data != "after" {
		t.Errorf("expected data %q, got %q", "after", event.Data)
	}
	if event.Type != "" {
		t.Errorf("expected the dataless event's type to be dropped, got %q", event.Type)
	}
}

func TestParser_LeadingSpace_OnlyFirstConsumed(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data:  two spaces\ndata:none\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != " two spaces\nnone" {
		t.Errorf("expected data %q, got %q", " two spaces\nnone", event.Data)
	}
}

func TestParser_NoColonLine_Ignored(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("garbage line without colon\ndata: kept\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != "kept" {
		t.Errorf("expected data %q, got %q", "kept", event.Data)
	}
}

func TestParser_InvalidUTF8Value_SkipsFieldOnly(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: \xff\xfe\ndata: valid\n\n"))

	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Data != "valid" {
		t.Errorf("expected only the valid data line, got %q", event.Data)
	}
}

func TestParser_UnterminatedFinalEvent_NotReturned(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: complete\n\ndata: dangling\n"))

	event, ok := parser.Next()
	if !ok || event.Data != "complete" {
		t.Fatalf("expected the complete event, got %+v ok=%v", event, ok)
	}
	if _, ok := parser.Next(); ok {
		t.Error("expected the unterminated event to stay buffered")
	}
	if parser.Buffered() == 0 {
		t.Error("expected the dangling bytes to remain in the buffer")
	}
}

func TestParser_Compaction_KeepsParsingCorrect(t *testing.T) {
	parser := NewParser()

	// Push well past the compaction threshold across many feed/drain cycles
	// and verify no event is lost or corrupted.
	total := 500
	seen := 0
	for i := 0; i < total; i++ {
		parser.Feed([]byte(fmt.Sprintf("data: event-%04d-%s\n\n", i, "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")))
		for {
			event, ok := parser.Next()
			if !ok {
				break
			}
			want := fmt.Sprintf("event-%04d-%s", seen, "xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")
			if event.Data != want {
				t.Fatalf("event %d: expected %q, got %q", seen, want, event.Data)
			}
			seen++
		}
	}

	if seen != total {
		t.Errorf("expected %d events, got %d", total, seen)
	}
	if parser.Buffered() != 0 {
		t.Errorf("expected empty buffer after draining, got %d bytes", parser.Buffered())
	}
}

func TestParser_Reset_ClearsState(t *testing.T) {
	parser := NewParser()
	parser.Feed([]byte("data: partial"))
	parser.Reset()

	parser.Feed([]byte("data: fresh\n\n"))
	event, ok := parser.Next()
	if !ok {
		t.Fatal("expected a complete event after reset")
	}
	if event.Data != "fresh" {
		t.Errorf("expected data %q, got %q", "fresh", event.Data)
	}
}
