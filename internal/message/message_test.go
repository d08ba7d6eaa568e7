package message

import "testing"

func TestNewMergesAdjacentText(t *testing.T) {
	t.Parallel()

	msg := New("ok", "\n", NewAt("42"), "tail")
	if len(msg) != 3 {
		t.Fatalf("expected 3 segments, got %d (%v)", len(msg), msg)
	}
	if text, ok := msg[0].(Text); !ok || text.Text != "ok\n" {
		t.Fatalf("unexpected first segment: %#v", msg[0])
	}
	if msg.PlainText() != "ok\ntail" {
		t.Fatalf("unexpected plain text: %q", msg.PlainText())
	}
	if msg.String() != "ok\n@42tail" {
		t.Fatalf("unexpected string: %q", msg.String())
	}
}

func TestFirstAndHas(t *testing.T) {
	t.Parallel()

	msg := New(Reply{ID: "7"}, "bind")
	if !Has[Reply](msg) {
		t.Fatalf("expected reply segment")
	}
	if Has[Image](msg) {
		t.Fatalf("unexpected image segment")
	}
	reply, ok := First[Reply](msg)
	if !ok || reply.ID != "7" {
		t.Fatalf("unexpected reply: %#v", reply)
	}
	if got := msg.Without(TypeReply); len(got) != 1 || got.PlainText() != "bind" {
		t.Fatalf("unexpected message without reply: %v", got)
	}
}
