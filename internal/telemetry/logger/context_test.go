package logger

import (
	"bytes"
	"context"
	"testing"
)

func TestL_BindsRequestAttributes(t *testing.T) {
	resetLevel(t)

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), newJSONTestLogger(t, &buf))
	ctx = WithRequest(ctx, "01HZX3K7Q4", "10.0.0.7:5123")
	ctx = WithKind(ctx, "xslt")

	L(ctx).Debug("request rejected", "status", 404)

	entry := decodeEntry(t, &buf)
	want := map[string]string{
		"request_id":  "01HZX3K7Q4",
		"remote_addr": "10.0.0.7:5123",
		"kind":        "xslt",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %q", k, entry[k], v)
		}
	}
}

func TestL_OmitsUnsetAttributes(t *testing.T) {
	resetLevel(t)

	var buf bytes.Buffer
	ctx := WithLogger(context.Background(), newJSONTestLogger(t, &buf))
	ctx = WithRequest(ctx, "01HZX3K7Q4", "")

	L(ctx).Info("request")

	entry := decodeEntry(t, &buf)
	if entry["request_id"] != "01HZX3K7Q4" {
		t.Errorf("request_id = %v", entry["request_id"])
	}
	for _, k := range []string{"remote_addr", "kind"} {
		if _, ok := entry[k]; ok {
			t.Errorf("%s present without being set: %v", k, entry)
		}
	}
}

func TestWithKind_KeepsRequest(t *testing.T) {
	ctx := WithRequest(context.Background(), "01HZX3K7Q4", "10.0.0.7:5123")
	routed := WithKind(ctx, "xml")

	got := RequestFromContext(routed)
	want := Request{ID: "01HZX3K7Q4", RemoteAddr: "10.0.0.7:5123", Kind: "xml"}
	if got != want {
		t.Errorf("RequestFromContext() = %+v, want %+v", got, want)
	}
	if RequestFromContext(ctx).Kind != "" {
		t.Error("WithKind modified the parent context")
	}
}

func TestFromContext_FallsBack(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext() = nil without a logger")
	}
	if got := RequestFromContext(context.Background()); got != (Request{}) {
		t.Errorf("RequestFromContext() = %+v, want zero", got)
	}
	// No logger and no attributes must still be usable.
	L(context.Background()).Debug("unrouted")
}
