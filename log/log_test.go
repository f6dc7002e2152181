package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"trace": LevelTrace,
		"DEBUG": LevelDebug,
		"info":  LevelInfo,
		"warn":  LevelWarn,
		"error": LevelError,
		"crit":  LevelCrit,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatal("expected error for bogus level")
	}
}

func TestTerminalHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelDebug, false)))
	defer SetDefault(NewLogger(DiscardHandler()))

	Info(VMMonitoring, "hello", "k", 7)
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "k=7") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestModuleGating(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(&buf, LevelDebug, false)))
	defer SetDefault(NewLogger(DiscardHandler()))

	DisableModule(VMMonitoring)
	Debug(VMMonitoring, "hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatal("disabled module leaked a record")
	}

	EnableModule(VMMonitoring)
	Debug(VMMonitoring, "visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Fatal("enabled module dropped a record")
	}
}

func TestDiscardHandlerDropsEverything(t *testing.T) {
	SetDefault(NewLogger(DiscardHandler()))
	// Must not panic and must report disabled at every level.
	if Root().Enabled(nil, LevelCrit) {
		t.Fatal("discard handler claims to be enabled")
	}
	Info(VMMonitoring, "nowhere")
}
