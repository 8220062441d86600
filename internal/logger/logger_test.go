package logger

import (
	"strings"
	"testing"
)

func TestLogAndTail(t *testing.T) {
	Clear()
	var sb strings.Builder
	Write(&sb)
	if sb.String() != "" {
		t.Fatalf("empty log wrote %q", sb.String())
	}

	Log("cart", "intellicart")
	Logf("stic", "display %s", "enabled")
	Logf("stic", "display %s", "enabled")

	sb.Reset()
	Write(&sb)
	want := "cart: intellicart\nstic: display enabled (repeat x2)\n"
	if sb.String() != want {
		t.Fatalf("log got %q want %q", sb.String(), want)
	}

	sb.Reset()
	Tail(&sb, 1)
	if sb.String() != "stic: display enabled (repeat x2)\n" {
		t.Fatalf("tail got %q", sb.String())
	}

	sb.Reset()
	Tail(&sb, 100)
	if sb.String() != want {
		t.Fatalf("tail past length got %q", sb.String())
	}
}

func TestEcho(t *testing.T) {
	Clear()
	var sb strings.Builder
	SetEcho(&sb)
	defer SetEcho(nil)
	Log("psg", "line\nbreak")
	if sb.String() != "psg: linebreak\n" {
		t.Fatalf("echo got %q", sb.String())
	}
}
