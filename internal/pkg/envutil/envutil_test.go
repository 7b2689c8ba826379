package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("ENVUTIL_STR", "  value ")
	t.Setenv("ENVUTIL_INT", "12")
	t.Setenv("ENVUTIL_BAD_INT", "twelve")
	t.Setenv("ENVUTIL_BOOL", "off")
	t.Setenv("ENVUTIL_SECS", "30")

	if got := String("ENVUTIL_STR", "def"); got != "value" {
		t.Fatalf("String: got %q", got)
	}
	if got := String("ENVUTIL_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got %q", got)
	}
	if got := Int("ENVUTIL_INT", 1); got != 12 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("ENVUTIL_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if got := Bool("ENVUTIL_BOOL", true); got {
		t.Fatalf("Bool: want false")
	}
	if got := Bool("ENVUTIL_MISSING", true); !got {
		t.Fatalf("Bool default: want true")
	}
	if got := Seconds("ENVUTIL_SECS", time.Minute); got != 30*time.Second {
		t.Fatalf("Seconds: got %s", got)
	}
}

func TestFloatAndList(t *testing.T) {
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	t.Setenv("ENVUTIL_LIST", " a=1, ,b=2 ")

	if got := Float("ENVUTIL_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: got %v", got)
	}
	if got := Float("ENVUTIL_MISSING", 0.1); got != 0.1 {
		t.Fatalf("Float default: got %v", got)
	}
	got := List("ENVUTIL_LIST")
	if len(got) != 2 || got[0] != "a=1" || got[1] != "b=2" {
		t.Fatalf("List: got %q", got)
	}
}
