package cli

import (
	"bytes"
	"testing"
)

func TestWriteTableAligns(t *testing.T) {
	var buf bytes.Buffer
	headers := []string{"ID", "NAME", "ONLINE"}
	rows := [][]string{
		{"dev-1", "Kitchen Strip", "yes"},
		{"dev-22", "世界", "no"},
	}

	if err := writeTable(&buf, headers, rows); err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}

	// The CJK name is 4 cells wide, so its column pads 9 fewer spaces.
	want := "" +
		"ID      NAME           ONLINE\n" +
		"dev-1   Kitchen Strip  yes\n" +
		"dev-22  世界           no\n"

	if buf.String() != want {
		t.Fatalf("unexpected table output:\nwant:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestWriteTableRaggedRows(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, []string{"A"}, [][]string{{"1", "extra"}}); err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}

	want := "A  \n1  extra\n"
	if buf.String() != want {
		t.Fatalf("unexpected table output: %q", buf.String())
	}
}

func TestWriteTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := writeTable(&buf, nil, nil); err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestFormatYesNo(t *testing.T) {
	if got := formatYesNo(true); got != "yes" {
		t.Fatalf("formatYesNo(true) = %q", got)
	}
	if got := formatYesNo(false); got != "no" {
		t.Fatalf("formatYesNo(false) = %q", got)
	}
}
