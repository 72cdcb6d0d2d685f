package profile

import (
	"io"
	"strings"
	"testing"
)

func TestRunSetupAnswers(t *testing.T) {
	in := strings.NewReader("Ana\nsvg\nreports\nnot-a-color\n#ff9500\n")
	prof, err := RunSetup(in, io.Discard, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	want := Profile{Name: "Ana", DefaultFormat: "svg", OutputDir: "reports", Color: "#ff9500"}
	if *prof != want {
		t.Errorf("profile = %+v, want %+v", *prof, want)
	}
}

func TestRunSetupKeepsExistingOnBlankAnswers(t *testing.T) {
	existing := &Profile{Name: "Ana", DefaultFormat: "json", OutputDir: "out", Color: "#34c759"}
	prof, err := RunSetup(strings.NewReader("\n\n\n\n"), io.Discard, existing)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if *prof != *existing {
		t.Errorf("profile = %+v, want %+v", *prof, *existing)
	}
}

func TestRunSetupUnknownFormatFallsBackToMarkdown(t *testing.T) {
	prof, err := RunSetup(strings.NewReader("Bo\npdf\n.\n\n"), io.Discard, nil)
	if err != nil {
		t.Fatalf("RunSetup: %v", err)
	}
	if prof.DefaultFormat != "markdown" {
		t.Errorf("DefaultFormat = %q, want markdown", prof.DefaultFormat)
	}
}

func TestRunSetupEOF(t *testing.T) {
	if _, err := RunSetup(strings.NewReader(""), io.Discard, nil); err == nil {
		t.Error("expected an error when input ends before the first answer")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if Exists() {
		t.Fatal("profile should not exist yet")
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error loading a missing profile")
	}
	prof := &Profile{Name: "Ana", DefaultFormat: "markdown", OutputDir: ".", Color: "#ff9500"}
	if err := Save(prof); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("profile should exist after Save")
	}
	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *prof {
		t.Errorf("loaded %+v, want %+v", *got, *prof)
	}
}

func TestSaveRejectsBadColor(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if err := Save(&Profile{Name: "Ana", Color: "orange"}); err == nil {
		t.Error("expected validation error")
	}
}
