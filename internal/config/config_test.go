package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segcut.yaml")
	doc := `
preset: slow
crf: 18
transitions: true
transition_ms: 750
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if f.Preset != "slow" {
		t.Fatalf("preset = %q", f.Preset)
	}
	if f.CRF == nil || *f.CRF != 18 {
		t.Fatalf("crf = %v", f.CRF)
	}
	if f.Transitions == nil || !*f.Transitions {
		t.Fatalf("transitions = %v", f.Transitions)
	}
	if f.TransitionMs == nil || *f.TransitionMs != 750 {
		t.Fatalf("transition_ms = %v", f.TransitionMs)
	}
	// Unset fields stay nil/empty so flag merging can tell them apart.
	if f.FrameRate != nil || f.AudioCodec != "" {
		t.Fatalf("unset fields should stay unset: %+v", f)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
