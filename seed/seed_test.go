package seed

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEmbeddedContent(t *testing.T) {
	c, err := Content("")
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if c.Hero.Heading == "" {
		t.Error("embedded seed should have a hero heading")
	}
	if len(c.Cards) == 0 {
		t.Error("embedded seed should have cards")
	}
	if c.Projects == nil || c.Footer.SocialLinks == nil {
		t.Error("lists should be empty, not nil")
	}
}

func TestContentFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.json")
	if err := os.WriteFile(path, []byte(`{"hero":{"heading":"Mine"}}`), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Content(path)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}
	if c.Hero.Heading != "Mine" {
		t.Errorf("Heading = %q, want %q", c.Hero.Heading, "Mine")
	}
	if c.Cards == nil {
		t.Error("Cards should be normalized to an empty list")
	}
}

func TestContentBadFile(t *testing.T) {
	if _, err := Content(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
