package main

import (
	"testing"

	"github.com/vovakirdan/gamegen/internal/catalog"
)

func flappyConfig(t *testing.T) catalog.GameConfig {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	g, err := cat.MustGame("flappy-bird")
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewEditorSessionAppliesFlags(t *testing.T) {
	session, err := newEditorSession(flappyConfig(t), sessionFlags{
		difficulty: "hard",
		sets:       []string{"gravity=0.3"},
		assets:     []string{"character=/assets/bird.png"},
	}, nil)
	if err != nil {
		t.Fatalf("newEditorSession failed: %v", err)
	}

	settings := session.Settings()
	if settings["pipeGap"] != 300 {
		t.Errorf("pipeGap = %v, want 300 from the hard preset", settings["pipeGap"])
	}
	if settings["gravity"] != 0.3 {
		t.Errorf("gravity = %v, want 0.3", settings["gravity"])
	}
	if url, _ := session.Assets()["character"].URL(); url != "/assets/bird.png" {
		t.Errorf("character = %q", url)
	}

	req := session.ExportRequest("s1")
	if req.GameID != "flappy-bird" || req.UserSessionID != "s1" {
		t.Errorf("ExportRequest = %+v", req)
	}
}

func TestNewEditorSessionRejectsBadFlags(t *testing.T) {
	tests := []sessionFlags{
		{difficulty: "extreme"},
		{sets: []string{"gravity"}},
		{sets: []string{"gravity=heavy"}},
		{sets: []string{"wings=2"}},
		{assets: []string{"character"}},
		{assets: []string{"cloud=/a.png"}},
	}
	for _, f := range tests {
		if _, err := newEditorSession(flappyConfig(t), f, nil); err == nil {
			t.Errorf("newEditorSession(%+v) succeeded, want error", f)
		}
	}
}
