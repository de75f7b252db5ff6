package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestRun(t *testing.T) {
	valid := writeDoc(t, "ok.tgd.json", `{"name": "ok", "branding": {"companyName": "Ok", "primaryColor": "#000000"}, "content": {"tagline": {"en": "hi"}}}`)
	invalid := writeDoc(t, "bad.tgd.json", `{"name": "bad", "branding": {"companyName": "Bad", "primaryColor": "red"}, "content": {"tagline": {"en": "hi"}}}`)

	tests := []struct {
		name       string
		args       []string
		wantStatus int
		wantOut    []string
	}{
		{"valid file", []string{valid}, 0, []string{"ok.tgd.json: ok (ok, 0 products)"}},
		{"invalid file", []string{invalid}, 1, []string{"bad.tgd.json: 1 violation(s)", "branding.primaryColor: "}},
		{"mixed files", []string{valid, invalid}, 1, []string{"ok.tgd.json: ok", "bad.tgd.json"}},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.json")}, 1, []string{"nope.json: "}},
		{"sample configs", []string{"../../configs/default.tgd.json", "../../configs/skincare-demo.tgd.json"}, 0, []string{"default.tgd.json: ok", "skincare-demo.tgd.json: ok (skincare-demo, 3 products)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			status := run(tt.args, &stdout, &stderr)

			assert.Equal(t, tt.wantStatus, status, stdout.String())
			for _, want := range tt.wantOut {
				assert.Contains(t, stdout.String(), want)
			}
		})
	}
}

func TestRun_Quiet(t *testing.T) {
	valid := writeDoc(t, "ok.tgd.json", `{"name": "ok", "branding": {"companyName": "Ok", "primaryColor": "#000000"}, "content": {"tagline": {"en": "hi"}}}`)

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, run([]string{"-q", valid}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: configcheck")
}
