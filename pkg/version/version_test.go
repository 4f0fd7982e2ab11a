package version

import (
	"runtime"
	"strings"
	"testing"
)

func setBuildInfo(t *testing.T, version, commit string) {
	t.Helper()
	oldVersion, oldCommit := Version, Commit
	Version, Commit = version, commit
	t.Cleanup(func() {
		Version, Commit = oldVersion, oldCommit
	})
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{"dev build", "dev", "none", "dev"},
		{"empty version", "", "none", "dev"},
		{"long commit", "1.2.0", "0123456789abcdef", "1.2.0 (0123456)"},
		{"short commit", "1.2.0", "abc", "1.2.0 (abc)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBuildInfo(t, tt.version, tt.commit)
			if got := Summary(); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPlatform(t *testing.T) {
	want := runtime.GOOS + "/" + runtime.GOARCH
	if got := Platform(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestDetails(t *testing.T) {
	setBuildInfo(t, "0.3.1", "deadbeef")
	out := Details()
	for _, want := range []string{"chatwidget version 0.3.1", "commit: deadbeef", "platform: " + Platform()} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in details, got:\n%s", want, out)
		}
	}
}
