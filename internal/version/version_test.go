package version

import (
	"runtime/debug"
	"strings"
	"testing"
	"time"
)

func TestCurrentPrefersBuildVersion(t *testing.T) {
	old := buildVersion
	buildVersion = "v1.2.3+dirty"
	t.Cleanup(func() { buildVersion = old })

	if got := Current(); got != "v1.2.3" {
		t.Fatalf("expected build version without dirty marker, got %q", got)
	}
	if got := CurrentWithDirty(); got != "v1.2.3+dirty" {
		t.Fatalf("expected dirty build version, got %q", got)
	}
	if info := Get(); info.Version != "v1.2.3+dirty" || !strings.Contains(info.String(), "v1.2.3") {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestPseudoFromBuildInfo(t *testing.T) {
	ts := time.Date(2025, time.January, 2, 3, 4, 5, 0, time.UTC)
	info := &debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "1234567890abcdef"},
			{Key: "vcs.time", Value: ts.Format(time.RFC3339)},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	want := "v0.0.0-20250102030405-1234567890ab"
	if got := pseudoFromBuildInfo(info, true); got != want+"+dirty" {
		t.Fatalf("unexpected dirty pseudo version %q", got)
	}
	if got := pseudoFromBuildInfo(info, false); got != want {
		t.Fatalf("unexpected clean pseudo version %q", got)
	}
	if pseudoFromBuildInfo(nil, true) != "" {
		t.Fatalf("expected empty version for nil build info")
	}
}
