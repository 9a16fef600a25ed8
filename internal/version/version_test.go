package version

import (
	"runtime"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.GoVersion != runtime.Version() {
		t.Errorf("unexpected info: %+v", info)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("Platform = %q", info.Platform)
	}
}

func TestInfoString(t *testing.T) {
	info := Info{Version: "1.2.0", GitCommit: "a1b2c3d", BuildDate: "2025-01-27", GoVersion: "go1.24.11", Platform: "linux/amd64"}
	got := info.String()
	for _, want := range []string{"1.2.0", "a1b2c3d", "2025-01-27", "linux/amd64"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
