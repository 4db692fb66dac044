package version

import "testing"

func TestInfo_Short(t *testing.T) {
	tests := []struct {
		name string
		info Info
		want string
	}{
		{"version only", Info{Version: "dev"}, "dev"},
		{"with commit", Info{Version: "1.0.0", Commit: "abc1234"}, "1.0.0-abc1234"},
		{"dirty", Info{Version: "1.0.0", Commit: "abc1234", Dirty: true}, "1.0.0-abc1234-dirty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.Short(); got != tt.want {
				t.Errorf("Short() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.0.0", BuildTime: "2024-01-15T10:30:00Z", GoVersion: "go1.26.0"}
	want := "1.0.0 (built 2024-01-15T10:30:00Z) go1.26.0"
	if got := info.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestGet_LinkerValuesWin(t *testing.T) {
	orig := [3]string{Version, Commit, BuildTime}
	defer func() { Version, Commit, BuildTime = orig[0], orig[1], orig[2] }()
	Version, Commit, BuildTime = "2.0.0", "deadbee", "2025-06-01T00:00:00Z"

	info := Get()
	if info.Version != "2.0.0" || info.Commit != "deadbee" || info.BuildTime != "2025-06-01T00:00:00Z" {
		t.Errorf("Get() = %+v", info)
	}
}

func TestShortCommit(t *testing.T) {
	if got := shortCommit("0123456789abcdef"); got != "0123456" {
		t.Errorf("shortCommit = %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Errorf("shortCommit = %q", got)
	}
}
