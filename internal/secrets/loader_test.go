package secrets

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestLoadFs(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "/run/token", []byte("  from-file\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}
	if err := afero.WriteFile(fsys, "/run/empty", []byte("\n"), 0o600); err != nil {
		t.Fatalf("write empty: %v", err)
	}

	tests := []struct {
		name    string
		src     Source
		want    string
		wantErr string
		notConf bool
	}{
		{name: "inline", src: Source{Value: " inline "}, want: "inline"},
		{name: "file wins", src: Source{Value: "inline", File: "/run/token"}, want: "from-file"},
		{name: "empty file", src: Source{Name: "reload token", File: "/run/empty"}, wantErr: `reload token file "/run/empty" is empty`},
		{name: "missing file", src: Source{File: "/run/nope"}, wantErr: "reading secret from file"},
		{name: "unset", src: Source{Name: "reload token"}, wantErr: "reload token is not configured", notConf: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadFs(fsys, tt.src)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Fatalf("expected %q, got %q", tt.want, got)
				}
				return
			}

			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if errors.Is(err, ErrNotConfigured) != tt.notConf {
				t.Fatalf("ErrNotConfigured match = %v, want %v", !tt.notConf, tt.notConf)
			}
		})
	}
}
