package s3

import "testing"

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "exports/r-1/v2-modern.pdf", want: "exports/r-1/v2-modern.pdf"},
		{name: "simple prefix", prefix: "root", key: "exports/r-1/v2-modern.pdf", want: "root/exports/r-1/v2-modern.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "exports/r-1/v2-modern.pdf", want: "root/exports/r-1/v2-modern.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/exports/r-1/v2-modern.pdf", want: "root/exports/r-1/v2-modern.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "exports/r-1/v2-modern.pdf", want: "root/sub/exports/r-1/v2-modern.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}
