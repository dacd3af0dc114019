package gcp

import "testing"

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name, cdn, emulator, key, want string
	}{
		{"cdn", "cdn.contentpilot.app", "", "/assets/u/a.png", "https://cdn.contentpilot.app/assets/u/a.png"},
		{"emulator", "", "http://fake-gcs:4443", "assets/u/a.png", "http://fake-gcs:4443/storage/v1/b/media/o/assets%2Fu%2Fa.png?alt=media"},
		{"default", "", "", "assets/u/a.png", "https://storage.googleapis.com/media/assets/u/a.png"},
	}
	for _, tc := range cases {
		if got := publicURL("media", tc.cdn, tc.emulator, tc.key); got != tc.want {
			t.Fatalf("%s: want=%q got=%q", tc.name, tc.want, got)
		}
	}
}

func TestClientOptions(t *testing.T) {
	if opts := ClientOptions(""); opts != nil {
		t.Fatalf("empty creds: want nil got %d options", len(opts))
	}
	if opts := ClientOptions(`{"type":"service_account"}`); len(opts) != 1 {
		t.Fatalf("json creds: want=1 got=%d", len(opts))
	}
	if opts := ClientOptions("/etc/keys/sa.json"); len(opts) != 1 {
		t.Fatalf("file creds: want=1 got=%d", len(opts))
	}
}
