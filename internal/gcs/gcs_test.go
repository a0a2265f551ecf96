package gcs

import "testing"

func TestIsURI(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"gs://bucket/statement.pdf", true},
		{"gs://bucket/nested/path.pdf", true},
		{"/local/statement.pdf", false},
		{"statement.pdf", false},
		{"https://example.com/x.pdf", false},
	}
	for _, tt := range tests {
		if got := IsURI(tt.input); got != tt.want {
			t.Errorf("IsURI(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantObject string
		wantErr    bool
	}{
		{uri: "gs://bucket/statement.pdf", wantBucket: "bucket", wantObject: "statement.pdf"},
		{uri: "gs://bucket/a/b/c.pdf", wantBucket: "bucket", wantObject: "a/b/c.pdf"},
		{uri: "gs://bucket", wantErr: true},
		{uri: "gs://bucket/", wantErr: true},
		{uri: "gs:///object.pdf", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, object, err := SplitURI(tt.uri)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitURI(%q) error = %v, wantErr %v", tt.uri, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if bucket != tt.wantBucket || object != tt.wantObject {
				t.Errorf("SplitURI(%q) = %q, %q, want %q, %q", tt.uri, bucket, object, tt.wantBucket, tt.wantObject)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"gs://bucket/statement.pdf", "statement.pdf"},
		{"gs://bucket/2024/april/statement.pdf", "statement.pdf"},
		{"gs://bucket", "bucket"},
	}
	for _, tt := range tests {
		if got := Filename(tt.uri); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}
