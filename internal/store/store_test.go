package store

import (
	"errors"
	"testing"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"archive", "archive", false},
		{"work/archive_1.dat", "work/archive_1.dat", false},
		{"a//b/./c", "a/b/c", false},
		{"", "", true},
		{"/etc/passwd", "", true},
		{"..", "", true},
		{"../up", "", true},
		{"a/../../up", "", true},
		{".", "", true},
		{`a\b`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanName(tt.name)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Fatalf("CleanName(%q) error = %v, want ErrInvalidName", tt.name, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanName(%q) error = %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("CleanName(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{"s3://bucket", Location{"s3", "bucket", ""}, false},
		{"s3://bucket/", Location{"s3", "bucket", ""}, false},
		{"gs://bucket/game/text", Location{"gs", "bucket", "game/text/"}, false},
		{"gs://bucket/game/text/", Location{"gs", "bucket", "game/text/"}, false},
		{"bucket/prefix", Location{}, true},
		{"http://bucket", Location{}, true},
		{"gs:///prefix", Location{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLocation(%q) expected error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLocation(%q) error = %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseLocation(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}
