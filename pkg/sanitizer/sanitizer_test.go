package sanitizer

import (
	"reflect"
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "trim spaces",
			input: "  Sunrise Court  ",
			want:  "Sunrise Court",
		},
		{
			name:  "multiple spaces between words",
			input: "Sunrise    Court",
			want:  "Sunrise Court",
		},
		{
			name:  "tabs and newlines",
			input: "12\t\nHarbor Rd",
			want:  "12 Harbor Rd",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve special characters",
			input: " Café Residence™ ",
			want:  "Café Residence™",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeRoomCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "spaces and hyphens become underscores",
			input: " Room 2-B ",
			want:  "room_2_b",
		},
		{
			name:  "already normalized",
			input: "a101",
			want:  "a101",
		},
		{
			name:  "collapse runs of separators",
			input: "A--101  east",
			want:  "a_101_east",
		},
		{
			name:  "leading and trailing separators trimmed",
			input: "-A101-",
			want:  "a101",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeRoomCode(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeRoomCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeRoomCode_Idempotent(t *testing.T) {
	input := " Room 2-B "
	once := SanitizeRoomCode(input)
	twice := SanitizeRoomCode(once)
	if once != twice {
		t.Errorf("SanitizeRoomCode not idempotent: %q != %q", once, twice)
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare domain gets https",
			input: "cdn.example.com/rooms/a101.jpg",
			want:  "https://cdn.example.com/rooms/a101.jpg",
		},
		{
			name:  "http upgraded",
			input: "http://cdn.example.com/img.png",
			want:  "https://cdn.example.com/img.png",
		},
		{
			name:  "www stripped and lowercased",
			input: "https://WWW.Example.COM/Img/",
			want:  "https://example.com/img",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "garbage rejected",
			input: "https://",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeURL(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURLs(t *testing.T) {
	input := []string{
		"cdn.example.com/a.jpg",
		"https://cdn.example.com/a.jpg",
		"",
		"https://cdn.example.com/b.jpg",
	}
	want := []string{
		"https://cdn.example.com/a.jpg",
		"https://cdn.example.com/b.jpg",
	}

	got := NormalizeImageURLs(input)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeImageURLs() = %v, want %v", got, want)
	}
}
