package urlutil

import "testing"

func TestValidate(t *testing.T) {
	valid := []string{
		"http://example.com",
		"https://example.com/path",
	}
	for _, u := range valid {
		if err := ValidateURL(u); err != nil {
			t.Fatalf("expected valid, got error: %v", err)
		}
	}

	invalid := []string{"ftp://example.com", "//example.com", "http:///"}
	for _, u := range invalid {
		if err := ValidateURL(u); err == nil {
			t.Fatalf("expected invalid for %s", u)
		}
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://books.example", "/books/123", "https://books.example/books/123"},
		{"https://books.example/", "books/123", "https://books.example/books/123"},
		{"https://books.example", "https://cdn.example/c.jpg", "https://cdn.example/c.jpg"},
	}
	for _, tt := range tests {
		if got := ResolveURL(tt.base, tt.href); got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}

func TestProfilePageURL(t *testing.T) {
	got := ProfilePageURL("https://books.example/", "to-read", "jane_doe")
	if want := "https://books.example/to-read/jane_doe"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("https://thegamesdb.net/search.php?name=", "Baldur's Gate 3: Deluxe & More")
	want := "https://thegamesdb.net/search.php?name=Baldur's%20Gate%203%3A%20Deluxe%20%26%20More"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
