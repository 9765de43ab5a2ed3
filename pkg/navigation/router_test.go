package navigation

import "testing"

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		delimiter string
		want      string
	}{
		{"default delimiter", "myapp://chat/42", "", "chat/42"},
		{"custom prefix", "myapp://chat/42", "myapp://", "chat/42"},
		{"host prefix", "https://example.com/app/chat", "example.com/app/", "chat"},
		{"no delimiter", "chat/42", "", "chat/42"},
		{"empty path", "myapp://", "", "/"},
		{"empty url", "", "", "/"},
		{"first occurrence wins", "a://b://c", "", "b://c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := ResolveURL(tt.url, tt.delimiter)
			if loc.Path != tt.want {
				t.Errorf("Path = %q, want %q", loc.Path, tt.want)
			}
			if loc.Params == nil || len(loc.Params) != 0 {
				t.Errorf("Params = %v, want empty non-nil", loc.Params)
			}
		})
	}
}

func TestActionForURL(t *testing.T) {
	router := &stackRouter{}

	if a, ok := actionForURL[stack, stackAction](router, "myapp://screen/chat", DefaultURIPrefix); !ok || a != push("chat") {
		t.Errorf("actionForURL = (%v, %v), want push chat", a, ok)
	}
	if _, ok := actionForURL[stack, stackAction](router, "myapp://elsewhere", DefaultURIPrefix); ok {
		t.Error("unhandled paths should resolve to no action")
	}
}
