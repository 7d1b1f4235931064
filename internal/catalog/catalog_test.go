package catalog

import (
	"errors"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	items := Default()
	if len(items) != DefaultSize {
		t.Fatalf("expected %d items, got %d", DefaultSize, len(items))
	}
	if err := Validate(items); err != nil {
		t.Fatalf("Default() failed validation: %v", err)
	}
	if items[0].URL != "https://img.alllf.com/1.png" {
		t.Errorf("first item url = %q", items[0].URL)
	}
	if items[6].URL != "https://img.alllf.com/1.png?v=1" || items[6].Title != "Mountain Vista 2" {
		t.Errorf("seventh item = %+v", items[6])
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    Category
		wantErr bool
	}{
		{"all", CategoryAll, false},
		{"Nature", CategoryNature, false},
		{"  ABSTRACT ", CategoryAbstract, false},
		{"portrait", CategoryPortrait, false},
		{"food", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCategory) {
					t.Errorf("ParseCategory(%q) err = %v, want ErrUnknownCategory", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCategory(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseCategory(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		items []Item
		ok    bool
	}{
		{"empty", nil, true},
		{"ok", []Item{{URL: "a", Category: CategoryNature}}, true},
		{"empty url", []Item{{Category: CategoryNature}}, false},
		{"duplicate", []Item{{URL: "a", Category: CategoryNature}, {URL: "a", Category: CategoryPortrait}}, false},
		{"wildcard stored", []Item{{URL: "a", Category: CategoryAll}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.items)
			if (err == nil) != tt.ok {
				t.Errorf("Validate() err = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestCategoriesOrder(t *testing.T) {
	cats := Categories()
	if cats[0] != CategoryAll {
		t.Errorf("first tab should be the wildcard, got %q", cats[0])
	}
	if len(cats) != 6 {
		t.Errorf("expected 6 tabs, got %d", len(cats))
	}
	if CategoryArchitecture.Label() != "Architecture" {
		t.Errorf("Label() = %q", CategoryArchitecture.Label())
	}
}
