package wiki

import (
	"errors"
	"testing"
)

func testNamespaces(t *testing.T) *Namespaces {
	t.Helper()
	ns, err := NewNamespaces([]Namespace{
		{ID: DefaultNamespaceID, Name: "(default)"},
		{ID: UserNamespaceID, Name: "User"},
		{ID: ProjectNamespaceID, Name: "Liberty Wiki"},
		{ID: FileNamespaceID, Name: "파일"},
	})
	if err != nil {
		t.Fatalf("NewNamespaces failed: %v", err)
	}
	return ns
}

func TestParseFullTitle(t *testing.T) {
	ns := testNamespaces(t)

	tests := []struct {
		name    string
		input   string
		want    FullTitle
		wantErr error
	}{
		{"default namespace", "Foo", FullTitle{DefaultNamespaceID, "Foo"}, nil},
		{"title case preserved", "fOO bar", FullTitle{DefaultNamespaceID, "fOO bar"}, nil},
		{"user namespace", "User:Alice", FullTitle{UserNamespaceID, "Alice"}, nil},
		{"prefix case normalized", "uSeR:Alice", FullTitle{UserNamespaceID, "Alice"}, nil},
		{"namespace with space", "liberty wiki:About", FullTitle{ProjectNamespaceID, "About"}, nil},
		{"non-latin namespace", "파일:Logo.png", FullTitle{FileNamespaceID, "Logo.png"}, nil},
		{"default has no prefix", "(default):Foo", FullTitle{}, ErrInvalidNamespace},
		{"only first separator splits", "User:A:B", FullTitle{UserNamespaceID, "A:B"}, nil},
		{"unknown namespace", "Nope:Foo", FullTitle{}, ErrInvalidNamespace},
		{"empty prefix", ":Foo", FullTitle{}, ErrInvalidNamespace},
		{"empty title", "", FullTitle{}, ErrInvalidTitle},
		{"empty title after prefix", "User:", FullTitle{}, ErrInvalidTitle},
		{"blank title", "   ", FullTitle{}, ErrInvalidTitle},
		{"surrounding whitespace", " Foo", FullTitle{}, ErrInvalidTitle},
		{"disallowed bracket", "Foo[1]", FullTitle{}, ErrInvalidTitle},
		{"disallowed hash", "Foo#Section", FullTitle{}, ErrInvalidTitle},
		{"control character", "Foo\tBar", FullTitle{}, ErrInvalidTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ns.Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRejectsLongTitle(t *testing.T) {
	ns := testNamespaces(t)
	long := make([]byte, MaxTitleLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, err := ns.Parse(string(long)); !errors.Is(err, ErrInvalidTitle) {
		t.Errorf("expected ErrInvalidTitle, got %v", err)
	}
}

func TestJoinRoundTrip(t *testing.T) {
	ns := testNamespaces(t)

	for _, input := range []string{"Foo", "User:Alice", "Liberty Wiki:About", "파일:Logo.png", "뷁뷀⏰"} {
		ft, err := ns.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", input, err)
		}
		if got := ns.Join(ft); got != input {
			t.Errorf("Join(Parse(%q)) = %q", input, got)
		}
	}
}

func TestJoinNormalizesPrefix(t *testing.T) {
	ns := testNamespaces(t)
	ft, err := ns.Parse("user:Alice")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if got := ns.Join(ft); got != "User:Alice" {
		t.Errorf("expected canonical prefix, got %q", got)
	}
}

func TestLowercaseTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Foo", "foo"},
		{"BAR baz", "bar baz"},
		{"뷁뷀", "뷁뷀"},
		{"ÀÉÎ", "àéî"},
	}
	for _, tt := range tests {
		if got := LowercaseTitle(tt.in); got != tt.want {
			t.Errorf("LowercaseTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewNamespacesRejectsDuplicates(t *testing.T) {
	_, err := NewNamespaces([]Namespace{
		{ID: DefaultNamespaceID, Name: "(default)"},
		{ID: 2, Name: "User"},
		{ID: 3, Name: "user"},
	})
	if err == nil {
		t.Error("expected error for names differing only in case")
	}

	_, err = NewNamespaces([]Namespace{{ID: 2, Name: "User"}})
	if err == nil {
		t.Error("expected error when default namespace is missing")
	}
}

func TestValidate(t *testing.T) {
	ns := testNamespaces(t)
	if err := ns.Validate(FullTitle{NamespaceID: 99, Title: "Foo"}); !errors.Is(err, ErrInvalidNamespace) {
		t.Errorf("expected ErrInvalidNamespace, got %v", err)
	}
	if err := ns.Validate(FullTitle{NamespaceID: UserNamespaceID, Title: "a|b"}); !errors.Is(err, ErrInvalidTitle) {
		t.Errorf("expected ErrInvalidTitle, got %v", err)
	}
	if err := ns.Validate(FullTitle{NamespaceID: UserNamespaceID, Title: "Alice"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ns.Validate(FullTitle{NamespaceID: UserNamespaceID, Title: "A:B"}); err != nil {
		t.Errorf("separator after a prefix should be allowed: %v", err)
	}
}

func TestValidateRequiresRoundTrip(t *testing.T) {
	ns := testNamespaces(t)

	for _, ft := range []FullTitle{
		{NamespaceID: DefaultNamespaceID, Title: "User:Ghost"},
		{NamespaceID: DefaultNamespaceID, Title: "Foo:Bar"},
		{NamespaceID: DefaultNamespaceID, Title: "(default):Foo"},
	} {
		if err := ns.Validate(ft); !errors.Is(err, ErrInvalidTitle) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidTitle", ft, err)
		}
	}

	for _, ft := range []FullTitle{
		{NamespaceID: DefaultNamespaceID, Title: "Foo"},
		{NamespaceID: UserNamespaceID, Title: "Ghost"},
		{NamespaceID: UserNamespaceID, Title: "A:B"},
		{NamespaceID: ProjectNamespaceID, Title: "About"},
	} {
		if err := ns.Validate(ft); err != nil {
			t.Fatalf("Validate(%+v) failed: %v", ft, err)
		}
		got, err := ns.Parse(ns.Join(ft))
		if err != nil || got != ft {
			t.Errorf("Parse(Join(%+v)) = %+v, %v", ft, got, err)
		}
	}
}

func TestNewNamespacesRejectsSeparator(t *testing.T) {
	_, err := NewNamespaces([]Namespace{
		{ID: DefaultNamespaceID, Name: "(default)"},
		{ID: ProjectNamespaceID, Name: "Wiki:Pedia"},
	})
	if err == nil {
		t.Error("expected error for a namespace name containing the separator")
	}
}
