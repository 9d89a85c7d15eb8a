package wiki

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Well-known namespaces seeded at install time.
const (
	DefaultNamespaceID = 0
	UserNamespaceID    = 2
	ProjectNamespaceID = 4
	FileNamespaceID    = 6
)

// NamespaceSeparator splits the namespace prefix from the title in a full title.
const NamespaceSeparator = ":"

// MaxTitleLength is the maximum length of a title in bytes.
const MaxTitleLength = 255

const disallowedTitleChars = "#<>[]|{}"

// Namespace is a partition of the title space.
type Namespace struct {
	ID   int    `db:"id"`
	Name string `db:"name"`
}

// FullTitle is a parsed, namespace-qualified title.
type FullTitle struct {
	NamespaceID int
	Title       string
}

// LowercaseTitle returns the case-insensitive matching key of the title.
func (ft FullTitle) LowercaseTitle() string {
	return LowercaseTitle(ft.Title)
}

// Namespaces is the immutable set of namespaces known to the wiki. It is
// built once at startup from the Namespace table and shared read-only.
type Namespaces struct {
	byID     map[int]Namespace
	byFolded map[string]Namespace
}

// NewNamespaces builds a registry from list. Duplicate ids or names
// (compared case-insensitively) are rejected.
func NewNamespaces(list []Namespace) (*Namespaces, error) {
	n := &Namespaces{
		byID:     make(map[int]Namespace, len(list)),
		byFolded: make(map[string]Namespace, len(list)),
	}

	for _, ns := range list {
		folded := foldNamespaceName(ns.Name)
		if folded == "" {
			return nil, fmt.Errorf("namespace %d: empty name", ns.ID)
		}
		if strings.Contains(ns.Name, NamespaceSeparator) {
			return nil, fmt.Errorf("namespace %d: name %q contains %q", ns.ID, ns.Name, NamespaceSeparator)
		}
		if _, ok := n.byID[ns.ID]; ok {
			return nil, fmt.Errorf("namespace %d: duplicate id", ns.ID)
		}
		if other, ok := n.byFolded[folded]; ok {
			return nil, fmt.Errorf("namespace %d: name %q already used by namespace %d", ns.ID, ns.Name, other.ID)
		}
		n.byID[ns.ID] = ns
		if ns.ID != DefaultNamespaceID {
			n.byFolded[folded] = ns
		}
	}

	if _, ok := n.byID[DefaultNamespaceID]; !ok {
		return nil, fmt.Errorf("default namespace %d is missing", DefaultNamespaceID)
	}

	return n, nil
}

// Lookup returns the namespace with the given id.
func (n *Namespaces) Lookup(id int) (Namespace, bool) {
	ns, ok := n.byID[id]
	return ns, ok
}

// Parse splits a full title string into its namespace and title. A string
// without a separator belongs to the default namespace, which has no prefix
// of its own. The namespace prefix is matched case-insensitively; the title
// keeps its case.
func (n *Namespaces) Parse(fullTitle string) (FullTitle, error) {
	nsID := DefaultNamespaceID
	title := fullTitle

	if prefix, rest, found := strings.Cut(fullTitle, NamespaceSeparator); found {
		ns, ok := n.byFolded[foldNamespaceName(prefix)]
		if !ok {
			return FullTitle{}, fmt.Errorf("%w: %q", ErrInvalidNamespace, prefix)
		}
		nsID = ns.ID
		title = rest
	}

	if err := ValidateTitle(title); err != nil {
		return FullTitle{}, err
	}

	return FullTitle{NamespaceID: nsID, Title: title}, nil
}

// Validate checks an already split full title. The title must come back
// unchanged from Parse(Join(ft)), so a default namespace title may not
// contain the separator.
func (n *Namespaces) Validate(ft FullTitle) error {
	if _, ok := n.Lookup(ft.NamespaceID); !ok {
		return fmt.Errorf("%w: id %d", ErrInvalidNamespace, ft.NamespaceID)
	}
	if err := ValidateTitle(ft.Title); err != nil {
		return err
	}
	if ft.NamespaceID == DefaultNamespaceID {
		if prefix, _, found := strings.Cut(ft.Title, NamespaceSeparator); found {
			return fmt.Errorf("%w: %q reads as namespace prefix %q", ErrInvalidTitle, ft.Title, prefix)
		}
	}
	return nil
}

// Join is the inverse of Parse. Titles in the default namespace carry no prefix.
func (n *Namespaces) Join(ft FullTitle) string {
	if ft.NamespaceID == DefaultNamespaceID {
		return ft.Title
	}
	ns, ok := n.Lookup(ft.NamespaceID)
	if !ok {
		return strconv.Itoa(ft.NamespaceID) + NamespaceSeparator + ft.Title
	}
	return ns.Name + NamespaceSeparator + ft.Title
}

// ValidateTitle reports ErrInvalidTitle for blank, oversized, or malformed titles.
func ValidateTitle(title string) error {
	switch {
	case strings.TrimSpace(title) == "":
		return fmt.Errorf("%w: title is empty", ErrInvalidTitle)
	case len(title) > MaxTitleLength:
		return fmt.Errorf("%w: title is longer than %d bytes", ErrInvalidTitle, MaxTitleLength)
	case !utf8.ValidString(title):
		return fmt.Errorf("%w: title is not valid UTF-8", ErrInvalidTitle)
	case strings.TrimSpace(title) != title:
		return fmt.Errorf("%w: title has surrounding whitespace", ErrInvalidTitle)
	}

	for _, r := range title {
		if unicode.IsControl(r) || strings.ContainsRune(disallowedTitleChars, r) {
			return fmt.Errorf("%w: title contains %q", ErrInvalidTitle, r)
		}
	}

	return nil
}

// LowercaseTitle is the locale-agnostic lowercase projection used for
// case-insensitive matching. It is never used for display or identity.
func LowercaseTitle(title string) string {
	return cases.Lower(language.Und).String(title)
}

func foldNamespaceName(name string) string {
	return cases.Fold().String(name)
}
