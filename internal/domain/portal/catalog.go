package portal

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ibportal/backend/internal/domain/identity"
	"github.com/ibportal/backend/internal/domain/shared"
)

//go:embed pages.yaml
var defaultPages []byte

// ErrPageNotFound is returned for a page id unknown to the caller's portal
var ErrPageNotFound = shared.NewDomainError("PAGE_NOT_FOUND", "Page not found")

// Catalog holds the page definitions of both portals, in declaration order
type Catalog struct {
	pages map[identity.Role][]*Page
	index map[identity.Role]map[string]*Page
}

type catalogFile struct {
	Pages []*Page `yaml:"pages"`
}

// LoadCatalog parses and validates a YAML page catalog
func LoadCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse page catalog: %w", err)
	}
	if len(file.Pages) == 0 {
		return nil, fmt.Errorf("page catalog is empty")
	}

	c := &Catalog{
		pages: make(map[identity.Role][]*Page),
		index: make(map[identity.Role]map[string]*Page),
	}
	for _, p := range file.Pages {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if c.index[p.Portal] == nil {
			c.index[p.Portal] = make(map[string]*Page)
		}
		if _, dup := c.index[p.Portal][p.ID]; dup {
			return nil, fmt.Errorf("duplicate page %q in %s portal", p.ID, p.Portal)
		}
		c.index[p.Portal][p.ID] = p
		c.pages[p.Portal] = append(c.pages[p.Portal], p)
	}
	return c, nil
}

// DefaultCatalog returns the built-in page catalog
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(defaultPages)
}

// LoadCatalogFile reads a catalog from path, or the built-in one when path is empty
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page catalog: %w", err)
	}
	return LoadCatalog(data)
}

// Get returns the page id of the role's portal
func (c *Catalog) Get(role identity.Role, id string) (*Page, error) {
	p, ok := c.index[role][id]
	if !ok {
		return nil, ErrPageNotFound
	}
	return p, nil
}

// Find looks id up in either portal, preferring the IB portal
func (c *Catalog) Find(id string) (*Page, error) {
	for _, role := range identity.Roles {
		if p, ok := c.index[role][id]; ok {
			return p, nil
		}
	}
	return nil, ErrPageNotFound
}

// Pages returns the role's pages in declaration order
func (c *Catalog) Pages(role identity.Role) []*Page {
	return c.pages[role]
}

// NavItem is one sidebar link
type NavItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	Path  string `json:"path"`
}

// NavSection groups sidebar links under a heading
type NavSection struct {
	Title string    `json:"title"`
	Items []NavItem `json:"items"`
}

// Nav builds the role's sidebar. Sections appear in the order their first
// page is declared; pages without a section go under "General".
func (c *Catalog) Nav(role identity.Role) []NavSection {
	var sections []NavSection
	pos := make(map[string]int)
	for _, p := range c.pages[role] {
		title := p.Section
		if title == "" {
			title = "General"
		}
		i, ok := pos[title]
		if !ok {
			i = len(sections)
			pos[title] = i
			sections = append(sections, NavSection{Title: title})
		}
		sections[i].Items = append(sections[i].Items, NavItem{
			ID:    p.ID,
			Title: p.Title,
			Icon:  p.Icon,
			Path:  fmt.Sprintf("/%s/pages/%s", role, p.ID),
		})
	}
	return sections
}
