package portal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibportal/backend/internal/domain/grid"
	"github.com/ibportal/backend/internal/domain/identity"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	assert.NotEmpty(t, c.Pages(identity.RoleIB))
	assert.NotEmpty(t, c.Pages(identity.RoleAdmin))

	p, err := c.Get(identity.RoleIB, "clients")
	require.NoError(t, err)
	assert.Equal(t, "My Clients", p.Title)
	assert.Equal(t, "/ib/clients", p.Source.Path)
	assert.Equal(t, "data", p.Source.Rows)
	assert.Equal(t, 5*time.Minute, p.TTL())

	t.Run("pages are scoped to their portal", func(t *testing.T) {
		_, err := c.Get(identity.RoleAdmin, "clients")
		assert.ErrorIs(t, err, ErrPageNotFound)

		_, err = c.Get(identity.RoleIB, "ibs")
		assert.ErrorIs(t, err, ErrPageNotFound)
	})

	t.Run("find searches both portals", func(t *testing.T) {
		p, err := c.Find("ibs")
		require.NoError(t, err)
		assert.Equal(t, identity.RoleAdmin, p.Portal)

		_, err = c.Find("nope")
		assert.ErrorIs(t, err, ErrPageNotFound)
	})

	t.Run("duration and options decode", func(t *testing.T) {
		p, err := c.Get(identity.RoleIB, "withdrawals")
		require.NoError(t, err)
		require.NotNil(t, p.Filters)
		require.Len(t, p.Filters.Selects, 2)

		assert.Equal(t, Option{Value: "pending", Label: "pending"}, p.Filters.Selects[0].Options[0])
		assert.Equal(t, Option{Value: "bank", Label: "Bank Transfer"}, p.Filters.Selects[1].Options[0])
		assert.Equal(t, DefaultCacheTTL, p.TTL())

		p, err = c.Get(identity.RoleAdmin, "withdrawal-requests")
		require.NoError(t, err)
		assert.Equal(t, time.Minute, p.TTL())
		assert.Equal(t, map[string]string{"status": "all"}, p.Source.Params)
	})
}

func TestCatalog_Nav(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	nav := c.Nav(identity.RoleIB)
	require.Len(t, nav, 3)
	assert.Equal(t, "Clients", nav[0].Title)
	assert.Equal(t, "Earnings", nav[1].Title)
	assert.Equal(t, "Wallet", nav[2].Title)
	assert.Equal(t, NavItem{ID: "clients", Title: "My Clients", Icon: "users", Path: "/ib/pages/clients"}, nav[0].Items[0])

	adminNav := c.Nav(identity.RoleAdmin)
	require.NotEmpty(t, adminNav)
	assert.Equal(t, "/admin/pages/ibs", adminNav[0].Items[0].Path)
}

func TestLoadCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"invalid yaml", "pages: [", "failed to parse page catalog"},
		{"empty", "pages: []", "page catalog is empty"},
		{"unknown portal", `
pages:
  - {id: a, portal: guest, title: A, source: {path: /a}, columns: [{key: x}]}`, "unknown portal"},
		{"missing source", `
pages:
  - {id: a, portal: ib, title: A, columns: [{key: x}]}`, "source.path is required"},
		{"no columns", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}}`, "at least one column"},
		{"unknown renderer", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x, render: sparkle}]}`, "unknown renderer"},
		{"link without href", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x, render: link}]}`, "needs href"},
		{"duplicate column", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x}, {key: x}]}`, "duplicate column"},
		{"duplicate page", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x}]}
  - {id: a, portal: ib, title: B, source: {path: /b}, columns: [{key: y}]}`, "duplicate page"},
		{"bad period", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x}], aggregate: {by: d, period: week}}`, "aggregate.period"},
		{"bad kpi", `
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x}], kpis: [{label: K, kind: sum}]}`, "field is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("same id in both portals is allowed", func(t *testing.T) {
		c, err := LoadCatalog([]byte(`
pages:
  - {id: a, portal: ib, title: A, source: {path: /a}, columns: [{key: x}]}
  - {id: a, portal: admin, title: A, source: {path: /a}, columns: [{key: x}]}`))
		require.NoError(t, err)
		assert.Len(t, c.Pages(identity.RoleIB), 1)
		assert.Len(t, c.Pages(identity.RoleAdmin), 1)
	})
}

func TestLoadCatalogFile(t *testing.T) {
	c, err := LoadCatalogFile("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Pages(identity.RoleIB))

	path := filepath.Join(t.TempDir(), "pages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pages:
  - {id: only, portal: admin, title: Only, source: {path: /only}, columns: [{key: x}]}`), 0o600))
	c, err = LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Empty(t, c.Pages(identity.RoleIB))
	assert.Len(t, c.Pages(identity.RoleAdmin), 1)

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read page catalog")
}

func TestPage_GridConfig(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)
	p, err := c.Get(identity.RoleIB, "clients")
	require.NoError(t, err)

	kpis := []grid.Renderable{grid.Text("k")}
	cfg := p.GridConfig(kpis)

	assert.Equal(t, "My Clients", cfg.Title)
	assert.Equal(t, kpis, cfg.KPIs)
	assert.Equal(t, 10, cfg.PageSize)
	require.Len(t, cfg.Columns, len(p.Columns))

	index := cfg.Columns[0]
	assert.True(t, index.IsIndex())
	assert.Nil(t, index.Header)

	status := cfg.Columns[5]
	assert.Equal(t, "status", status.Key)
	assert.NotNil(t, status.Renderer)
	assert.NotNil(t, status.Header)

	name := cfg.Columns[2]
	assert.Nil(t, name.Renderer)

	require.NotNil(t, cfg.Filters)
	assert.Equal(t, []string{"account", "name", "email"}, cfg.Filters.SearchKeys)
	assert.Equal(t, "registered_at", cfg.Filters.DateKey)
	require.Len(t, cfg.Filters.Selects, 1)
	assert.Equal(t, grid.Option{Value: "dormant", Label: "dormant"}, cfg.Filters.Selects[0].Options[1])

	t.Run("drives a grid end to end", func(t *testing.T) {
		rows := grid.RowsFromMaps([]map[string]any{
			{"account": "1001", "name": "Ann", "email": "ann@x.io", "country": "gb", "status": "active", "balance": 1250.5, "registered_at": "2024-03-01"},
			{"account": "1002", "name": "Bob", "email": "bob@x.io", "country": "de", "status": "dormant", "balance": -20, "registered_at": "2024-04-15"},
		})
		g := grid.New(rows, cfg)
		require.NoError(t, g.Select("status", "active"))

		table, err := g.ExportTable()
		require.NoError(t, err)
		require.Equal(t, 1, table.Len())
		assert.Equal(t, []any{1.0, "1001", "Ann", "ann@x.io", "GB", "active", "$1,250.50", "2024-03-01"}, table.Rows[0])
	})
}

func TestPage_HasRemoteKPIs(t *testing.T) {
	c, err := DefaultCatalog()
	require.NoError(t, err)

	p, _ := c.Get(identity.RoleIB, "commissions")
	assert.True(t, p.HasRemoteKPIs())

	p, _ = c.Get(identity.RoleIB, "clients")
	assert.False(t, p.HasRemoteKPIs())
}
