package export

import (
	"fmt"
	"html/template"
	"io"

	"github.com/ibportal/backend/internal/domain/grid"
)

var tableTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"cell": grid.CellString,
	"isNumber": func(v any) bool {
		_, ok := v.(float64)
		return ok
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>{{.Title}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; font-size: 10px; margin: 0; }
  h1 { font-size: 16px; margin: 0 0 8px; }
  table { width: 100%; border-collapse: collapse; }
  thead { display: table-header-group; }
  th { background: #374151; color: #fff; text-align: left; padding: 4px 6px; }
  td { padding: 3px 6px; border-bottom: 1px solid #e5e7eb; }
  td.num { text-align: right; font-variant-numeric: tabular-nums; }
  tr:nth-child(even) td { background: #f3f4f6; }
  tr { page-break-inside: avoid; }
</style>
</head>
<body>
{{- if .Title}}<h1>{{.Title}}</h1>{{end}}
<table>
<thead><tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td{{if isNumber .}} class="num"{{end}}>{{cell .}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

// WriteHTML renders the table as a standalone printable HTML document
func WriteHTML(w io.Writer, table *grid.Table) error {
	if err := tableTemplate.Execute(w, table); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}
