package templates

import (
	"context"
	"io"
	"strconv"

	"github.com/JonMunkholm/ammo/internal/core"
	"github.com/a-h/templ"
)

// NoResultsMessage is shown when a search matches nothing.
const NoResultsMessage = core.NoResultsMessage

// Home renders the main menu with the current record count.
func Home(count int64, flash *Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<p>`)
		p.text(strconv.FormatInt(count, 10))
		p.raw(` items in inventory.</p><div class="menu">`)
		p.raw(`<a href="/load"><strong>Load from CSV</strong><br>Import many items from a spreadsheet</a>`)
		p.raw(`<a href="/inventory"><strong>Display All</strong><br>View and export the inventory</a>`)
		p.raw(`<a href="/add"><strong>Add Item</strong><br>Enter one item by hand</a>`)
		p.raw(`<a href="/search"><strong>Search by Type</strong><br>Find items by bullet type</a>`)
		p.raw(`</div>`)
		return p.err
	})
	return Layout("Ammo Inventory", "/", flash, body)
}

// RecordTable renders records under the full column header.
func RecordTable(records []core.Record) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<table><thead><tr>`)
		for _, col := range core.Columns {
			p.raw(`<th>`)
			p.text(col)
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		for _, rec := range records {
			p.raw(`<tr>`)
			for _, v := range rec.Values() {
				p.raw(`<td>`)
				p.text(v)
				p.raw(`</td>`)
			}
			p.raw(`</tr>`)
		}
		p.raw(`</tbody></table>`)
		return p.err
	})
}

// Inventory renders every record with an export action.
func Inventory(records []core.Record, flash *Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<p><a href="/inventory/export" download>Export to CSV</a> · `)
		p.text(strconv.Itoa(len(records)))
		p.raw(` items</p>`)
		p.render(ctx, RecordTable(records))
		p.raw(`<form method="post" action="/reset" class="danger">`)
		p.raw(`<label><input type="checkbox" name="confirm" value="yes"> Delete every item</label> `)
		p.raw(`<button type="submit">Reset inventory</button></form>`)
		return p.err
	})
	return Layout("Inventory", "/inventory", flash, body)
}

// LoadForm renders the CSV upload form and, after a load, its summary.
func LoadForm(policy core.CoercionPolicy, result *core.LoadResult, flash *Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<form method="post" action="/load" enctype="multipart/form-data">`)
		p.raw(`<div class="field"><label for="file">CSV file</label>`)
		p.raw(`<input type="file" id="file" name="file" accept=".csv,text/csv" required></div>`)
		p.raw(`<p><small>Bad quantity cells are handled with the `)
		p.text(string(policy))
		p.raw(` policy.</small></p><button type="submit">Load</button></form>`)
		if result != nil {
			p.raw(`<h2>Last load</h2><dl>`)
			summary := []struct{ k, v string }{
				{"File", result.FileName},
				{"Load ID", result.LoadID},
				{"Rows read", strconv.Itoa(result.Rows)},
				{"Inserted", strconv.Itoa(result.Inserted)},
				{"Quantities defaulted to 0", strconv.Itoa(result.Defaulted)},
			}
			for _, item := range summary {
				p.raw(`<dt>`)
				p.text(item.k)
				p.raw(`</dt><dd>`)
				p.text(item.v)
				p.raw(`</dd>`)
			}
			p.raw(`</dl>`)
		}
		return p.err
	})
	return Layout("Load from CSV", "/load", flash, body)
}

// AddForm renders the manual entry form. values pre-fills inputs and
// errs holds per-field messages, both keyed by field name.
func AddForm(values, errs map[string]string, flash *Flash) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<form method="post" action="/add">`)
		for _, spec := range core.FieldSpecs {
			p.raw(`<div class="field"><label for="`)
			p.text(spec.Name)
			p.raw(`">`)
			p.text(spec.Label)
			p.raw(`</label><input id="`)
			p.text(spec.Name)
			p.raw(`" name="`)
			p.text(spec.Name)
			p.raw(`"`)
			if spec.Type == core.FieldInteger {
				p.raw(` inputmode="numeric"`)
			}
			p.raw(` value="`)
			p.text(values[spec.Name])
			p.raw(`">`)
			if msg, ok := errs[spec.Name]; ok {
				p.raw(`<div class="field-error">`)
				p.text(spec.Label + " " + msg)
				p.raw(`</div>`)
			}
			p.raw(`</div>`)
		}
		p.raw(`<button type="submit">Add</button></form>`)
		return p.err
	})
	return Layout("Add Item", "/add", flash, body)
}

// Search renders the search form and, once a term was submitted, its
// results.
func Search(term string, results []core.Record, searched bool) templ.Component {
	var flash *Flash
	if searched && len(results) == 0 {
		flash = Info(NoResultsMessage)
	}
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{w: w}
		p.raw(`<form method="get" action="/search"><div class="field"><label for="type">Type</label>`)
		p.raw(`<input id="type" name="type" value="`)
		p.text(term)
		p.raw(`"></div><button type="submit">Search</button></form>`)
		if searched && len(results) > 0 {
			p.render(ctx, RecordTable(results))
		}
		return p.err
	})
	return Layout("Search by Type", "/search", flash, body)
}
