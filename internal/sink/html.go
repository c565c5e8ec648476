package sink

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/remitflat/internal/model"
)

const previewCSS = `table{border-collapse:collapse;font-family:sans-serif;font-size:13px}
th,td{border:1px solid #ddd;padding:6px 12px;white-space:nowrap;text-align:left}
th{background:#f2f2f2;text-transform:uppercase}
tr.odd td{background:#fafafa}
p.footer{color:#666;font-family:sans-serif;font-size:13px}`

// RenderHTML writes a standalone HTML page previewing the rows of t
func RenderHTML(w io.Writer, t model.Table, total int, opts Options) error {
	opts = opts.withDefaults()

	body := element(atom.Body)
	tbl := element(atom.Table)
	body.AppendChild(tbl)

	thead := element(atom.Thead)
	headRow := element(atom.Tr)
	for _, col := range t.Columns {
		headRow.AppendChild(textElement(atom.Th, col))
	}
	thead.AppendChild(headRow)
	tbl.AppendChild(thead)

	tbody := element(atom.Tbody)
	for r := range t.Rows {
		class := "even"
		if r%2 == 1 {
			class = "odd"
		}
		tr := element(atom.Tr, html.Attribute{Key: "class", Val: class})
		for _, col := range t.Columns {
			tr.AppendChild(textElement(atom.Td, previewText(t.Cell(r, col), opts.CellMax)))
		}
		tbody.AppendChild(tr)
	}
	tbl.AppendChild(tbody)

	if footer := previewFooter(len(t.Rows), total); footer != "" {
		p := textElement(atom.P, footer)
		p.Attr = append(p.Attr, html.Attribute{Key: "class", Val: "footer"})
		body.AppendChild(p)
	}

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, html.Attribute{Key: "charset", Val: "utf-8"}))
	head.AppendChild(textElement(atom.Title, "remitflat preview"))
	head.AppendChild(textElement(atom.Style, previewCSS))

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func textElement(a atom.Atom, text string) *html.Node {
	n := element(a)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
