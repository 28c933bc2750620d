package docx

import (
	"fmt"

	"github.com/beevik/etree"
)

// Style IDs understood by Word without further configuration.
const (
	StyleNormal    = "Normal"
	StyleTableGrid = "TableGrid"
)

// HeadingStyle returns the built-in style ID for a heading level (1-9).
func HeadingStyle(level int) string {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}
	return fmt.Sprintf("Heading%d", level)
}

// styleDef describes a style to be added to styles.xml when it is missing.
type styleDef struct {
	kind  string
	id    string
	name  string
	build func(s *etree.Element)
}

func headingDef(level int) styleDef {
	id := HeadingStyle(level)
	// Heading sizes in half points: 16pt, 13pt, 12pt, then 11pt.
	size := "22"
	switch level {
	case 1:
		size = "32"
	case 2:
		size = "26"
	case 3:
		size = "24"
	}
	return styleDef{
		kind: "paragraph",
		id:   id,
		name: fmt.Sprintf("heading %d", level),
		build: func(s *etree.Element) {
			s.CreateElement("w:basedOn").CreateAttr("w:val", StyleNormal)
			s.CreateElement("w:next").CreateAttr("w:val", StyleNormal)
			s.CreateElement("w:qFormat")
			ppr := s.CreateElement("w:pPr")
			ppr.CreateElement("w:keepNext")
			spacing := ppr.CreateElement("w:spacing")
			spacing.CreateAttr("w:before", "240")
			spacing.CreateAttr("w:after", "80")
			ppr.CreateElement("w:outlineLvl").CreateAttr("w:val", fmt.Sprint(level-1))
			rpr := s.CreateElement("w:rPr")
			rpr.CreateElement("w:b")
			rpr.CreateElement("w:color").CreateAttr("w:val", "2F5496")
			rpr.CreateElement("w:sz").CreateAttr("w:val", size)
			rpr.CreateElement("w:szCs").CreateAttr("w:val", size)
		},
	}
}

var tableGridDef = styleDef{
	kind: "table",
	id:   StyleTableGrid,
	name: "Table Grid",
	build: func(s *etree.Element) {
		s.CreateElement("w:basedOn").CreateAttr("w:val", "TableNormal")
		s.CreateElement("w:uiPriority").CreateAttr("w:val", "39")
		ppr := s.CreateElement("w:pPr")
		spacing := ppr.CreateElement("w:spacing")
		spacing.CreateAttr("w:after", "0")
		spacing.CreateAttr("w:line", "240")
		spacing.CreateAttr("w:lineRule", "auto")
		tblPr := s.CreateElement("w:tblPr")
		borders := tblPr.CreateElement("w:tblBorders")
		for _, edge := range []string{"top", "left", "bottom", "right", "insideH", "insideV"} {
			b := borders.CreateElement("w:" + edge)
			b.CreateAttr("w:val", "single")
			b.CreateAttr("w:sz", "4")
			b.CreateAttr("w:space", "0")
			b.CreateAttr("w:color", "auto")
		}
	},
}

// HasStyle reports whether styles.xml defines styleID.
func (d *Document) HasStyle(styleID string) bool {
	return d.findStyle(styleID) != nil
}

func (d *Document) findStyle(styleID string) *etree.Element {
	root := d.styles.Root()
	if root == nil {
		return nil
	}
	for _, s := range root.SelectElements("w:style") {
		if s.SelectAttrValue("w:styleId", "") == styleID {
			return s
		}
	}
	return nil
}

func (d *Document) ensureStyle(def styleDef) {
	if d.HasStyle(def.id) {
		return
	}
	root := d.styles.Root()
	s := root.CreateElement("w:style")
	s.CreateAttr("w:type", def.kind)
	s.CreateAttr("w:styleId", def.id)
	s.CreateElement("w:name").CreateAttr("w:val", def.name)
	def.build(s)
}
