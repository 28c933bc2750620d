package layout

import "math"

// BlockKind classifies a reconstructed block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindTable
)

// Block is a paragraph, heading or table in reading order.
type Block struct {
	Kind BlockKind
	// Level is set for headings, 1 being the largest.
	Level int
	Runs  []Run
	// Rows is set for tables.
	Rows [][]string
}

// Blocks groups a page's lines into blocks. bodySize is the document's
// dominant font size and decides which lines are headings.
func (p Page) Blocks(bodySize float64) []Block {
	var blocks []Block
	var lastY, lastSize float64
	open := false

	for i := 0; i < len(p.Lines); i++ {
		l := p.Lines[i]

		if cols := len(l.Cells); cols >= 2 {
			j := i + 1
			for j < len(p.Lines) && len(p.Lines[j].Cells) == cols {
				j++
			}
			if j-i >= 2 {
				blocks = append(blocks, Block{Kind: KindTable, Rows: tableRows(p.Lines[i:j])})
				i = j - 1
				open = false
				continue
			}
		}

		if level := headingLevel(l.Size, bodySize); level > 0 {
			blocks = append(blocks, Block{Kind: KindHeading, Level: level, Runs: lineRuns(l)})
			open = false
			continue
		}

		if open && math.Abs(l.Size-lastSize) < 0.5 && lastY-l.Y <= paragraphGap*math.Max(l.Size, 1) {
			last := &blocks[len(blocks)-1]
			last.Runs = append(last.Runs, Run{Text: " ", Size: l.Size})
			last.Runs = append(last.Runs, lineRuns(l)...)
		} else {
			blocks = append(blocks, Block{Kind: KindParagraph, Runs: lineRuns(l)})
		}
		open = true
		lastY, lastSize = l.Y, l.Size
	}
	return blocks
}

func headingLevel(size, bodySize float64) int {
	if bodySize <= 0 || size < headingRatio*bodySize {
		return 0
	}
	switch ratio := size / bodySize; {
	case ratio >= 2:
		return 1
	case ratio >= 1.6:
		return 2
	default:
		return 3
	}
}

func tableRows(lines []Line) [][]string {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		row := make([]string, len(l.Cells))
		for c, cell := range l.Cells {
			row[c] = cell.Text()
		}
		rows[i] = row
	}
	return rows
}

// lineRuns flattens a line's cells, separating cells with a tab.
func lineRuns(l Line) []Run {
	var runs []Run
	for i, c := range l.Cells {
		if i > 0 {
			runs = append(runs, Run{Text: "\t", Size: l.Size})
		}
		runs = append(runs, c.Runs...)
	}
	return runs
}
