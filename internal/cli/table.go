package cli

import (
	"bufio"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const tablePadding = 2

// writeTable aligns columns by display width, so wide runes in room names
// and ANSI-colored cells line up.
func writeTable(out io.Writer, headers []string, rows [][]string) error {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	if colCount == 0 {
		return nil
	}

	widths := make([]int, colCount)
	measure := func(row []string) {
		for idx, cell := range row {
			widths[idx] = max(widths[idx], runewidth.StringWidth(stripANSI(cell)))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	writer := bufio.NewWriter(out)
	for _, row := range append([][]string{headers}, rows...) {
		if len(row) == 0 {
			continue
		}
		var line strings.Builder
		for idx := 0; idx < colCount; idx++ {
			cell := ""
			if idx < len(row) {
				cell = row[idx]
			}
			line.WriteString(cell)
			if idx < colCount-1 {
				pad := widths[idx] - runewidth.StringWidth(stripANSI(cell))
				line.WriteString(strings.Repeat(" ", max(pad, 0)+tablePadding))
			}
		}
		line.WriteString("\n")
		if _, err := writer.WriteString(line.String()); err != nil {
			return err
		}
	}
	return writer.Flush()
}

func formatYesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func stripANSI(value string) string {
	if !strings.Contains(value, "\x1b[") {
		return value
	}
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != 0x1b || i+1 >= len(value) || value[i+1] != '[' {
			b.WriteByte(value[i])
			continue
		}
		for i += 2; i < len(value); i++ {
			if ch := value[i]; ch >= 0x40 && ch <= 0x7e {
				break
			}
		}
	}
	return b.String()
}
