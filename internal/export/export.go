// Package export writes grouping results as spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"hrtool/internal/models"
)

// GroupsFilename is the suggested download name for WriteGroupsCSV output.
const GroupsFilename = "分組結果.csv"

// utf8BOM makes Excel detect UTF-8 so Chinese names survive.
const utf8BOM = "\xef\xbb\xbf"

var groupsHeader = []string{"組別", "姓名"}

// WriteGroupsCSV writes one "group,name" row per member after a BOM and header row.
func WriteGroupsCSV(w io.Writer, groups []*models.Group) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(groupsHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, g := range groups {
		for _, m := range g.Members {
			if err := cw.Write([]string{g.Name, m.Name}); err != nil {
				return fmt.Errorf("write row for %s: %w", g.Name, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
