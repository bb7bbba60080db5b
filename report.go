package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Users"
const reportTable = "UserReport"

var reportBaseColumns = []string{"Logon Name", "Display Name", "First Name", "Last Name",
	"E-mail", "E-mail Aliases", "Telephone", "Mobile", "Title", "Department"}

// reportFilename builds a timestamped path so two runs never share a file.
func reportFilename(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("user-group-report-%s.xlsx", time.Now().Format("20060102-150405")))
}

// WriteReport serializes the augmented records to path: one "Users" sheet,
// bold frozen header, auto-sized columns, one boolean column per group.
// Every attribute cell is written as a string so phone numbers and logon
// names are never coerced to numbers. The workbook is only saved once all
// rows are in place; a failed save leaves no partial file behind.
func WriteReport(users []AugmentedUserRecord, groups []string, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale report %s: %w", path, err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return err
	}

	header := append(append([]string{}, reportBaseColumns...), groups...)
	widths := make([]int, len(header))
	for col, name := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(reportSheet, cell, name); err != nil {
			return err
		}
		widths[col] = len(name)
	}

	for row, user := range users {
		values := []string{user.SAMAccountName, user.DisplayName, user.GivenName, user.Surname,
			user.Mail, joinMulti(user.ProxyAddresses), user.TelephoneNumber, user.Mobile,
			user.Title, user.Department}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellStr(reportSheet, cell, value); err != nil {
				return err
			}
			if len(value) > widths[col] {
				widths[col] = len(value)
			}
		}
		for g, group := range groups {
			cell, err := excelize.CoordinatesToCellName(len(values)+g+1, row+2)
			if err != nil {
				return err
			}
			if err := f.SetCellBool(reportSheet, cell, user.Groups[group]); err != nil {
				return err
			}
		}
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCell, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(reportSheet, "A1", lastCell, boldStyle); err != nil {
		return err
	}
	if err := f.SetPanes(reportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for col := range header {
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		width := float64(widths[col]) + 2
		if width > 60 {
			width = 60
		}
		if err := f.SetColWidth(reportSheet, name, name, width); err != nil {
			return err
		}
	}

	// A worksheet table needs at least one data row; a zero-user run still
	// produces a valid header-only sheet.
	if len(users) > 0 {
		lastDataCell, err := excelize.CoordinatesToCellName(len(header), len(users)+1)
		if err != nil {
			return err
		}
		if err := f.AddTable(reportSheet, &excelize.Table{
			Range:     "A1:" + lastDataCell,
			Name:      reportTable,
			StyleName: "TableStyleMedium2",
		}); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		os.Remove(path)
		return fmt.Errorf("saving report %s: %w", path, err)
	}
	log.WithFields(log.Fields{"path": path, "rows": len(users), "groups": len(groups)}).Info("Report written.")
	return nil
}
