// Package export builds the downloadable attendance workbook: one sheet per
// known date listing who was present and absent, a summary sheet of per-member
// attendance percentages, and a member detail sheet.
package export

import (
	"fmt"
	"sort"
	"strings"

	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/stats"

	"github.com/xuri/excelize/v2"
)

// Ledger is the attendance view the workbook is built from.
type Ledger interface {
	DatesKnown() []string
	IsPresent(dateKey, memberID string) bool
	HasSaved(dateKey string) bool
}

// TeamNamer resolves a team id to its display name.
type TeamNamer interface {
	NameOf(teamID string) (string, bool)
}

const (
	summarySheet = "Attendance"
	membersSheet = "Members"
)

// Workbook renders the xlsx file for one church's members. Members are
// listed alphabetically on every sheet.
func Workbook(members []*models.Member, ledger Ledger, teams TeamNamer) ([]byte, error) {
	sorted := make([]*models.Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name() < sorted[j].Name()
	})

	f := excelize.NewFile()
	defer f.Close()

	dates := ledger.DatesKnown()

	if err := writeSummary(f, sorted, dates, ledger); err != nil {
		return nil, err
	}
	for _, d := range dates {
		if err := writeDay(f, d, sorted, ledger); err != nil {
			return nil, err
		}
	}
	if err := writeMembers(f, sorted, teams); err != nil {
		return nil, err
	}

	// excelize seeds new files with "Sheet1"; the summary replaces it
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	if idx, err := f.GetSheetIndex(summarySheet); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, members []*models.Member, dates []string, ledger Ledger) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := setRow(f, summarySheet, 1, "Name", "Attendance %"); err != nil {
		return err
	}
	for i, m := range members {
		rate := stats.AttendanceRate(m.ID, m.Joined, dates, ledger)
		if err := setRow(f, summarySheet, i+2, m.Name(), rate); err != nil {
			return err
		}
	}
	return nil
}

func writeDay(f *excelize.File, dateKey string, members []*models.Member, ledger Ledger) error {
	if _, err := f.NewSheet(dateKey); err != nil {
		return err
	}
	if err := setRow(f, dateKey, 1, "Present", "Absent"); err != nil {
		return err
	}

	var present, absent []string
	for _, m := range members {
		if ledger.IsPresent(dateKey, m.ID) {
			present = append(present, m.Name())
		} else {
			absent = append(absent, m.Name())
		}
	}

	// Rows run to the longer of the two columns
	n := len(present)
	if len(absent) > n {
		n = len(absent)
	}
	for i := 0; i < n; i++ {
		var p, a string
		if i < len(present) {
			p = present[i]
		}
		if i < len(absent) {
			a = absent[i]
		}
		if err := setRow(f, dateKey, i+2, p, a); err != nil {
			return err
		}
	}
	return nil
}

func writeMembers(f *excelize.File, members []*models.Member, teams TeamNamer) error {
	if _, err := f.NewSheet(membersSheet); err != nil {
		return err
	}
	header := []interface{}{"Name", "Phone", "Email", "Address", "Gender", "Birthday", "Role", "Teams"}
	if err := setRow(f, membersSheet, 1, header...); err != nil {
		return err
	}
	for i, m := range members {
		names := make([]string, 0, len(m.Teams))
		for _, id := range m.TeamIDs() {
			if name, ok := teams.NameOf(id); ok {
				names = append(names, name)
			}
		}
		if len(names) == 0 && strings.TrimSpace(m.LegacyTeam) != "" {
			names = append(names, m.LegacyTeam)
		}
		row := []interface{}{
			m.Name(), m.Phone, m.Email, m.Address, m.Gender, m.Birthday, m.Role,
			strings.Join(names, ", "),
		}
		if err := setRow(f, membersSheet, i+2, row...); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell := fmt.Sprintf("A%d", row)
	return f.SetSheetRow(sheet, cell, &values)
}

// Filename returns the suggested download name for a church's workbook.
func Filename(church string) string {
	name := strings.TrimSpace(church)
	if name == "" {
		name = "attendance"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
	return name + "_attendance.xlsx"
}
