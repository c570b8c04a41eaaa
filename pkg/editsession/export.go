package editsession

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// ReportTitle heads the printed table.
const ReportTitle = "代碼維護 - 三欄層級表格"

// ReportColumns are the printed column headings.
var ReportColumns = []string{"大分類編碼", "大分類名稱", "中分類編碼", "編碼說明", "細分類編碼", "編碼說明"}

// ReportRow is one line of the flat major/mid/sub table. Mid and sub
// columns are empty when the parent has no children.
type ReportRow struct {
	MajorCatNo   string
	MajorCatName string
	MidCatCode   string
	MidCodeDesc  string
	SubcatCode   string
	SubCodeDesc  string
}

func (r ReportRow) record() []string {
	return []string{r.MajorCatNo, r.MajorCatName, r.MidCatCode, r.MidCodeDesc, r.SubcatCode, r.SubCodeDesc}
}

// Report is the printable view of a session.
type Report struct {
	PrintedAt time.Time
	Operator  string
	// Filters describes the current selection, one line per level.
	Filters []string
	Rows    []ReportRow
}

// Header returns the lines printed above the table.
func (r *Report) Header() []string {
	lines := []string{
		ReportTitle,
		"列印日期：" + r.PrintedAt.Format("2006/01/02 15:04"),
		"操作者：" + r.Operator,
	}
	return append(lines, r.Filters...)
}

// WriteCSV writes the header lines, the column headings and the rows.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	for _, line := range r.Header() {
		if err := cw.Write([]string{line}); err != nil {
			return err
		}
	}
	if err := cw.Write(ReportColumns); err != nil {
		return err
	}
	for _, row := range r.Rows {
		if err := cw.Write(row.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export flattens the working copy into a report. Rows marked for deletion
// are left out; unsaved new rows are included.
func (s *Session) Export(now time.Time) *Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := &Report{PrintedAt: now, Operator: s.operator, Rows: []ReportRow{}}
	if i := s.store.majorIndex(s.major); i >= 0 && !s.major.isZero() {
		m := s.store.majors[i]
		rep.Filters = append(rep.Filters, fmt.Sprintf("目前篩選：大分類 %s - %s", m.MajorCatNo, m.MajorCatName))
	}
	if i := s.store.midIndex(s.mid); i >= 0 && !s.mid.isZero() {
		m := s.store.mids[i]
		rep.Filters = append(rep.Filters, fmt.Sprintf("目前篩選：中分類 %s - %s", m.MidCatCode, m.CodeDesc))
	}

	for _, major := range s.store.majors {
		if major.Marker == MarkerPendingDelete {
			continue
		}
		base := ReportRow{MajorCatNo: major.MajorCatNo, MajorCatName: major.MajorCatName}
		var mids []MidRow
		for _, mid := range s.store.mids {
			if mid.MajorCatNo == major.MajorCatNo && mid.Marker != MarkerPendingDelete {
				mids = append(mids, mid)
			}
		}
		if len(mids) == 0 {
			rep.Rows = append(rep.Rows, base)
			continue
		}
		for _, mid := range mids {
			row := base
			row.MidCatCode, row.MidCodeDesc = mid.MidCatCode, mid.CodeDesc
			emitted := false
			for _, sub := range s.store.subs {
				if sub.Marker == MarkerPendingDelete || sub.MajorCatNo != major.MajorCatNo || sub.MidCatCode != mid.MidCatCode {
					continue
				}
				r := row
				r.SubcatCode, r.SubCodeDesc = sub.SubcatCode, sub.CodeDesc
				rep.Rows = append(rep.Rows, r)
				emitted = true
			}
			if !emitted {
				rep.Rows = append(rep.Rows, row)
			}
		}
	}
	return rep
}
