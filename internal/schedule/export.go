package schedule

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tapline/visitplanner/internal/model"
)

var exportHeader = []string{
	"Date", "Stop", "Pub", "Postcode", "Town", "RTM",
	"Miles To Next", "Drive Mins To Next", "Warnings",
}

// WriteXLSX writes the planned days to an XLSX workbook, one sheet with
// one row per visit. Day-level warnings appear on the day's first row.
func WriteXLSX(days []model.ScheduleDay, path string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Schedule")
	if err != nil {
		return eris.Wrap(err, "schedule: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range exportHeader {
		hdr.AddCell().Value = h
	}

	for _, day := range days {
		for i, v := range day.Visits {
			row := sheet.AddRow()
			row.AddCell().Value = day.Date
			row.AddCell().SetInt(i + 1)
			row.AddCell().Value = v.Pub.Name
			row.AddCell().Value = v.Pub.Zip
			row.AddCell().Value = v.Pub.Town
			row.AddCell().Value = v.Pub.RTM
			row.AddCell().SetInt(v.MileageToNext)
			row.AddCell().SetInt(v.DriveTimeToNext)
			if i == 0 {
				row.AddCell().Value = strings.Join(day.SchedulingErrors, "; ")
			}
		}
	}

	return eris.Wrap(file.Save(path), "schedule: save xlsx")
}
