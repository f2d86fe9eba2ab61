package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/calderhq/rota-api/internal/models"
	appErrors "github.com/calderhq/rota-api/pkg/errors"
	"github.com/calderhq/rota-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

// ExportFile is a rendered export ready to serve.
type ExportFile struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ExportService renders the printable weekly rota. Only published shifts
// appear: the export is the document handed to staff, and drafts are not
// yet visible to them.
type ExportService struct {
	roster *RosterService
	csv    *export.CSVExporter
	pdf    *export.PDFExporter
	loc    *time.Location
	logger *zap.Logger
}

// NewExportService instantiates ExportService.
func NewExportService(roster *RosterService, loc *time.Location, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ExportService{
		roster: roster,
		csv:    export.NewCSVExporter(),
		pdf:    export.NewPDFExporter(),
		loc:    loc,
		logger: logger,
	}
}

// RenderWeek produces the rota for the week in the requested format.
func (s *ExportService) RenderWeek(ctx context.Context, weekStart time.Time, format string) (*ExportFile, error) {
	view, err := s.roster.WeekView(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	dataset := s.weekDataset(view)
	title := fmt.Sprintf("Week of %s", view.WeekStart)

	switch format {
	case ExportFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportFile{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("rota-%s.csv", view.WeekStart),
		}, nil
	case ExportFormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportFile{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("rota-%s.pdf", view.WeekStart),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func (s *ExportService) weekDataset(view *models.WeekView) export.Dataset {
	weekStart, _ := time.ParseInLocation(dayKeyLayout, view.WeekStart, s.loc)
	days := WeekDays(weekStart)

	headers := make([]string, 0, 8)
	headers = append(headers, "Employee")
	for _, day := range days {
		headers = append(headers, day.Format("Mon 01/02"))
	}

	rows := make([]map[string]string, 0, len(view.Employees)+1)
	for _, employee := range view.Employees {
		row := map[string]string{"Employee": employee.Name}
		for i, day := range days {
			key := DayKey(day, s.loc)
			row[headers[i+1]] = s.formatCell(view.ShiftsByEmployeeAndDay[employee.ID][key])
		}
		rows = append(rows, row)
	}

	if open := s.openShiftsRow(view, days, headers); open != nil {
		rows = append(rows, open)
	}

	return export.Dataset{Headers: headers, Rows: rows}
}

func (s *ExportService) openShiftsRow(view *models.WeekView, days []time.Time, headers []string) map[string]string {
	if len(view.OpenShifts) == 0 {
		return nil
	}
	byDay := make(map[string][]models.Shift)
	for _, shift := range view.OpenShifts {
		key := DayKey(shift.StartAt, s.loc)
		byDay[key] = append(byDay[key], shift)
	}
	row := map[string]string{"Employee": "Open shifts"}
	for i, day := range days {
		row[headers[i+1]] = s.formatCell(byDay[DayKey(day, s.loc)])
	}
	return row
}

func (s *ExportService) formatCell(shifts []models.Shift) string {
	var parts []string
	for _, shift := range shifts {
		if shift.Status != models.ShiftStatusPublished {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s-%s %s",
			shift.StartAt.In(s.loc).Format("15:04"),
			shift.EndAt.In(s.loc).Format("15:04"),
			shift.Location,
		))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
