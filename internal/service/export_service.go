package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/noah-isme/tutor-match-api/internal/models"
	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
	"github.com/noah-isme/tutor-match-api/pkg/export"
)

// Export formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type listingBrowser interface {
	Browse(ctx context.Context, q models.BrowseQuery) (*models.BrowseResult, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered directory ready to be sent as an attachment.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ExportService renders the browse view of a role as CSV or PDF.
type ExportService struct {
	browser listingBrowser
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(browser listingBrowser, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{browser: browser, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Export renders the view selected by q. The district filter and newest
// ordering apply exactly as in Browse.
func (s *ExportService) Export(ctx context.Context, q models.BrowseQuery, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.WithDetails(appErrors.ErrValidation, "unsupported export format", map[string]string{"format": "Format must be csv or pdf"})
	}

	result, err := s.browser.Browse(ctx, q)
	if err != nil {
		return nil, err
	}
	if result.Status == models.BrowseStatusUnavailable {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, fmt.Sprintf("%s could not be loaded", q.Role.Plural()))
	}

	dataset := buildDirectory(result)
	var body []byte
	contentType := export.ContentTypeCSV
	switch format {
	case ExportFormatPDF:
		body, err = s.pdf.Render(dataset)
		contentType = export.ContentTypePDF
	default:
		body, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	s.logger.Debug("directory exported",
		zap.String("role", string(q.Role)),
		zap.String("format", format),
		zap.Int("rows", len(result.Listings)))
	return &ExportFile{
		Filename:    s.filename(result, format),
		ContentType: contentType,
		Body:        body,
	}, nil
}

const maxFilenameRunes = 60

func (s *ExportService) filename(result *models.BrowseResult, format string) string {
	parts := []string{result.Role.Plural()}
	if district := sanitizeFilename(result.District); district != "" {
		parts = append(parts, district)
	}
	parts = append(parts, s.now().UTC().Format("20060102"))
	return strings.Join(parts, "_") + "." + format
}

func buildDirectory(result *models.BrowseResult) export.Dataset {
	title := strings.ToUpper(result.Role.Plural()[:1]) + result.Role.Plural()[1:]
	if result.District != "" {
		title += " in " + result.District
	}
	if result.SortNewest {
		title += " (newest first)"
	}

	dataset := export.Dataset{Title: title}
	if result.Role == models.RoleTeacher {
		dataset.Headers = []string{"Name", "Subject", "Experience", "Phone", "Province", "District", "Location", "Listed"}
		dataset.Widths = []float64{3, 3, 1.5, 2, 2.5, 2, 3, 2}
	} else {
		dataset.Headers = []string{"Name", "Grade", "Subject", "Salary", "Hours", "Phone", "Province", "District", "Location", "Listed"}
		dataset.Widths = []float64{3, 1.5, 3, 1.5, 1, 2, 2.5, 2, 3, 2}
	}

	dataset.Rows = make([]map[string]string, 0, len(result.Listings))
	for _, l := range result.Listings {
		row := map[string]string{
			"Name":     l.Name,
			"Subject":  l.Subject,
			"Phone":    l.PhoneNumber,
			"Province": l.Province,
			"District": l.District,
			"Location": l.SpecificLocation,
			"Listed":   formatListed(l.CreatedAt),
		}
		if l.Teacher != nil {
			row["Experience"] = strconv.Itoa(l.Teacher.Experience) + " yrs"
		}
		if l.Student != nil {
			row["Grade"] = l.Student.Grade
			row["Salary"] = formatAmount(l.Student.Salary)
			row["Hours"] = formatAmount(l.Student.TeachingHours)
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset
}

func formatListed(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// sanitizeFilename lowercases raw into a filename fragment of at most
// maxFilenameRunes runes. Letters and digits are kept, separators become
// "_" or "-", and everything else (quotes, control characters) is dropped.
func sanitizeFilename(raw string) string {
	var b strings.Builder
	count := 0
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		if count == maxFilenameRunes {
			break
		}
		switch {
		case unicode.IsLetter(r), unicode.IsMark(r), unicode.IsDigit(r), r == '-', r == '_', r == '.':
		case unicode.IsSpace(r):
			r = '_'
		case r == '/', r == '\\', r == ':':
			r = '-'
		default:
			continue
		}
		b.WriteRune(r)
		count++
	}
	return strings.Trim(b.String(), "_-.")
}
