package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/Cordycepsers/final-transcript/internal/config"
	"github.com/Cordycepsers/final-transcript/internal/logger"
)

// WorkbookStore persists results into a local .xlsx workbook with the same
// row and column layout as the spreadsheet store. It is the fallback when no
// Google credentials are available.
type WorkbookStore struct {
	path         string
	sheetName    string
	emailColumn  string
	questionCols map[string]config.ColumnMapping
	log          *logger.Logger
}

// NewWorkbookStore creates a workbook-backed store. The file is created on
// first write if it does not exist.
func NewWorkbookStore(cfg *config.Config, log *logger.Logger) *WorkbookStore {
	return &WorkbookStore{
		path:         cfg.Workbook.Path,
		sheetName:    cfg.Sheets.SheetName,
		emailColumn:  cfg.Sheets.EmailColumn,
		questionCols: cfg.Sheets.QuestionColumns,
		log:          log.WithComponent("workbook_store"),
	}
}

// Upsert writes the media link and transcript into the respondent's row,
// appending a new row when the email is not present yet.
func (s *WorkbookStore) Upsert(_ context.Context, rec ResultRecord) bool {
	cols, ok := s.questionCols[rec.Question]
	if !ok {
		s.log.WithField("question", rec.Question).Warn("No column mapping for question")
		return false
	}

	f, err := s.open()
	if err != nil {
		s.log.WithError(err).Error("Failed to open workbook")
		return false
	}
	defer f.Close()

	row, err := s.findEmailRow(f, rec.Email)
	if err != nil {
		s.log.WithError(err).Error("Failed to search for respondent row")
		return false
	}
	if row == 0 {
		rows, err := f.GetRows(s.sheetName)
		if err != nil {
			s.log.WithError(err).Error("Failed to determine next free row")
			return false
		}
		row = len(rows) + 1
		if err := f.SetCellValue(s.sheetName, cell(s.emailColumn, row), rec.Email); err != nil {
			s.log.WithError(err).Error("Failed to write respondent email")
			return false
		}
	}

	if err := f.SetCellValue(s.sheetName, cell(cols.LinkColumn, row), rec.MediaURL); err != nil {
		s.log.WithError(err).Error("Failed to write media link")
		return false
	}
	if err := f.SetCellValue(s.sheetName, cell(cols.TranscriptColumn, row), cellText(rec)); err != nil {
		s.log.WithError(err).Error("Failed to write transcript")
		return false
	}

	if err := f.SaveAs(s.path); err != nil {
		s.log.WithError(err).Error("Failed to save workbook")
		return false
	}

	s.log.WithFields(map[string]interface{}{
		"email": rec.Email,
		"row":   row,
	}).Info("Stored transcription result")
	return true
}

// open loads the workbook from disk, creating a fresh one with the
// configured sheet when the file does not exist yet.
func (s *WorkbookStore) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		f = excelize.NewFile()
	}

	idx, err := f.GetSheetIndex(s.sheetName)
	if err != nil {
		f.Close()
		return nil, err
	}
	if idx == -1 {
		if _, err := f.NewSheet(s.sheetName); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// findEmailRow scans the email column for the respondent. Returns the
// 1-based row index, or 0 when the email is absent.
func (s *WorkbookStore) findEmailRow(f *excelize.File, email string) (int, error) {
	colNum, err := excelize.ColumnNameToNumber(s.emailColumn)
	if err != nil {
		return 0, err
	}
	columns, err := f.GetCols(s.sheetName)
	if err != nil {
		return 0, err
	}
	if colNum > len(columns) {
		return 0, nil
	}
	for i, v := range columns[colNum-1] {
		if v == email {
			return i + 1, nil
		}
	}
	return 0, nil
}

func cell(column string, row int) string {
	return fmt.Sprintf("%s%d", column, row)
}
