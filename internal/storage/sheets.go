package storage

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/Cordycepsers/final-transcript/internal/config"
	"github.com/Cordycepsers/final-transcript/internal/logger"
)

// SheetsStore writes transcription results into a Google spreadsheet. Each
// respondent has one row, keyed by email; each question maps to a pair of
// columns holding the media link and the enhanced transcript.
type SheetsStore struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	emailColumn   string
	questionCols  map[string]config.ColumnMapping
	log           *logger.Logger
}

// NewSheetsStore builds a store backed by the Sheets API using a service
// account credentials file.
func NewSheetsStore(cfg *config.Config, log *logger.Logger) (*SheetsStore, error) {
	if cfg.Sheets.SpreadsheetID == "" {
		return nil, fmt.Errorf("no spreadsheet ID configured")
	}

	b, err := os.ReadFile(cfg.Sheets.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	ctx := context.Background()
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &SheetsStore{
		service:       srv,
		spreadsheetID: cfg.Sheets.SpreadsheetID,
		sheetName:     cfg.Sheets.SheetName,
		emailColumn:   cfg.Sheets.EmailColumn,
		questionCols:  cfg.Sheets.QuestionColumns,
		log:           log.WithComponent("sheets_store"),
	}, nil
}

// Upsert writes the media link and transcript into the respondent's row,
// appending a new row when the email is not present yet.
func (s *SheetsStore) Upsert(ctx context.Context, rec ResultRecord) bool {
	cols, ok := s.questionCols[rec.Question]
	if !ok {
		s.log.WithField("question", rec.Question).Warn("No column mapping for question")
		return false
	}

	row, err := s.findEmailRow(ctx, rec.Email)
	if err != nil {
		s.log.WithError(err).Error("Failed to search for respondent row")
		return false
	}
	if row == 0 {
		row, err = s.nextFreeRow(ctx)
		if err != nil {
			s.log.WithError(err).Error("Failed to determine next free row")
			return false
		}
		if err := s.updateCell(ctx, s.emailColumn, row, rec.Email); err != nil {
			s.log.WithError(err).Error("Failed to write respondent email")
			return false
		}
	}

	if err := s.updateCell(ctx, cols.LinkColumn, row, rec.MediaURL); err != nil {
		s.log.WithError(err).Error("Failed to write media link")
		return false
	}
	if err := s.updateCell(ctx, cols.TranscriptColumn, row, cellText(rec)); err != nil {
		s.log.WithError(err).Error("Failed to write transcript")
		return false
	}

	s.log.WithFields(map[string]interface{}{
		"email": rec.Email,
		"row":   row,
	}).Info("Stored transcription result")
	return true
}

// findEmailRow scans the email column for the respondent. Returns the
// 1-based row index, or 0 when the email is absent.
func (s *SheetsStore) findEmailRow(ctx context.Context, email string) (int, error) {
	readRange := fmt.Sprintf("%s!%s:%s", s.sheetName, s.emailColumn, s.emailColumn)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == email {
			return i + 1, nil
		}
	}
	return 0, nil
}

// nextFreeRow returns the first row index past the populated range. The
// read-then-write window is not synchronized; two concurrent first results
// for the same respondent can land on separate rows.
func (s *SheetsStore) nextFreeRow(ctx context.Context) (int, error) {
	readRange := fmt.Sprintf("%s!A:A", s.sheetName)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	return len(resp.Values) + 1, nil
}

func (s *SheetsStore) updateCell(ctx context.Context, column string, row int, value string) error {
	cell := fmt.Sprintf("%s!%s%d", s.sheetName, column, row)
	body := &sheets.ValueRange{Values: [][]interface{}{{value}}}
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, cell, body).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}
