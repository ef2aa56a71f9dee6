package service

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-finance-api/internal/models"
	appErrors "github.com/noah-isme/uni-finance-api/pkg/errors"
	"github.com/noah-isme/uni-finance-api/pkg/export"
	"github.com/noah-isme/uni-finance-api/pkg/storage"
)

// StatementFormat selects the statement rendering.
type StatementFormat string

// Supported statement formats.
const (
	StatementFormatCSV StatementFormat = "csv"
	StatementFormatPDF StatementFormat = "pdf"
)

type statementBalanceReader interface {
	ListByStudent(ctx context.Context, studentNumber string) ([]models.StudentFeeBalance, error)
}

type statementStudentReader interface {
	FindByNumber(ctx context.Context, studentNumber string) (*models.Student, error)
}

type statementFeeReader interface {
	ListStudentFees(ctx context.Context, studentNumber string) ([]models.StudentAdditionalFee, error)
}

// Statement is a rendered student fee statement.
type Statement struct {
	FileName    string
	ContentType string
	Content     []byte
}

// StatementLink points at an archived statement through a signed token.
type StatementLink struct {
	FileName  string    `json:"file_name"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StatementService renders a student's ledger into downloadable documents.
// When an archive and signer are configured, rendered statements can also be
// persisted and fetched later through signed download tokens.
type StatementService struct {
	balances    statementBalanceReader
	students    statementStudentReader
	fees        statementFeeReader
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	archive     *storage.LocalStorage
	signer      *storage.SignedURLSigner
	institution string
	logger      *zap.Logger
}

// NewStatementService constructs StatementService. archive and signer may be
// nil, which disables the archived-download flow but not direct rendering.
func NewStatementService(balances statementBalanceReader, students statementStudentReader, fees statementFeeReader, archive *storage.LocalStorage, signer *storage.SignedURLSigner, institution string, logger *zap.Logger) *StatementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatementService{
		balances:    balances,
		students:    students,
		fees:        fees,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		archive:     archive,
		signer:      signer,
		institution: institution,
		logger:      logger,
	}
}

var statementHeaders = []string{"Item", "Total", "Paid", "Outstanding", "Due Date", "Status"}

// Render builds the statement for one student in the requested format.
func (s *StatementService) Render(ctx context.Context, studentNumber string, format StatementFormat) (*Statement, error) {
	student, err := s.students.FindByNumber(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}

	balances, err := s.balances.ListByStudent(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student ledger")
	}
	additional, err := s.fees.ListStudentFees(ctx, studentNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load additional fees")
	}

	dataset := export.Dataset{Headers: statementHeaders}
	for _, balance := range balances {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Item":        balance.FeeStructureItemID,
			"Total":       balance.TotalAmount.StringFixed(2),
			"Paid":        balance.AmountPaid.StringFixed(2),
			"Outstanding": balance.OutstandingBalance.StringFixed(2),
			"Due Date":    balance.DueDate.Format("2006-01-02"),
			"Status":      string(balance.Status),
		})
	}
	for _, fee := range additional {
		paid := "0.00"
		outstanding := fee.Amount.StringFixed(2)
		if fee.Status == models.BalanceStatusPaid {
			paid = fee.Amount.StringFixed(2)
			outstanding = "0.00"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Item":        "additional:" + fee.AdditionalFeeID,
			"Total":       fee.Amount.StringFixed(2),
			"Paid":        paid,
			"Outstanding": outstanding,
			"Due Date":    fee.DueDate.Format("2006-01-02"),
			"Status":      string(fee.Status),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case StatementFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv statement")
		}
		return &Statement{
			FileName:    fmt.Sprintf("statement_%s_%s.csv", student.StudentNumber, stamp),
			ContentType: "text/csv",
			Content:     content,
		}, nil
	case StatementFormatPDF:
		title := strings.TrimSpace(s.institution + " Fee Statement " + student.StudentNumber)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf statement")
		}
		return &Statement{
			FileName:    fmt.Sprintf("statement_%s_%s.pdf", student.StudentNumber, stamp),
			ContentType: "application/pdf",
			Content:     content,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported statement format")
	}
}

// RenderAndArchive renders a statement, stores it under the student's archive
// directory and returns a signed download link.
func (s *StatementService) RenderAndArchive(ctx context.Context, studentNumber string, format StatementFormat) (*StatementLink, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "statement archive is not configured")
	}
	statement, err := s.Render(ctx, studentNumber, format)
	if err != nil {
		return nil, err
	}
	relPath := path.Join(studentNumber, statement.FileName)
	if _, err := s.archive.Save(relPath, statement.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive statement")
	}
	token, expiresAt, err := s.signer.Generate(studentNumber, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign statement link")
	}
	s.logger.Info("statement archived",
		zap.String("student_number", studentNumber),
		zap.String("file", relPath))
	return &StatementLink{FileName: statement.FileName, Token: token, ExpiresAt: expiresAt}, nil
}

// OpenArchived validates a signed token and loads the archived statement it
// refers to.
func (s *StatementService) OpenArchived(token string) (*Statement, error) {
	if s.archive == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "statement archive is not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid statement token")
	}
	content, err := s.archive.Read(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "archived statement not found")
	}
	contentType := "text/csv"
	if strings.HasSuffix(relPath, ".pdf") {
		contentType = "application/pdf"
	}
	return &Statement{
		FileName:    path.Base(relPath),
		ContentType: contentType,
		Content:     content,
	}, nil
}
