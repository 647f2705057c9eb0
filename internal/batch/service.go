package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certhub/certificate-portal/certificate-portal-backend/internal/history"
	"certhub/certificate-portal/certificate-portal-backend/internal/mailer"
	"certhub/certificate-portal/certificate-portal-backend/internal/render"
	"certhub/certificate-portal/certificate-portal-backend/internal/storage"
	"certhub/certificate-portal/certificate-portal-backend/internal/template"
)

// DeckRenderer renders one personalized deck.
type DeckRenderer interface {
	Render(ctx context.Context, templatePath, outputPath string, values map[string]string) error
}

// OverlayRenderer personalizes one fixed-layout PDF.
type OverlayRenderer interface {
	Render(ctx context.Context, templatePath, outputPath, name string, opts render.OverlayOptions) error
}

// PDFConverter turns a rendered deck into a PDF.
type PDFConverter interface {
	ConvertToPDF(ctx context.Context, deckPath, outDir string) (string, error)
}

type Service interface {
	GenerateBatch(ctx context.Context, req GenerateRequest) (*Result, error)
	EmailResults(ctx context.Context, req EmailRequest) (*DeliveryReport, error)
}

type service struct {
	deck      DeckRenderer
	overlay   OverlayRenderer
	converter PDFConverter
	store     *storage.Manager
	mail      mailer.Sender
	repo      history.Repository
	logger    *zap.Logger
}

// NewService wires the orchestrator. converter, mail and repo may be nil;
// the matching features are then disabled.
func NewService(deck DeckRenderer, overlay OverlayRenderer, converter PDFConverter, store *storage.Manager, mail mailer.Sender, repo history.Repository, logger *zap.Logger) Service {
	return &service{
		deck:      deck,
		overlay:   overlay,
		converter: converter,
		store:     store,
		mail:      mail,
		repo:      repo,
		logger:    logger,
	}
}

// GenerateBatch renders one output file per recipient. Each recipient is
// attempted exactly once and independently: a render failure is recorded
// and the loop moves on. Precondition failures abort before any rendering.
func (s *service) GenerateBatch(ctx context.Context, req GenerateRequest) (*Result, error) {
	tmpl, err := template.New(req.TemplatePath)
	if err != nil {
		return nil, err
	}
	if len(req.Recipients) == 0 {
		return nil, ErrNoRecipients
	}

	placeholders, err := template.Scan(tmpl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateUnreadable, err)
	}

	batchID := uuid.New()
	outDir, err := s.store.BatchDir(batchID.String())
	if err != nil {
		return nil, err
	}

	result := &Result{
		BatchID:      batchID,
		TemplateName: tmpl.Name(),
		Placeholders: placeholders,
		Files:        []GeneratedFile{},
		Errors:       []ItemError{},
	}

	for _, recipient := range req.Recipients {
		file, err := s.renderOne(ctx, tmpl, recipient, placeholders, req, outDir)
		if err != nil {
			s.logger.Warn("recipient render failed",
				zap.String("recipient", recipient.Name),
				zap.Error(err))
			result.Errors = append(result.Errors, ItemError{
				RecipientName: recipient.Name,
				Message:       err.Error(),
			})
			continue
		}
		result.Files = append(result.Files, *file)
	}

	result.Succeeded = len(result.Files)
	result.Failed = len(result.Errors)

	s.logger.Info("batch complete",
		zap.String("batch_id", batchID.String()),
		zap.String("template", tmpl.Name()),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed))

	s.recordHistory(ctx, tmpl, result)
	return result, nil
}

func (s *service) renderOne(ctx context.Context, tmpl template.Template, recipient render.Recipient, placeholders []string, req GenerateRequest, outDir string) (*GeneratedFile, error) {
	base := "certificate-" + storage.SafeName(recipient.Name)

	switch tmpl.Kind {
	case template.KindDeck:
		outPath := filepath.Join(outDir, base+".pptx")
		values := render.Values(recipient, placeholders, req.Options)
		if err := s.deck.Render(ctx, tmpl.Path, outPath, values); err != nil {
			return nil, err
		}
		if req.ConvertToPDF && s.converter != nil {
			pdfPath, err := s.converter.ConvertToPDF(ctx, outPath, outDir)
			if err != nil {
				os.Remove(outPath)
				return nil, err
			}
			os.Remove(outPath)
			return &GeneratedFile{Name: recipient.Name, Filename: filepath.Base(pdfPath), Path: pdfPath}, nil
		}
		return &GeneratedFile{Name: recipient.Name, Filename: filepath.Base(outPath), Path: outPath}, nil

	case template.KindPDF:
		outPath := filepath.Join(outDir, base+".pdf")
		name := render.Resolve(recipient, "name", req.Options)
		if err := s.overlay.Render(ctx, tmpl.Path, outPath, name, req.Overlay); err != nil {
			return nil, err
		}
		return &GeneratedFile{Name: recipient.Name, Filename: filepath.Base(outPath), Path: outPath}, nil

	default:
		return nil, template.ErrUnsupportedFormat
	}
}

func (s *service) recordHistory(ctx context.Context, tmpl template.Template, result *Result) {
	if s.repo == nil {
		return
	}
	record := &history.BatchRecord{
		ID:           result.BatchID,
		TemplateName: tmpl.Name(),
		TemplateKind: string(tmpl.Kind),
		Succeeded:    result.Succeeded,
		Failed:       result.Failed,
		CreatedAt:    time.Now(),
	}
	for _, f := range result.Files {
		record.Files = append(record.Files, history.GeneratedFileRecord{
			BatchID:       result.BatchID,
			RecipientName: f.Name,
			Filename:      f.Filename,
			Path:          f.Path,
		})
	}
	if err := s.repo.CreateBatch(ctx, record); err != nil {
		s.logger.Warn("failed to record batch history", zap.Error(err))
	}
}

// EmailResults mails generated certificates to their recipients. Items
// without an email address, and failed sends, are recorded and skipped;
// the run continues through every item.
func (s *service) EmailResults(ctx context.Context, req EmailRequest) (*DeliveryReport, error) {
	if s.mail == nil {
		return nil, fmt.Errorf("email delivery is not configured")
	}

	subject := req.Subject
	if subject == "" {
		subject = "Your Certificate"
	}

	report := &DeliveryReport{Errors: []ItemError{}}
	for _, item := range req.Items {
		if item.Email == "" {
			report.Errors = append(report.Errors, ItemError{
				RecipientName: item.Name,
				Message:       "no email address",
			})
			continue
		}
		msg := mailer.Message{
			To:             item.Email,
			Subject:        subject,
			HTMLBody:       certificateEmailBody(item.Name, req.Course),
			AttachmentPath: item.AttachmentPath,
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			report.Errors = append(report.Errors, ItemError{
				RecipientName: item.Name,
				Message:       err.Error(),
			})
			continue
		}
		report.Sent++
	}
	report.Failed = len(report.Errors)
	return report, nil
}

func certificateEmailBody(name, course string) string {
	courseLine := ""
	if course != "" {
		courseLine = fmt.Sprintf("<p>Congratulations on completing <strong>%s</strong>.</p>", course)
	}
	return fmt.Sprintf(`<html><body>
<p>Dear %s,</p>
%s
<p>Your certificate is attached to this email.</p>
<p>Best regards,<br>The Certificate Portal Team</p>
</body></html>`, name, courseLine)
}
