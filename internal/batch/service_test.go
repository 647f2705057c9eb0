package batch

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"certhub/certificate-portal/certificate-portal-backend/internal/mailer"
	"certhub/certificate-portal/certificate-portal-backend/internal/render"
	"certhub/certificate-portal/certificate-portal-backend/internal/storage"
	"certhub/certificate-portal/certificate-portal-backend/internal/template"
)

// MockDeckRenderer is a mock implementation of the DeckRenderer interface
type MockDeckRenderer struct {
	mock.Mock
}

func (m *MockDeckRenderer) Render(ctx context.Context, templatePath, outputPath string, values map[string]string) error {
	args := m.Called(ctx, templatePath, outputPath, values)
	return args.Error(0)
}

// MockOverlayRenderer is a mock implementation of the OverlayRenderer interface
type MockOverlayRenderer struct {
	mock.Mock
}

func (m *MockOverlayRenderer) Render(ctx context.Context, templatePath, outputPath, name string, opts render.OverlayOptions) error {
	args := m.Called(ctx, templatePath, outputPath, name, opts)
	return args.Error(0)
}

// MockSender is a mock implementation of the mailer.Sender interface
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg mailer.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockSender) Verify(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func newTestStore(t *testing.T) *storage.Manager {
	t.Helper()
	store, err := storage.NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func recipients(names ...string) []render.Recipient {
	rs := make([]render.Recipient, len(names))
	for i, n := range names {
		rs[i] = render.Recipient{Name: n}
	}
	return rs
}

func TestGenerateBatchNoRecipients(t *testing.T) {
	svc := NewService(nil, nil, nil, newTestStore(t), nil, nil, zap.NewNop())

	_, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: "template.pdf",
	})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestGenerateBatchUnsupportedFormat(t *testing.T) {
	svc := NewService(nil, nil, nil, newTestStore(t), nil, nil, zap.NewNop())

	_, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: "template.docx",
		Recipients:   recipients("Ann Lee"),
	})
	assert.ErrorIs(t, err, template.ErrUnsupportedFormat)
}

func TestGenerateBatchUnreadableTemplate(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "broken.pptx")
	require.NoError(t, os.WriteFile(templatePath, []byte("not a zip"), 0o644))

	svc := NewService(nil, nil, nil, newTestStore(t), nil, nil, zap.NewNop())
	_, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: templatePath,
		Recipients:   recipients("Ann Lee"),
	})
	assert.ErrorIs(t, err, ErrTemplateUnreadable)
}

func TestGenerateBatchIsolatesFailures(t *testing.T) {
	overlay := new(MockOverlayRenderer)
	overlay.On("Render", mock.Anything, mock.Anything, mock.Anything, "Recipient 3", mock.Anything).
		Return(errors.New("injected render fault"))
	overlay.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil)

	svc := NewService(nil, overlay, nil, newTestStore(t), nil, nil, zap.NewNop())

	result, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: "template.pdf",
		Recipients: recipients(
			"Recipient 1", "Recipient 2", "Recipient 3", "Recipient 4", "Recipient 5"),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Recipient 3", result.Errors[0].RecipientName)
	assert.Contains(t, result.Errors[0].Message, "injected render fault")
	overlay.AssertNumberOfCalls(t, "Render", 5)
}

func TestGenerateBatchSanitizesFilenames(t *testing.T) {
	overlay := new(MockOverlayRenderer)
	overlay.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(nil, overlay, nil, newTestStore(t), nil, nil, zap.NewNop())
	result, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: "template.pdf",
		Recipients:   recipients("O'Brien, Jr."),
	})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "certificate-OBrien_Jr.pdf", result.Files[0].Filename)
}

func TestGenerateBatchResolvedNamePassedToOverlay(t *testing.T) {
	overlay := new(MockOverlayRenderer)
	overlay.On("Render", mock.Anything, mock.Anything, mock.Anything, "Dr. Ann Lee", mock.Anything).Return(nil)

	svc := NewService(nil, overlay, nil, newTestStore(t), nil, nil, zap.NewNop())
	_, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: "template.pdf",
		Recipients: []render.Recipient{{
			Name:   "ann lee",
			Fields: map[string]string{"title": "Dr. Ann Lee"},
		}},
		Options: render.BatchOptions{
			FieldMappings: map[string]string{"name": "title"},
		},
	})
	require.NoError(t, err)
	overlay.AssertExpectations(t)
}

func writeServiceDeck(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := zip.NewWriter(f)
	slide, err := w.Create("ppt/slides/slide1.xml")
	require.NoError(t, err)
	_, err = slide.Write([]byte(fmt.Sprintf(
		`<?xml version="1.0"?><p:sld xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`,
		text)))
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readSlide(t *testing.T, path string) string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()
	for _, f := range r.File {
		if f.Name != "ppt/slides/slide1.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(data)
	}
	t.Fatal("slide not found")
	return ""
}

func TestGenerateBatchEndToEndDeck(t *testing.T) {
	dir := t.TempDir()
	templatePath := filepath.Join(dir, "template.pptx")
	writeServiceDeck(t, templatePath, "Awarded to {{name}} for {{course}} on {{date}}")

	svc := NewService(render.NewDeckRenderer(zap.NewNop()), nil, nil, newTestStore(t), nil, nil, zap.NewNop())

	result, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: templatePath,
		Recipients:   recipients("Ann Lee", "Bo Kim"),
		Options: render.BatchOptions{
			Course: "Algorithms",
			Date:   "2024-01-01",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Succeeded)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Files, 2)

	ann := readSlide(t, result.Files[0].Path)
	assert.Contains(t, ann, "Ann Lee")
	assert.Contains(t, ann, "Algorithms")
	assert.Contains(t, ann, "2024-01-01")
	assert.NotContains(t, ann, "{{")

	bo := readSlide(t, result.Files[1].Path)
	assert.Contains(t, bo, "Bo Kim")
}

func TestGenerateBatchResultMarshalsEmptySlicesAsArrays(t *testing.T) {
	overlay := new(MockOverlayRenderer)
	overlay.On("Render", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(nil, overlay, nil, newTestStore(t), nil, nil, zap.NewNop())
	result, err := svc.GenerateBatch(context.Background(), GenerateRequest{
		TemplatePath: "template.pdf",
		Recipients:   recipients("Ann Lee"),
	})
	require.NoError(t, err)
	require.NotNil(t, result.Errors)

	data, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errors":[]`)
	assert.NotContains(t, string(data), `"errors":null`)
}

func TestEmailResultsSkipsMissingAddressesAndContinues(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(msg mailer.Message) bool {
		return msg.To == "bad@example.com"
	})).Return(errors.New("mailbox unavailable"))
	sender.On("Send", mock.Anything, mock.Anything).Return(nil)

	svc := NewService(nil, nil, nil, newTestStore(t), sender, nil, zap.NewNop())

	report, err := svc.EmailResults(context.Background(), EmailRequest{
		Course: "Algorithms",
		Items: []EmailItem{
			{Name: "Ann Lee", Email: "ann@example.com", AttachmentPath: "a.pdf"},
			{Name: "No Email"},
			{Name: "Bad Box", Email: "bad@example.com", AttachmentPath: "b.pdf"},
			{Name: "Bo Kim", Email: "bo@example.com", AttachmentPath: "c.pdf"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "No Email", report.Errors[0].RecipientName)
	assert.Equal(t, "Bad Box", report.Errors[1].RecipientName)
}

func TestEmailResultsWithoutSender(t *testing.T) {
	svc := NewService(nil, nil, nil, newTestStore(t), nil, nil, zap.NewNop())
	_, err := svc.EmailResults(context.Background(), EmailRequest{
		Items: []EmailItem{{Name: "Ann", Email: "ann@example.com"}},
	})
	assert.Error(t, err)
}
