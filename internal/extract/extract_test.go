package extract

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRunner struct {
	stdout []byte
	stderr []byte
	err    error

	name     string
	args     []string
	fileSeen []byte
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	// the input path is the second to last argument
	if len(args) >= 2 {
		f.fileSeen, _ = os.ReadFile(args[len(args)-2])
	}
	return f.stdout, f.stderr, f.err
}

func newTestExtractor(r Runner, max int64) *Extractor {
	return NewWithRunner(Config{Pdftotext: "/usr/bin/pdftotext", MaxBytes: max}, r, zap.NewNop())
}

func TestExtract_PDFUsesPdftotext(t *testing.T) {
	pdf := []byte("%PDF-1.7\n...binary...")
	r := &fakeRunner{stdout: []byte("16/02 – seg\r\nO eu, o outro e o nós\fPágina 2")}
	e := newTestExtractor(r, 0)

	text, err := e.Extract(context.Background(), "plano.pdf", strings.NewReader(string(pdf)))
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/pdftotext", r.name)
	assert.Equal(t, []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}, r.args[:5])
	assert.Equal(t, "-", r.args[len(r.args)-1])
	assert.Equal(t, pdf, r.fileSeen)
	assert.Equal(t, "16/02 – seg\nO eu, o outro e o nós\n\nPágina 2", text)
}

func TestExtract_PDFDetectedByMagic(t *testing.T) {
	r := &fakeRunner{stdout: []byte("texto")}
	e := newTestExtractor(r, 0)

	_, err := e.Extract(context.Background(), "upload", strings.NewReader("%PDF-1.4 rest"))
	require.NoError(t, err)
	assert.NotEmpty(t, r.name)
}

func TestExtract_PDFConverterFailure(t *testing.T) {
	r := &fakeRunner{err: errors.New("exit status 1"), stderr: []byte("Syntax Error: Couldn't find trailer")}
	e := newTestExtractor(r, 0)

	_, err := e.Extract(context.Background(), "plano.pdf", strings.NewReader("%PDF-broken"))
	require.ErrorIs(t, err, ErrUnreadable)
	assert.Contains(t, err.Error(), "trailer")
}

func TestExtract_PDFWithoutText(t *testing.T) {
	r := &fakeRunner{stdout: []byte(" \f \n\f")}
	e := newTestExtractor(r, 0)

	_, err := e.Extract(context.Background(), "scan.pdf", strings.NewReader("%PDF-1.4 image only"))
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestExtract_PlainText(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"utf8", []byte("Traços, sons, cores e formas"), "Traços, sons, cores e formas"},
		{"utf8 with bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Escuta")...), "Escuta"},
		{"windows-1252", []byte{'T', 'r', 'a', 0xE7, 'o', 's'}, "Traços"},
		{"crlf", []byte("a\r\nb"), "a\nb"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestExtractor(&fakeRunner{}, 0)
			got, err := e.Extract(context.Background(), "plano.txt", strings.NewReader(string(tc.input)))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtract_Rejections(t *testing.T) {
	e := newTestExtractor(&fakeRunner{}, 16)

	_, err := e.Extract(context.Background(), "plano.txt", strings.NewReader("   \n\t "))
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = e.Extract(context.Background(), "plano.txt", strings.NewReader(strings.Repeat("x", 17)))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = e.Extract(context.Background(), "plano.docx", strings.NewReader("PK..."))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExtract_ReadError(t *testing.T) {
	e := newTestExtractor(&fakeRunner{}, 0)
	_, err := e.Extract(context.Background(), "plano.txt", failingReader{})
	assert.ErrorIs(t, err, ErrUnreadable)
}
