package ingest

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Extractor decodes a binary document to plain text. Decoding is an
// external collaborator concern; implementations are expected to shell
// out or call a service rather than parse formats in-process.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// CommandExtractor decodes documents by running a configured command per
// format. The "{path}" placeholder in a template is replaced with the
// file path; extracted text is read from stdout.
type CommandExtractor struct {
	commands map[string][]string
}

// NewCommandExtractor builds an extractor from per-extension command
// templates, e.g. {".pdf": {"pdftotext", "{path}", "-"}}.
func NewCommandExtractor(commands map[string][]string) *CommandExtractor {
	return &CommandExtractor{commands: commands}
}

// DefaultCommands are the conventional poppler/pandoc invocations.
func DefaultCommands() map[string][]string {
	return map[string][]string{
		".pdf":  {"pdftotext", "{path}", "-"},
		".docx": {"pandoc", "--to=plain", "{path}"},
	}
}

func (e *CommandExtractor) Extract(ctx context.Context, path string) (string, error) {
	tmpl, ok := e.commands[strings.ToLower(filepath.Ext(path))]
	if !ok || len(tmpl) == 0 {
		return "", errors.Errorf("no extractor command for %s", filepath.Ext(path))
	}

	args := make([]string, len(tmpl))
	for i, a := range tmpl {
		args[i] = strings.ReplaceAll(a, "{path}", path)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "extract %s: %s", path, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
