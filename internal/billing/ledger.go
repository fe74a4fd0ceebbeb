package billing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// FileLedger appends bills to a file, opening and closing it per bill.
type FileLedger struct {
	path   string
	format string
}

// NewFileLedger returns a ledger writing format ("text" or "jsonl") to path.
func NewFileLedger(path, format string) *FileLedger {
	return &FileLedger{path: path, format: format}
}

func (l *FileLedger) Path() string {
	return l.path
}

func (l *FileLedger) Append(b Bill) error {
	record, err := l.encode(b)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}

	if _, err := f.WriteString(record); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	return f.Close()
}

func (l *FileLedger) encode(b Bill) (string, error) {
	if l.format == "jsonl" {
		data, err := json.Marshal(b)
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	}

	var sb strings.Builder
	for _, line := range b.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(Divider)
	sb.WriteByte('\n')
	return sb.String(), nil
}
