package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"weibograb/pkg/logger"
)

// recordSubdir is where dated record files live under the output base
// directory.
const recordSubdir = "weibo"

// utf8BOM makes spreadsheet tools detect the encoding
const utf8BOM = "\uFEFF"

// Store appends canonical records to a dated CSV file, one file per
// day. The header row is written only when the file is created.
type Store struct {
	baseDir string
	now     func() time.Time
	logger  logger.Logger
}

// NewStore creates a Store rooted at baseDir
func NewStore(baseDir string, log logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		baseDir: baseDir,
		now:     time.Now,
		logger:  log,
	}
}

// Path returns today's record file path
func (s *Store) Path() string {
	return filepath.Join(s.baseDir, recordSubdir, s.now().Format("20060102")+".csv")
}

// Append writes one record to today's file
func (s *Store) Append(rec *CanonicalRecord) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}

	dir := filepath.Join(s.baseDir, recordSubdir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	path := s.Path()
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open record file: %w", err)
	}
	defer f.Close()

	if isNew {
		if _, err := f.WriteString(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	w := csv.NewWriter(f)
	if isNew {
		if err := w.Write(Header()); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := w.Write(rec.Fields()); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}

	s.logger.InfoWithFields("record saved", map[string]interface{}{
		"path": path,
		"bid":  rec.Bid,
	})
	return nil
}

// ReadAll reads every record from a dated file, skipping the header.
// Mostly useful for tooling and tests.
func ReadAll(path string) ([]*CanonicalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(bomStrippingReader(f))
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var records []*CanonicalRecord
	for i, row := range rows {
		if i == 0 {
			continue
		}
		records = append(records, FromFields(row))
	}
	return records, nil
}

// bomStrippingReader removes a leading UTF-8 BOM
func bomStrippingReader(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && string(buf) == utf8BOM {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
