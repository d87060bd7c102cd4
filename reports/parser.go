// reports/parser.go
package reports

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gewnthar/gaslines/models"
	"github.com/jszwec/csvutil"
	"go.uber.org/zap"
)

// ErrMalformedRecord is returned for report rows that cannot be decoded.
var ErrMalformedRecord = errors.New("malformed report record")

// reportHeader names the report columns positionally. The fifth column is
// carried by the report format but never read.
var reportHeader = []string{"group_id", "name", "x", "y", "reserved", "date", "psi", "material"}

// fieldReader splits whitespace-delimited lines into records for csvutil.
// Blank lines are skipped and columns past the last named one are dropped.
type fieldReader struct {
	scanner *bufio.Scanner
	line    int
}

func newFieldReader(r io.Reader) *fieldReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &fieldReader{scanner: sc}
}

func (fr *fieldReader) Read() ([]string, error) {
	for fr.scanner.Scan() {
		fr.line++
		fields := strings.Fields(fr.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(reportHeader) {
			return nil, fmt.Errorf("%w: line %d: expected %d fields, got %d",
				ErrMalformedRecord, fr.line, len(reportHeader), len(fields))
		}
		return fields[:len(reportHeader)], nil
	}
	if err := fr.scanner.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// ParseReport decodes every row of a gas line report, in file order.
func ParseReport(reader io.Reader) ([]models.ReportRecord, error) {
	fr := newFieldReader(reader)

	decoder, err := csvutil.NewDecoder(fr, reportHeader...)
	if err != nil {
		return nil, fmt.Errorf("failed to create report decoder: %w", err)
	}

	var records []models.ReportRecord
	for {
		var rec models.ReportRecord
		err := decoder.Decode(&rec)
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrMalformedRecord) {
			return nil, err
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedRecord, fr.line, err)
		}
		rec.Line = fr.line
		records = append(records, rec)
	}
	return records, nil
}

// ParseReportFile opens and parses the report at path.
func ParseReportFile(path string) ([]models.ReportRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report %s: %w", path, err)
	}
	defer file.Close()

	records, err := ParseReport(file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse report %s: %w", path, err)
	}

	zap.L().Named("reports").Debug("Parsed report",
		zap.String("path", path), zap.Int("records", len(records)))
	return records, nil
}
