package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Session log lines are usually small, but assistant messages with large tool
// output can run long.
const maxLineBytes = 10 * 1024 * 1024

// ReadLog parses newline-delimited JSON records from r in order. Malformed
// lines are skipped, not surfaced; the skip count is returned for diagnostics.
func ReadLog(r io.Reader) ([]Record, int) {
	var records []Record
	skipped := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	return records, skipped
}

// ReadLogFile reads all records from the log file at path. The only whole-file
// failure mode is the file being unopenable.
func ReadLogFile(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()
	records, skipped := ReadLog(f)
	return records, skipped, nil
}
