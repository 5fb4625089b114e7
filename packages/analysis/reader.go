// Package analysis aggregates attempt records read back from the event log.
package analysis

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/l3montree-dev/lowpot/packages/types"
)

// Log is the parsed content of an event log.
type Log struct {
	Records []types.AttemptRecord
	// Skipped counts non-blank lines that were not a JSON object
	Skipped int
}

// ReadLog parses one record per line. Malformed lines are skipped, never fatal.
func ReadLog(r io.Reader) (*Log, error) {
	res := &Log{Records: make([]types.AttemptRecord, 0)}
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			res.add(line)
		}
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read log: %w", err)
		}
	}
}

// ReadFile reads the log at path. A missing file yields an error matching fs.ErrNotExist.
func ReadFile(path string) (*Log, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadLog(file)
}

func (l *Log) add(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	if line[0] != '{' {
		l.Skipped++
		return
	}
	var rec types.AttemptRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		l.Skipped++
		return
	}
	l.Records = append(l.Records, rec)
}
