package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"golang.org/x/exp/mmap"
)

// LoadFile reads a history file. Blank lines and lines starting with # are
// ignored; the remaining lines form one history.
func LoadFile(path string) (*schedule.Schedule, error) {
	text, err := ReadHistoryFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSchedule(text)
}

func ReadHistoryFile(path string) (string, error) {
	reader, err := mmap.Open(path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	data := make([]byte, reader.Len())
	if _, err := reader.ReadAt(data, 0); err != nil && len(data) > 0 {
		return "", err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), len(data)+1)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, " "), nil
}
