package log

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var ErrCorruptEntry = errors.New("corrupt journal entry")

type EntryType uint8

const (
	EntrySave   EntryType = 1
	EntryDelete EntryType = 2
)

// Entry is one journaled change to the report store.
type Entry struct {
	Type    EntryType
	ID      string
	Payload []byte
}

type WAL struct {
	file *os.File
	mu   sync.Mutex
}

func NewWAL(filename string) (*WAL, error) {
	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, err
	}

	return &WAL{file: file}, nil
}

// Append writes one entry and syncs the file.
func (w *WAL) Append(e Entry) error {
	// Format: [entry type (uint8)][id length (uint32)][id][payload length (uint32)][payload]
	if e.Type != EntrySave && e.Type != EntryDelete {
		return fmt.Errorf("%w: type %d", ErrCorruptEntry, e.Type)
	}

	buf := make([]byte, 0, 1+4+len(e.ID)+4+len(e.Payload))
	buf = append(buf, byte(e.Type))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.ID)))
	buf = append(buf, e.ID...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(e.Payload)))
	buf = append(buf, e.Payload...)

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.file.Write(buf); err != nil {
		return err
	}
	return w.file.Sync()
}

// Replay calls apply for every entry in the journal, oldest first.
func (w *WAL) Replay(apply func(Entry) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	reader := bufio.NewReader(w.file)

	for index := 0; ; index++ {
		entry, err := readEntry(reader)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("entry %d: %w", index, err)
		}
		if err := apply(entry); err != nil {
			return err
		}
	}
}

func readEntry(r *bufio.Reader) (Entry, error) {
	kind, err := r.ReadByte()
	if err != nil {
		return Entry{}, err
	}
	entry := Entry{Type: EntryType(kind)}
	if entry.Type != EntrySave && entry.Type != EntryDelete {
		return Entry{}, fmt.Errorf("%w: type %d", ErrCorruptEntry, kind)
	}

	id, err := readChunk(r)
	if err != nil {
		return Entry{}, err
	}
	entry.ID = string(id)

	if entry.Payload, err = readChunk(r); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func readChunk(r io.Reader) ([]byte, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, truncated(err)
	}
	chunk := make([]byte, length)
	if _, err := io.ReadFull(r, chunk); err != nil {
		return nil, truncated(err)
	}
	return chunk, nil
}

// A record cut short by a crash surfaces as corruption, not a clean end.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: truncated", ErrCorruptEntry)
	}
	return err
}

func (w *WAL) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
