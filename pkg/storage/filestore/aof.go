package filestore

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ashpect/ttlstore/pkg/log"
	"github.com/ashpect/ttlstore/pkg/storage"
)

const (
	opSave   = "SET"
	opRemove = "DEL"
	opClear  = "CLEAR"
)

// record is one line of the append-only log.
type record struct {
	Op    string `json:"op"`
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

// aof is an append-only JSON-lines log, synced after every record.
type aof struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

func openAOF(path string) (*aof, error) {
	a := &aof{path: path}
	if err := a.reopen(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *aof) reopen() error {
	file, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open log %s", a.path)
	}
	a.file = file
	a.writer = bufio.NewWriter(file)
	return a.terminateTail()
}

// terminateTail ends a torn last line left by a crash mid-write, so the
// next record starts on a line of its own.
func (a *aof) terminateTail() error {
	info, err := a.file.Stat()
	if err != nil {
		return errors.Wrapf(err, "stat log %s", a.path)
	}
	if info.Size() == 0 {
		return nil
	}
	last := make([]byte, 1)
	r, err := os.Open(a.path)
	if err != nil {
		return errors.Wrapf(err, "open log %s", a.path)
	}
	defer r.Close()
	if _, err := r.ReadAt(last, info.Size()-1); err != nil && err != io.EOF {
		return errors.Wrapf(err, "read log tail %s", a.path)
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := a.file.Write([]byte{'\n'}); err != nil {
		return classifyIOError(err, "terminate log tail")
	}
	return nil
}

func (a *aof) append(rec record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal log record")
	}
	data = append(data, '\n')
	info, err := a.file.Stat()
	if err != nil {
		return errors.Wrap(err, "stat log")
	}
	if _, err := a.writer.Write(data); err != nil {
		return a.rollback(info.Size(), classifyIOError(err, "write log"))
	}
	if err := a.writer.Flush(); err != nil {
		return a.rollback(info.Size(), classifyIOError(err, "flush log"))
	}
	if err := a.file.Sync(); err != nil {
		return classifyIOError(err, "sync log")
	}
	return nil
}

// rollback drops whatever part of a failed record reached the file, so the
// next append does not land on a torn line.
func (a *aof) rollback(size int64, cause error) error {
	a.writer.Reset(a.file)
	if err := a.file.Truncate(size); err != nil {
		log.Warn("truncate torn log record", zap.String("path", a.path), zap.Int64("size", size), zap.Error(err))
		return errors.CombineErrors(cause, errors.Wrap(err, "truncate log"))
	}
	return cause
}

// replay feeds every well-formed record in the log to apply. Unparsable
// lines are logged and skipped; a missing file is an empty log.
func replay(path string, apply func(record)) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrapf(err, "open log %s for replay", path)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	lineNum, applied := 0, 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Warn("skip unparsable log line", zap.String("path", path), zap.Int("line", lineNum), zap.Error(err))
			continue
		}
		switch rec.Op {
		case opSave, opRemove, opClear:
			apply(rec)
			applied++
		default:
			log.Warn("skip unknown log op", zap.String("path", path), zap.Int("line", lineNum), zap.String("op", rec.Op))
		}
	}
	if err := scanner.Err(); err != nil {
		return applied, errors.Wrapf(err, "read log %s", path)
	}
	return applied, nil
}

// rewrite atomically replaces the log with the given records and reopens it
// for appending.
func (a *aof) rewrite(each func(emit func(record) error) error) error {
	tmpPath := a.path + ".tmp"
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return classifyIOError(err, "create compacted log")
	}
	w := bufio.NewWriter(tmp)
	emit := func(rec record) error {
		data, err := json.Marshal(rec)
		if err != nil {
			return errors.Wrap(err, "marshal log record")
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return classifyIOError(err, "write compacted log")
		}
		return nil
	}
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := each(emit); err != nil {
		return fail(err)
	}
	if err := w.Flush(); err != nil {
		return fail(classifyIOError(err, "flush compacted log"))
	}
	if err := tmp.Sync(); err != nil {
		return fail(classifyIOError(err, "sync compacted log"))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "close compacted log")
	}

	if err := a.close(); err != nil {
		log.Warn("close log before compaction swap", zap.String("path", a.path), zap.Error(err))
	}
	if err := os.Rename(tmpPath, a.path); err != nil {
		os.Remove(tmpPath)
		if reopenErr := a.reopen(); reopenErr != nil {
			return errors.CombineErrors(errors.Wrap(err, "swap compacted log"), reopenErr)
		}
		return errors.Wrap(err, "swap compacted log")
	}
	syncDir(filepath.Dir(a.path))
	return a.reopen()
}

func (a *aof) close() error {
	if a.file == nil {
		return nil
	}
	flushErr := a.writer.Flush()
	closeErr := a.file.Close()
	a.file = nil
	return errors.CombineErrors(flushErr, closeErr)
}

func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// classifyIOError marks a full disk as capacity exhaustion so the cache can
// sweep and retry. The sweep itself appends DEL records, so on a truly full
// disk the retry fails too; only WithCapacity gives the sweep room to work.
func classifyIOError(err error, msg string) error {
	if errors.Is(err, syscall.ENOSPC) {
		return storage.WrapCapacityExceeded(err, "%s", msg)
	}
	return errors.Wrap(err, msg)
}
