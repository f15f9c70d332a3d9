// Package session is the append-only journal of every interaction the bot
// records: one JSONL file per subject per calendar day under
// <vault>/sessions/<subject>/<date>.jsonl. Records are immutable once
// written; corrections are new records. There is no retention or compaction,
// so the tree grows without bound — a known operational limitation.
package session

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// recentWindowDays bounds how far back Recent scans. Histories longer than
// the window are out of scope for "recent context" callers.
const recentWindowDays = 7

type Store struct {
	root string
}

// New returns a store rooted at <vaultPath>/sessions, creating the
// directory if needed.
func New(vaultPath string) (*Store, error) {
	root := filepath.Join(vaultPath, "sessions")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("ensure sessions dir: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) partitionPath(subject int64, day time.Time) string {
	return filepath.Join(s.root, strconv.FormatInt(subject, 10), day.Format(dateLayout)+".jsonl")
}

// Append records one event with the current local time.
func (s *Store) Append(subject int64, kind string, payload map[string]any) error {
	return s.AppendAt(subject, kind, time.Now(), payload)
}

// AppendAt records one event with an explicit timestamp. The write is a
// single newline-terminated append, so concurrent writers to the same
// partition interleave whole lines and never corrupt each other.
func (s *Store) AppendAt(subject int64, kind string, ts time.Time, payload map[string]any) error {
	if kind == "" {
		return fmt.Errorf("session append: empty kind")
	}
	e := Entry{Subject: subject, TS: ts, Kind: kind, Payload: payload}
	line, err := e.marshalLine()
	if err != nil {
		return err
	}

	path := s.partitionPath(subject, ts)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure partition dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open partition: %w", err)
	}
	defer func() { _ = f.Close() }()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Day returns the subject's entries for one calendar date in append order.
// A missing partition is an empty result, not an error. A line that fails
// to parse (including a truncated trailing line from an interrupted write)
// is skipped with a warning and the rest of the partition is still read.
func (s *Store) Day(subject int64, day time.Time) ([]Entry, error) {
	path := s.partitionPath(subject, day)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open partition: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	var entries []Entry
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		e, err := parseLine(subject, line)
		if err != nil {
			log.Printf("⚠️ session: skipping bad record in %s: %v", path, err)
			continue
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return entries, fmt.Errorf("scan partition: %w", err)
	}
	return entries, nil
}

// Subjects lists every subject with at least one partition on disk,
// in ascending order. Directory names that are not numeric IDs are ignored.
func (s *Store) Subjects() ([]int64, error) {
	dirs, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}
	var subjects []int64
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		id, err := strconv.ParseInt(d.Name(), 10, 64)
		if err != nil {
			continue
		}
		subjects = append(subjects, id)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })
	return subjects, nil
}

// Today returns the subject's entries for the current date.
func (s *Store) Today(subject int64) ([]Entry, error) {
	return s.Day(subject, time.Now())
}

// Recent returns up to limit entries from the last few days, sorted by
// timestamp ascending (most recent last). limit <= 0 means no truncation.
func (s *Store) Recent(subject int64, limit int) ([]Entry, error) {
	var entries []Entry
	today := time.Now()
	for i := 0; i < recentWindowDays; i++ {
		day := today.AddDate(0, 0, -i)
		es, err := s.Day(subject, day)
		if err != nil {
			return nil, err
		}
		entries = append(entries, es...)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TS.Before(entries[j].TS)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	return entries, nil
}
