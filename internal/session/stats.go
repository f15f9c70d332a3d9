package session

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// GlobalStats is the operator view of the whole store, across all subjects.
type GlobalStats struct {
	Total        int            `json:"total_entries"`
	ByKind       map[string]int `json:"by_type"`
	ByDate       map[string]int `json:"by_day"`
	EarliestDate string         `json:"first_date,omitempty"`
	LatestDate   string         `json:"last_date,omitempty"`
}

// Stats counts the subject's entries per kind within the last windowDays.
// The window is day-granular: it opens at the start of the boundary calendar
// day, so an entry from windowDays ago stays counted for the whole day.
// Entries with an empty kind are counted under "unknown".
func (s *Store) Stats(subject int64, windowDays int) (map[string]int, error) {
	now := time.Now()
	y, m, d := now.AddDate(0, 0, -windowDays).Date()
	cutoff := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	counts := make(map[string]int)
	for i := 0; i <= windowDays; i++ {
		day := now.AddDate(0, 0, -i)
		entries, err := s.Day(subject, day)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.TS.Before(cutoff) || e.TS.After(now) {
				continue
			}
			kind := e.Kind
			if kind == "" {
				kind = "unknown"
			}
			counts[kind]++
		}
	}
	return counts, nil
}

// Global aggregates every partition on disk. An empty store yields zeroed
// aggregates, not an error. The directory tree is the only source of truth
// for which partitions exist.
func (s *Store) Global() (GlobalStats, error) {
	stats := GlobalStats{
		ByKind: make(map[string]int),
		ByDate: make(map[string]int),
	}

	subjects, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("read sessions dir: %w", err)
	}

	var dates []string
	for _, sub := range subjects {
		if !sub.IsDir() {
			continue
		}
		files, err := os.ReadDir(filepath.Join(s.root, sub.Name()))
		if err != nil {
			return stats, fmt.Errorf("read subject dir: %w", err)
		}
		for _, file := range files {
			name := file.Name()
			if file.IsDir() || !strings.HasSuffix(name, ".jsonl") {
				continue
			}
			date := strings.TrimSuffix(name, ".jsonl")
			n, err := s.countPartition(filepath.Join(s.root, sub.Name(), name), stats.ByKind)
			if err != nil {
				return stats, err
			}
			stats.Total += n
			stats.ByDate[date] += n
			dates = append(dates, date)
		}
	}

	if len(dates) > 0 {
		sort.Strings(dates)
		stats.EarliestDate = dates[0]
		stats.LatestDate = dates[len(dates)-1]
	}
	return stats, nil
}

func (s *Store) countPartition(path string, byKind map[string]int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open partition: %w", err)
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	n := 0
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		e, err := parseLine(0, line)
		if err != nil {
			continue
		}
		kind := e.Kind
		if kind == "" {
			kind = "unknown"
		}
		byKind[kind]++
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("scan partition: %w", err)
	}
	return n, nil
}
