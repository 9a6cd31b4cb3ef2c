// Package index implements the inverted index and song metadata store:
// hash -> list of (song_id, anchor_time), plus song_id -> metadata,
// with binary/text persistence matching the on-disk layout fixed by the
// fingerprinting format.
package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/devrindt/soundprint/pkg/soundprint/apperr"
)

// Entry is a single posting: the song that contributed this fingerprint
// occurrence and the absolute time of its anchor peak in that song.
type Entry struct {
	SongID     int32
	AnchorTime float64
}

// SongMeta is the metadata record stored per enrolled song.
type SongMeta struct {
	ID         int32
	Name       string
	Path       string
	Duration   float64
	HashCount  int
}

// Index is the inverted fingerprint index plus the song metadata table.
// It is append-only during enrollment (single writer) and read-only
// during querying (any number of concurrent readers).
type Index struct {
	postings map[uint32][]Entry
	songs    map[int32]*SongMeta
	nextID   int32
}

// New returns an empty index.
func New() *Index {
	return &Index{
		postings: make(map[uint32][]Entry),
		songs:    make(map[int32]*SongMeta),
		nextID:   1,
	}
}

// AddSong assigns song_id = next_id (then increments it), appends an
// entry to every posting list named by hashes, and records metadata.
// It returns the newly assigned id.
func (idx *Index) AddSong(name, path string, duration float64, hashes []uint32, anchorTimes []float64) int32 {
	id := idx.nextID
	idx.nextID++

	for i, h := range hashes {
		idx.postings[h] = append(idx.postings[h], Entry{SongID: id, AnchorTime: anchorTimes[i]})
	}

	idx.songs[id] = &SongMeta{
		ID:        id,
		Name:      name,
		Path:      path,
		Duration:  duration,
		HashCount: len(hashes),
	}

	return id
}

// Lookup returns the posting list for hash, or nil if it has never been
// seen.
func (idx *Index) Lookup(hash uint32) []Entry {
	return idx.postings[hash]
}

// Metadata returns the song record for id, or false if unknown.
func (idx *Index) Metadata(id int32) (SongMeta, bool) {
	m, ok := idx.songs[id]
	if !ok {
		return SongMeta{}, false
	}
	return *m, true
}

// ByName returns the first song record matching name, or false if none
// match.
func (idx *Index) ByName(name string) (SongMeta, bool) {
	for _, m := range idx.songs {
		if m.Name == name {
			return *m, true
		}
	}
	return SongMeta{}, false
}

// Stats summarizes the index's size and posting-length distribution.
type Stats struct {
	SongCount     int
	HashCount     int
	TotalPostings int
	MaxPostingLen int
}

// Stats returns aggregate counters over the current index state.
func (idx *Index) Stats() Stats {
	s := Stats{SongCount: len(idx.songs), HashCount: len(idx.postings)}
	for _, entries := range idx.postings {
		s.TotalPostings += len(entries)
		if len(entries) > s.MaxPostingLen {
			s.MaxPostingLen = len(entries)
		}
	}
	return s
}

// Clear resets the index to the empty state.
func (idx *Index) Clear() {
	idx.postings = make(map[uint32][]Entry)
	idx.songs = make(map[int32]*SongMeta)
	idx.nextID = 1
}

// SaveBinary writes the posting table to path in the fixed little-endian
// layout: u64 num_hashes; for each hash { u32 value; u64 num_entries;
// for each entry { i32 song_id; f64 anchor_time } }.
func (idx *Index) SaveBinary(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.New(apperr.KindIoFailure, "create index file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	hashes := make([]uint32, 0, len(idx.postings))
	for h := range idx.postings {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	if err := binary.Write(w, binary.LittleEndian, uint64(len(hashes))); err != nil {
		return apperr.New(apperr.KindIoFailure, "write hash count", err)
	}

	for _, h := range hashes {
		entries := idx.postings[h]
		if err := binary.Write(w, binary.LittleEndian, h); err != nil {
			return apperr.New(apperr.KindIoFailure, "write hash value", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(entries))); err != nil {
			return apperr.New(apperr.KindIoFailure, "write entry count", err)
		}
		for _, e := range entries {
			if err := binary.Write(w, binary.LittleEndian, e.SongID); err != nil {
				return apperr.New(apperr.KindIoFailure, "write song id", err)
			}
			if err := binary.Write(w, binary.LittleEndian, e.AnchorTime); err != nil {
				return apperr.New(apperr.KindIoFailure, "write anchor time", err)
			}
		}
	}

	if err := w.Flush(); err != nil {
		return apperr.New(apperr.KindIoFailure, "flush index file", err)
	}
	return nil
}

// LoadBinary replaces the current posting table with the contents of
// path. Song metadata (and next_id) is untouched — callers load the
// metadata file separately and must reconcile the two (see LoadAll).
func (idx *Index) LoadBinary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.New(apperr.KindIoFailure, "open index file", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var numHashes uint64
	if err := binary.Read(r, binary.LittleEndian, &numHashes); err != nil {
		return apperr.New(apperr.KindMalformedDatabase, "read hash count", err)
	}

	postings := make(map[uint32][]Entry, numHashes)

	for i := uint64(0); i < numHashes; i++ {
		var value uint32
		if err := binary.Read(r, binary.LittleEndian, &value); err != nil {
			return apperr.New(apperr.KindMalformedDatabase, "read hash value", err)
		}
		var numEntries uint64
		if err := binary.Read(r, binary.LittleEndian, &numEntries); err != nil {
			return apperr.New(apperr.KindMalformedDatabase, "read entry count", err)
		}

		entries := make([]Entry, numEntries)
		for j := uint64(0); j < numEntries; j++ {
			var songID int32
			if err := binary.Read(r, binary.LittleEndian, &songID); err != nil {
				return apperr.New(apperr.KindMalformedDatabase, "read song id", err)
			}
			var anchorTime float64
			if err := binary.Read(r, binary.LittleEndian, &anchorTime); err != nil {
				return apperr.New(apperr.KindMalformedDatabase, "read anchor time", err)
			}
			entries[j] = Entry{SongID: songID, AnchorTime: anchorTime}
		}
		postings[value] = entries
	}

	idx.postings = postings
	return nil
}

// SaveMetadata writes the song metadata table as a human-readable
// key=value file grouped by [SONG_<id>] sections.
func (idx *Index) SaveMetadata(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return apperr.New(apperr.KindIoFailure, "create metadata file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	ids := make([]int32, 0, len(idx.songs))
	for id := range idx.songs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fmt.Fprintf(w, "[METADATA]\n")
	fmt.Fprintf(w, "num_songs=%d\n", len(ids))
	fmt.Fprintf(w, "version=1.0\n\n")

	for _, id := range ids {
		m := idx.songs[id]
		fmt.Fprintf(w, "[SONG_%d]\n", m.ID)
		fmt.Fprintf(w, "id=%d\n", m.ID)
		fmt.Fprintf(w, "name=%s\n", m.Name)
		fmt.Fprintf(w, "path=%s\n", m.Path)
		fmt.Fprintf(w, "duration=%f\n", m.Duration)
		fmt.Fprintf(w, "num_hashes=%d\n\n", m.HashCount)
	}

	return w.Flush()
}

// LoadMetadata replaces the song metadata table with the contents of
// path, and sets next_id to one past the largest id found.
func (idx *Index) LoadMetadata(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return apperr.New(apperr.KindIoFailure, "open metadata file", err)
	}
	defer f.Close()

	songs, err := parseMetadata(f)
	if err != nil {
		return err
	}

	idx.songs = songs
	var maxID int32
	for id := range songs {
		if id > maxID {
			maxID = id
		}
	}
	idx.nextID = maxID + 1
	return nil
}

// LoadAll loads a binary index and its metadata file as a unit and
// verifies that the two agree on the set of song ids: every id in a
// posting list must have a metadata record, and every metadata record
// with a non-zero hash count must appear in at least one posting list.
func (idx *Index) LoadAll(binPath, metaPath string) error {
	if err := idx.LoadBinary(binPath); err != nil {
		return err
	}
	if err := idx.LoadMetadata(metaPath); err != nil {
		return err
	}

	indexIDs := make(map[int32]struct{})
	for _, entries := range idx.postings {
		for _, e := range entries {
			indexIDs[e.SongID] = struct{}{}
		}
	}
	for id := range indexIDs {
		if _, ok := idx.songs[id]; !ok {
			return apperr.New(apperr.KindMalformedDatabase,
				fmt.Sprintf("song id %d present in index but missing from metadata", id), nil)
		}
	}
	for id, m := range idx.songs {
		if _, ok := indexIDs[id]; !ok && m.HashCount > 0 {
			return apperr.New(apperr.KindMalformedDatabase,
				fmt.Sprintf("song id %d present in metadata but missing from index", id), nil)
		}
	}

	return nil
}

// SaveAll persists the binary index and the metadata file as a unit.
func (idx *Index) SaveAll(binPath, metaPath string) error {
	if err := idx.SaveBinary(binPath); err != nil {
		return err
	}
	return idx.SaveMetadata(metaPath)
}

func parseMetadata(r io.Reader) (map[int32]*SongMeta, error) {
	songs := make(map[int32]*SongMeta)

	scanner := bufio.NewScanner(r)
	var cur *SongMeta

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if line[0] == '[' {
			if line == "[METADATA]" {
				cur = nil
				continue
			}
			cur = &SongMeta{}
			continue
		}
		if cur == nil {
			continue
		}

		key, value, ok := splitKV(line)
		if !ok {
			continue
		}
		switch key {
		case "id":
			var id int
			if _, err := fmt.Sscanf(value, "%d", &id); err != nil {
				return nil, apperr.New(apperr.KindMalformedDatabase, "parse song id", err)
			}
			cur.ID = int32(id)
			songs[cur.ID] = cur
		case "name":
			cur.Name = value
		case "path":
			cur.Path = value
		case "duration":
			var d float64
			if _, err := fmt.Sscanf(value, "%f", &d); err != nil {
				return nil, apperr.New(apperr.KindMalformedDatabase, "parse duration", err)
			}
			cur.Duration = d
		case "num_hashes":
			var n int
			if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
				return nil, apperr.New(apperr.KindMalformedDatabase, "parse num_hashes", err)
			}
			cur.HashCount = n
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, apperr.New(apperr.KindIoFailure, "scan metadata file", err)
	}
	return songs, nil
}

func splitKV(line string) (key, value string, ok bool) {
	for i := 0; i < len(line); i++ {
		if line[i] == '=' {
			return line[:i], line[i+1:], true
		}
	}
	return "", "", false
}
