package commitstore

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/tidwall/btree"

	"github.com/javanhut/artgit/internal/errs"
)

// Store errors
var (
	ErrNotFound     = fmt.Errorf("%w: commit", errs.ErrNotFound)
	ErrEmptyMessage = fmt.Errorf("%w: commit message is empty", errs.ErrValidation)
)

// FileName is the sidecar file name inside a versions directory.
const FileName = "versions.json"

// timeKey orders commits by timestamp, then by insertion sequence.
type timeKey struct {
	ts  time.Time
	seq uint64
	id  string
}

func timeKeyLess(a, b timeKey) bool {
	if !a.ts.Equal(b.ts) {
		return a.ts.Before(b.ts)
	}
	return a.seq < b.seq
}

// Store is the in-memory commit graph of one document. It is not safe for
// concurrent use.
type Store struct {
	path    string
	logger  *slog.Logger
	now     func() time.Time
	newID   func(time.Time) string
	commits map[string]Commit
	keys    map[string]timeKey
	order   []string
	byTime  *btree.BTreeG[timeKey]
	head    string
	nextSeq uint64
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for soft failures on load.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now for new commits.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc replaces NewID for new commits.
func WithIDFunc(f func(time.Time) string) Option {
	return func(s *Store) { s.newID = f }
}

// New returns an empty store with no head.
func New(opts ...Option) *Store {
	s := &Store{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		newID:   NewID,
		commits: make(map[string]Commit),
		keys:    make(map[string]timeKey),
		byTime:  btree.NewBTreeG[timeKey](timeKeyLess),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the file the store was loaded from, if any.
func (s *Store) Path() string { return s.path }

// Len returns the number of commits.
func (s *Store) Len() int { return len(s.commits) }

// Head returns the checked-out commit id.
func (s *Store) Head() (string, bool) {
	return s.head, s.head != ""
}

// Get returns the commit with the given id.
func (s *Store) Get(id string) (Commit, bool) {
	c, ok := s.commits[id]
	return c, ok
}

func (s *Store) has(id string) bool {
	_, ok := s.commits[id]
	return ok
}

// insert adds c unless its id is already present. The first occurrence wins.
func (s *Store) insert(c Commit) bool {
	if _, dup := s.commits[c.ID]; dup {
		return false
	}
	k := timeKey{ts: c.Timestamp, seq: s.nextSeq, id: c.ID}
	s.nextSeq++
	s.commits[c.ID] = c
	s.keys[c.ID] = k
	s.order = append(s.order, c.ID)
	s.byTime.Set(k)
	return true
}

// Append records a new commit whose parent is the current head and moves
// head to it.
func (s *Store) Append(message, snapshotRef, previewRef string) (Commit, error) {
	if strings.TrimSpace(message) == "" {
		return Commit{}, ErrEmptyMessage
	}
	now := s.now()
	id := s.newID(now)
	for attempt := 0; s.has(id); attempt++ {
		if attempt == 16 {
			return Commit{}, fmt.Errorf("allocate commit id: %s already taken", id)
		}
		id = s.newID(now)
	}

	c := Commit{
		ID:          id,
		Parent:      s.head,
		Message:     message,
		Timestamp:   now,
		DisplayTime: now.Format(DisplayLayout),
		Filename:    snapshotRef,
		Preview:     previewRef,
	}
	s.insert(c)
	s.head = id
	return c, nil
}

// SetHead checks out an existing commit. Unknown ids leave head unchanged.
func (s *Store) SetHead(id string) error {
	if _, ok := s.commits[id]; !ok {
		return fmt.Errorf("%w %s", ErrNotFound, id)
	}
	s.head = id
	return nil
}

// ResolveParent returns the parent of id. It reports false for roots,
// dangling parents and unknown ids.
func (s *Store) ResolveParent(id string) (Commit, bool) {
	c, ok := s.commits[id]
	if !ok || c.Parent == "" {
		return Commit{}, false
	}
	p, ok := s.commits[c.Parent]
	return p, ok
}

// ListOrderedByTime returns all commits ordered by timestamp. Commits with
// equal timestamps keep insertion order in both directions.
func (s *Store) ListOrderedByTime(descending bool) []Commit {
	out := make([]Commit, 0, len(s.commits))
	if !descending {
		s.byTime.Scan(func(k timeKey) bool {
			out = append(out, s.commits[k.id])
			return true
		})
		return out
	}

	// Reverse walks ties newest-inserted first; flip each run of equal
	// timestamps back into insertion order.
	var run []Commit
	flush := func() {
		for i := len(run) - 1; i >= 0; i-- {
			out = append(out, run[i])
		}
		run = run[:0]
	}
	s.byTime.Reverse(func(k timeKey) bool {
		if len(run) > 0 && !run[0].Timestamp.Equal(k.ts) {
			flush()
		}
		run = append(run, s.commits[k.id])
		return true
	})
	flush()
	return out
}

// InsertionOrder returns all commits in the order they entered the store.
func (s *Store) InsertionOrder() []Commit {
	out := make([]Commit, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.commits[id])
	}
	return out
}

// Lineage walks parent pointers from tip back to a root, tip first. It is
// the derived replacement for named branches. A dangling parent ends the walk.
func (s *Store) Lineage(tip string) ([]Commit, error) {
	c, ok := s.commits[tip]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNotFound, tip)
	}
	var out []Commit
	seen := make(map[string]bool)
	for {
		if seen[c.ID] {
			break
		}
		seen[c.ID] = true
		out = append(out, c)
		if c.Parent == "" {
			break
		}
		next, ok := s.commits[c.Parent]
		if !ok {
			break
		}
		c = next
	}
	return out, nil
}

// Children returns the commits whose parent is id, in insertion order.
func (s *Store) Children(id string) []Commit {
	var out []Commit
	for _, cid := range s.order {
		if c := s.commits[cid]; c.Parent == id {
			out = append(out, c)
		}
	}
	return out
}
