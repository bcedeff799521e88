package store

import (
	"sort"
	"sync"
	"time"

	"github.com/arnavshah/pair-overlap-api/pkg/models"
	"github.com/arnavshah/pair-overlap-api/pkg/overlap"
	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrDatasetNotFound = errors.New("dataset not found")

// Dataset is one upload held for the lifetime of a session
type Dataset struct {
	ID         string
	Name       string
	Format     string
	Rows       []models.RawRow
	UploadedAt time.Time

	source     []byte
	sourceSize int
}

// Source returns the original upload
func (d *Dataset) Source() ([]byte, error) {
	data, err := snappy.Decode(nil, d.source)
	if err != nil {
		return nil, errors.Wrap(err, "decode dataset source")
	}
	return data, nil
}

// Info describes the dataset without its rows
func (d *Dataset) Info(active bool) models.DatasetInfo {
	return models.DatasetInfo{
		ID:         d.ID,
		Name:       d.Name,
		Format:     d.Format,
		Rows:       len(d.Rows),
		SourceSize: d.sourceSize,
		UploadedAt: d.UploadedAt,
		Active:     active,
	}
}

type cachedReport struct {
	gen    uint64
	day    string
	report *overlap.Report
}

// reportDay is the UTC calendar day a report was computed for; ongoing
// rows count up to that day, so a report is stale once it changes.
func reportDay(asOf time.Time) string {
	return asOf.UTC().Format("2006-01-02")
}

// Session holds the datasets of one caller and which one is active.
// Each mutation bumps the generation; reports computed under an older
// generation are refused so a slow computation never replaces a newer one.
type Session struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	order    []string
	activeID string
	gen      uint64
	reports  map[string]cachedReport
	lastSeen time.Time
	now      func() time.Time
}

func newSession(now func() time.Time) *Session {
	return &Session{
		datasets: make(map[string]*Dataset),
		reports:  make(map[string]cachedReport),
		lastSeen: now(),
		now:      now,
	}
}

// Add stores a new dataset and makes it the active one
func (s *Session) Add(name, format string, source []byte, rows []models.RawRow) *Dataset {
	ds := &Dataset{
		ID:         uuid.NewString(),
		Name:       name,
		Format:     format,
		Rows:       rows,
		UploadedAt: s.now(),
		source:     snappy.Encode(nil, source),
		sourceSize: len(source),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.ID] = ds
	s.order = append(s.order, ds.ID)
	s.activeID = ds.ID
	s.gen++
	return ds
}

// Remove drops a dataset; removing the active one leaves none active
func (s *Session) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[id]; !ok {
		return ErrDatasetNotFound
	}
	delete(s.datasets, id)
	delete(s.reports, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeID == id {
		s.activeID = ""
	}
	s.gen++
	return nil
}

// SetActive switches the active dataset; an empty id clears it
func (s *Session) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if _, ok := s.datasets[id]; !ok {
			return ErrDatasetNotFound
		}
	}
	s.activeID = id
	s.gen++
	return nil
}

// Get returns a dataset and the generation it was read at
func (s *Session) Get(id string) (*Dataset, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[id]
	if !ok {
		return nil, 0, ErrDatasetNotFound
	}
	return ds, s.gen, nil
}

// Active returns the active dataset, or nil
func (s *Session) Active() (*Dataset, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.datasets[s.activeID], s.gen
}

// List returns dataset descriptions in upload order
func (s *Session) List() []models.DatasetInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]models.DatasetInfo, 0, len(s.order))
	for _, id := range s.order {
		infos = append(infos, s.datasets[id].Info(id == s.activeID))
	}
	return infos
}

// IsActive reports whether id is the active dataset
func (s *Session) IsActive(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return id != "" && s.activeID == id
}

// PutReport caches a report computed at generation gen as of asOf. It
// returns false and keeps the previous state when the session changed in
// the meantime.
func (s *Session) PutReport(gen uint64, id string, asOf time.Time, report *overlap.Report) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	if _, ok := s.datasets[id]; !ok {
		return false
	}
	s.reports[id] = cachedReport{gen: gen, day: reportDay(asOf), report: report}
	return true
}

// Report returns the cached report of a dataset if it was computed on the
// same UTC day as asOf
func (s *Session) Report(id string, asOf time.Time) (*overlap.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.reports[id]
	if !ok || c.day != reportDay(asOf) {
		return nil, false
	}
	return c.report, true
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSeen
}

// Registry maps owners to their sessions
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewRegistry creates an empty registry; now defaults to time.Now
func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{sessions: make(map[string]*Session), now: now}
}

// Session returns the owner's session, creating it on first use
func (r *Registry) Session(owner string) *Session {
	r.mu.Lock()
	s, ok := r.sessions[owner]
	if !ok {
		s = newSession(r.now)
		r.sessions[owner] = s
	}
	// touched before unlocking so Evict never sees a handed-out session as idle
	s.touch()
	r.mu.Unlock()
	return s
}

// Evict removes sessions idle since before the cutoff and returns their owners
func (r *Registry) Evict(before time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var evicted []string
	for owner, s := range r.sessions {
		if s.idleSince().Before(before) {
			delete(r.sessions, owner)
			evicted = append(evicted, owner)
		}
	}
	sort.Strings(evicted)
	return evicted
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
