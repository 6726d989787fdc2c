package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/tendant/simple-hvp/pkg/hvp"
)

type usageRow struct {
	id        int64
	contentID int64
	usage     hvp.LibraryUsage
}

type state struct {
	instances map[int64]*hvp.ContentInstance
	libraries map[int64]*hvp.LibraryRecord
	usages    []usageRow
	nextID    map[string]int64
}

func (s *state) clone() *state {
	c := &state{
		instances: make(map[int64]*hvp.ContentInstance, len(s.instances)),
		libraries: make(map[int64]*hvp.LibraryRecord, len(s.libraries)),
		usages:    append([]usageRow(nil), s.usages...),
		nextID:    make(map[string]int64, len(s.nextID)),
	}
	for k, v := range s.instances {
		cp := *v
		c.instances[k] = &cp
	}
	for k, v := range s.libraries {
		cp := *v
		c.libraries[k] = &cp
	}
	for k, v := range s.nextID {
		c.nextID[k] = v
	}
	return c
}

func (s *state) next(table string) int64 {
	s.nextID[table]++
	return s.nextID[table]
}

// Repository implements hvp.Repository using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	state *state
}

// New creates a new in-memory repository
func New() hvp.Repository {
	return &Repository{
		state: &state{
			instances: make(map[int64]*hvp.ContentInstance),
			libraries: make(map[int64]*hvp.LibraryRecord),
			nextID:    make(map[string]int64),
		},
	}
}

// Content instance operations

func (r *Repository) CreateInstance(ctx context.Context, instance *hvp.ContentInstance) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.createInstance(instance), nil
}

func (s *state) createInstance(instance *hvp.ContentInstance) int64 {
	row := rowOnly(instance)
	row.ID = s.next("hvp")
	s.instances[row.ID] = &row
	return row.ID
}

func (r *Repository) GetInstanceRow(ctx context.Context, id int64) (*hvp.ContentInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.state.instances[id]
	if !exists {
		return nil, hvp.ErrInstanceNotFound
	}
	instanceCopy := *instance
	return &instanceCopy, nil
}

func (r *Repository) GetInstance(ctx context.Context, id int64) (*hvp.ContentInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	instance, exists := r.state.instances[id]
	if !exists {
		return nil, hvp.ErrInstanceNotFound
	}
	library, exists := r.state.libraries[instance.MainLibraryID]
	if !exists {
		// Mirrors the inner join on the main library.
		return nil, hvp.ErrInstanceNotFound
	}

	instanceCopy := *instance
	instanceCopy.MainLibrary = library.Library
	instanceCopy.EmbedTypes = library.EmbedTypes
	instanceCopy.Fullscreen = library.Fullscreen
	return &instanceCopy, nil
}

func (r *Repository) UpdateInstance(ctx context.Context, instance *hvp.ContentInstance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.updateInstance(instance)
}

func (s *state) updateInstance(instance *hvp.ContentInstance) error {
	if _, exists := s.instances[instance.ID]; !exists {
		return hvp.ErrInstanceNotFound
	}
	row := rowOnly(instance)
	s.instances[instance.ID] = &row
	return nil
}

func (r *Repository) DeleteInstance(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.deleteInstance(id)
}

func (s *state) deleteInstance(id int64) error {
	if _, exists := s.instances[id]; !exists {
		return hvp.ErrInstanceNotFound
	}
	delete(s.instances, id)
	return nil
}

func (r *Repository) ListDependencies(ctx context.Context, contentID int64) ([]hvp.LibraryDependency, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.listDependencies(contentID), nil
}

func (s *state) listDependencies(contentID int64) []hvp.LibraryDependency {
	var rows []usageRow
	for _, u := range s.usages {
		if u.contentID == contentID {
			rows = append(rows, u)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].usage.Weight != rows[j].usage.Weight {
			return rows[i].usage.Weight < rows[j].usage.Weight
		}
		return rows[i].id < rows[j].id
	})

	deps := make([]hvp.LibraryDependency, 0, len(rows))
	for _, u := range rows {
		library, exists := s.libraries[u.usage.LibraryID]
		if !exists {
			continue
		}
		deps = append(deps, hvp.LibraryDependency{
			LibraryID:    library.ID,
			Library:      library.Library,
			PreloadedJS:  library.PreloadedJS,
			PreloadedCSS: library.PreloadedCSS,
			DropCSS:      u.usage.DropCSS,
		})
	}
	return deps
}

// Library operations

func (r *Repository) SaveLibrary(ctx context.Context, library *hvp.LibraryRecord) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.saveLibrary(library), nil
}

// saveLibrary updates the library with the same name and version if one
// exists, otherwise it inserts a new row.
func (s *state) saveLibrary(library *hvp.LibraryRecord) int64 {
	libraryCopy := *library
	if libraryCopy.ID == 0 {
		for id, existing := range s.libraries {
			if existing.Library == library.Library {
				libraryCopy.ID = id
				break
			}
		}
	}
	if libraryCopy.ID == 0 {
		libraryCopy.ID = s.next("hvp_libraries")
	}
	s.libraries[libraryCopy.ID] = &libraryCopy
	return libraryCopy.ID
}

func (r *Repository) GetLibrary(ctx context.Context, id int64) (*hvp.LibraryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	library, exists := r.state.libraries[id]
	if !exists {
		return nil, hvp.ErrLibraryNotFound
	}
	libraryCopy := *library
	return &libraryCopy, nil
}

func (r *Repository) GetLibraryByName(ctx context.Context, library hvp.Library) (*hvp.LibraryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, existing := range r.state.libraries {
		if existing.Library == library {
			libraryCopy := *existing
			return &libraryCopy, nil
		}
	}
	return nil, hvp.ErrLibraryNotFound
}

// Library usage operations

func (r *Repository) ReplaceLibraryUsage(ctx context.Context, contentID int64, usages []hvp.LibraryUsage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.deleteLibraryUsage(contentID)
	for _, usage := range usages {
		r.state.usages = append(r.state.usages, usageRow{
			id:        r.state.next("hvp_contents_libraries"),
			contentID: contentID,
			usage:     usage,
		})
	}
	return nil
}

func (r *Repository) DeleteLibraryUsage(ctx context.Context, contentID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.deleteLibraryUsage(contentID)
	return nil
}

func (s *state) deleteLibraryUsage(contentID int64) {
	kept := s.usages[:0]
	for _, u := range s.usages {
		if u.contentID != contentID {
			kept = append(kept, u)
		}
	}
	s.usages = kept
}

// InTx runs fn against a copy of the repository state and swaps it in when
// fn succeeds. Writers are serialized for the duration of fn.
func (r *Repository) InTx(ctx context.Context, fn func(hvp.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &Repository{state: r.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	r.state = tx.state
	return nil
}

// rowOnly strips the fields joined from the main library.
func rowOnly(instance *hvp.ContentInstance) hvp.ContentInstance {
	return hvp.ContentInstance{
		ID:            instance.ID,
		Name:          instance.Name,
		Course:        instance.Course,
		JSONContent:   instance.JSONContent,
		MainLibraryID: instance.MainLibraryID,
		EmbedType:     instance.EmbedType,
	}
}
