package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"powerslide/internal/logger"
	"powerslide/internal/models"
	"powerslide/internal/persist"
)

// LoadResult tells the caller what Load found in the sink
type LoadResult int

const (
	LoadAbsent LoadResult = iota
	LoadMalformed
	LoadRestored
)

func (r LoadResult) String() string {
	switch r {
	case LoadAbsent:
		return "absent"
	case LoadMalformed:
		return "malformed"
	case LoadRestored:
		return "restored"
	}
	return "unknown"
}

// ChangeFunc receives a copy of the deck after every state change.
// Copies carry increasing versions; calls from concurrent mutations may
// arrive out of order.
type ChangeFunc func(deck models.Deck)

// DeckStoreOption configures a DeckStore
type DeckStoreOption func(*DeckStore)

// WithIDGenerator replaces the uuid generator used for new slides and objects
func WithIDGenerator(fn func() string) DeckStoreOption {
	return func(s *DeckStore) { s.newID = fn }
}

// DeckStore owns the deck and is the only place it is mutated.
// Every document change is written to the sink before the call returns;
// the current slide index and the selection are never persisted.
type DeckStore struct {
	mu       sync.Mutex
	sink     persist.KVStore
	key      string
	newID    func() string
	deck     models.Deck
	version  uint64
	onChange ChangeFunc
}

// NewDeckStore creates a store holding a single blank slide. Nothing is
// read from or written to the sink until Load or a mutation is called.
func NewDeckStore(sink persist.KVStore, opts ...DeckStoreOption) *DeckStore {
	s := &DeckStore{
		sink:  sink,
		key:   models.PersistKey,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.deck = s.freshDeck()
	return s
}

// OnChange registers the listener called after each state change.
// It runs outside the store lock and may call back into the store.
func (s *DeckStore) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Snapshot returns a deep copy of the current state
func (s *DeckStore) Snapshot() models.Deck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// snapshot must be called with lock held
func (s *DeckStore) snapshot() models.Deck {
	out := s.deck.Clone()
	out.Version = s.version
	return out
}

func (s *DeckStore) freshDeck() models.Deck {
	return models.Deck{
		Title:     models.DefaultTitle,
		Slides:    []models.Slide{models.BlankSlide(s.newID())},
		Current:   0,
		Selection: models.Selection{},
	}
}

// update runs fn under the lock. When fn reports a change the version is
// bumped, the deck is optionally persisted and listeners are notified with
// a copy.
func (s *DeckStore) update(persistChange bool, fn func() (bool, error)) error {
	s.mu.Lock()
	changed, err := fn()
	if err != nil || !changed {
		s.mu.Unlock()
		return err
	}
	s.version++
	var saveErr error
	if persistChange {
		saveErr = s.save()
	}
	snapshot := s.snapshot()
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
	return saveErr
}

func (s *DeckStore) checkIndex(i int) error {
	if i < 0 || i >= len(s.deck.Slides) {
		return fmt.Errorf("%w: %d (deck has %d slides)", models.ErrSlideOutOfRange, i, len(s.deck.Slides))
	}
	return nil
}

// replaceSlide swaps in a new slides slice with slide at index i
func (s *DeckStore) replaceSlide(i int, slide models.Slide) {
	slides := make([]models.Slide, len(s.deck.Slides))
	copy(slides, s.deck.Slides)
	slides[i] = slide
	s.deck.Slides = slides
}

// usedObjectIDs collects object ids of every slide except skip
func (s *DeckStore) usedObjectIDs(skip int) map[string]bool {
	used := make(map[string]bool)
	for i, slide := range s.deck.Slides {
		if i == skip {
			continue
		}
		for _, o := range slide.Objects {
			used[o.ID] = true
		}
	}
	return used
}

// adoptObjects copies objs, keeping ids that are not yet in use and
// assigning fresh ones to the rest. used is updated in place.
func (s *DeckStore) adoptObjects(objs []models.SceneObject, used map[string]bool) []models.SceneObject {
	out := make([]models.SceneObject, len(objs))
	for i, o := range objs {
		if o.ID == "" || used[o.ID] {
			o.ID = s.newID()
		}
		used[o.ID] = true
		out[i] = o
	}
	return out
}

// AddSlide appends a slide and makes it current. A non-nil initial seeds
// the new slide's name, background and objects; the slide always gets a
// fresh id.
func (s *DeckStore) AddSlide(initial *models.Slide) (int, error) {
	var index int
	err := s.update(true, func() (bool, error) {
		index = s.addSlide(initial)
		return true, nil
	})
	return index, err
}

// addSlide must be called with lock held
func (s *DeckStore) addSlide(initial *models.Slide) int {
	slide := models.BlankSlide(s.newID())
	if initial != nil {
		slide = s.seedSlide(slide, *initial, s.usedObjectIDs(-1))
	}
	slides := make([]models.Slide, len(s.deck.Slides), len(s.deck.Slides)+1)
	copy(slides, s.deck.Slides)
	s.deck.Slides = append(slides, slide)
	s.deck.Current = len(s.deck.Slides) - 1

	logger.Logger.Debug().Int("slide_index", s.deck.Current).Str("slide_id", slide.ID).Msg("Slide added")
	return s.deck.Current
}

// seedSlide copies the content of src onto dst, keeping dst's id
func (s *DeckStore) seedSlide(dst, src models.Slide, used map[string]bool) models.Slide {
	patch := models.SlidePatch{
		Objects: s.adoptObjects(src.Objects, used),
	}
	if src.Name != "" {
		patch.Name = &src.Name
	}
	if src.Background.Color != "" || src.Background.Image != nil {
		patch.Background = &src.Background
	}
	return patch.Apply(dst)
}

// RemoveSlide deletes the slide at index and steps current back by one.
// Removing the last remaining slide is a no-op.
func (s *DeckStore) RemoveSlide(index int) error {
	return s.update(true, func() (bool, error) {
		if len(s.deck.Slides) <= 1 {
			return false, nil
		}
		if err := s.checkIndex(index); err != nil {
			return false, err
		}
		slides := make([]models.Slide, 0, len(s.deck.Slides)-1)
		slides = append(slides, s.deck.Slides[:index]...)
		slides = append(slides, s.deck.Slides[index+1:]...)
		s.deck.Slides = slides
		s.deck.Current = max(0, s.deck.Current-1)

		logger.Logger.Debug().Int("slide_index", index).Msg("Slide removed")
		return true, nil
	})
}

// SetCurrent changes the active slide. It is not persisted.
func (s *DeckStore) SetCurrent(i int) error {
	return s.update(false, func() (bool, error) {
		if err := s.checkIndex(i); err != nil {
			return false, err
		}
		s.deck.Current = i
		return true, nil
	})
}

func (s *DeckStore) RenameSlide(i int, name string) error {
	return s.UpdateSlide(i, models.SlidePatch{Name: &name})
}

// UpdateSlide merges patch into slide i. Object ids in a replacement
// object list are kept unless another slide already uses them.
func (s *DeckStore) UpdateSlide(i int, patch models.SlidePatch) error {
	return s.update(true, func() (bool, error) {
		if err := s.checkIndex(i); err != nil {
			return false, err
		}
		if patch.Objects != nil {
			patch.Objects = s.adoptObjects(patch.Objects, s.usedObjectIDs(i))
		}
		s.replaceSlide(i, patch.Apply(s.deck.Slides[i]))
		return true, nil
	})
}

// AddObject appends obj on top of the current slide under a new id.
// Any id set on obj is ignored.
func (s *DeckStore) AddObject(obj models.SceneObject) (string, error) {
	if !obj.Type.Valid() {
		return "", fmt.Errorf("%w: %q", models.ErrUnknownObjectType, obj.Type)
	}
	err := s.update(true, func() (bool, error) {
		obj.ID = s.newID()
		slide := s.deck.Slides[s.deck.Current].Clone()
		slide.Objects = append(slide.Objects, obj)
		s.replaceSlide(s.deck.Current, slide)

		logger.Logger.Debug().Str("object_id", obj.ID).Str("type", string(obj.Type)).Msg("Object added")
		return true, nil
	})
	return obj.ID, err
}

// mapObject replaces the object with the given id on the current slide.
// Reports false when no object matches.
func (s *DeckStore) mapObject(id string, fn func(models.SceneObject) models.SceneObject) bool {
	slide := s.deck.Slides[s.deck.Current]
	for i, o := range slide.Objects {
		if o.ID != id {
			continue
		}
		updated := slide.Clone()
		updated.Objects[i] = fn(o)
		updated.Objects[i].ID = id
		s.replaceSlide(s.deck.Current, updated)
		return true
	}
	return false
}

// UpdateObject merges patch into the object on the current slide
func (s *DeckStore) UpdateObject(id string, patch models.ObjectPatch) error {
	return s.update(true, func() (bool, error) {
		return s.mapObject(id, patch.Apply), nil
	})
}

// UpdateObjectData merges patch into the object's payload only
func (s *DeckStore) UpdateObjectData(id string, patch models.DataPatch) error {
	return s.update(true, func() (bool, error) {
		return s.mapObject(id, func(o models.SceneObject) models.SceneObject {
			o.Data = patch.Apply(o.Data)
			return o
		}), nil
	})
}

// RemoveObject drops the object from the current slide
func (s *DeckStore) RemoveObject(id string) error {
	return s.update(true, func() (bool, error) {
		return s.removeObjects(models.Selection{id}), nil
	})
}

// RemoveSelection drops every selected object from the current slide and
// clears the selection
func (s *DeckStore) RemoveSelection() error {
	return s.update(true, func() (bool, error) {
		if len(s.deck.Selection) == 0 {
			return false, nil
		}
		s.removeObjects(s.deck.Selection)
		s.deck.Selection = models.Selection{}
		return true, nil
	})
}

// removeObjects must be called with lock held
func (s *DeckStore) removeObjects(ids models.Selection) bool {
	slide := s.deck.Slides[s.deck.Current]
	kept := make([]models.SceneObject, 0, len(slide.Objects))
	for _, o := range slide.Objects {
		if !ids.Contains(o.ID) {
			kept = append(kept, o)
		}
	}
	if len(kept) == len(slide.Objects) {
		return false
	}
	updated := slide.Clone()
	updated.Objects = kept
	s.replaceSlide(s.deck.Current, updated)
	return true
}

// MoveForward raises the object one step in z-order
func (s *DeckStore) MoveForward(id string) error {
	return s.update(true, func() (bool, error) {
		return s.swapObject(id, 1), nil
	})
}

// MoveBackward lowers the object one step in z-order
func (s *DeckStore) MoveBackward(id string) error {
	return s.update(true, func() (bool, error) {
		return s.swapObject(id, -1), nil
	})
}

// swapObject exchanges the object with its neighbour at offset step.
// Reports false at the list boundary or when the id is absent.
func (s *DeckStore) swapObject(id string, step int) bool {
	slide := s.deck.Slides[s.deck.Current]
	for i, o := range slide.Objects {
		if o.ID != id {
			continue
		}
		j := i + step
		if j < 0 || j >= len(slide.Objects) {
			return false
		}
		updated := slide.Clone()
		updated.Objects[i], updated.Objects[j] = updated.Objects[j], updated.Objects[i]
		s.replaceSlide(s.deck.Current, updated)
		return true
	}
	return false
}

// Select toggles id in the selection, see models.Selection.Toggle.
// It returns the selection the toggle produced.
func (s *DeckStore) Select(id string, additive bool) models.Selection {
	var selection models.Selection
	_ = s.update(false, func() (bool, error) {
		s.deck.Selection = s.deck.Selection.Toggle(id, additive)
		selection = append(models.Selection{}, s.deck.Selection...)
		return true, nil
	})
	return selection
}

func (s *DeckStore) ClearSelection() {
	_ = s.update(false, func() (bool, error) {
		s.deck.Selection = models.Selection{}
		return true, nil
	})
}

func (s *DeckStore) SetTitle(title string) error {
	return s.update(true, func() (bool, error) {
		s.deck.Title = title
		return true, nil
	})
}

// Save writes the title and slides to the sink
func (s *DeckStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save()
}

// save must be called with lock held
func (s *DeckStore) save() error {
	data, err := json.Marshal(s.deck.Document())
	if err != nil {
		return fmt.Errorf("failed to marshal deck: %w", err)
	}
	if err := s.sink.Write(s.key, data); err != nil {
		logger.Logger.Error().Err(err).Str("key", s.key).Msg("Failed to persist deck")
		return fmt.Errorf("failed to persist deck: %w", err)
	}
	return nil
}

// persistedDeck distinguishes a missing title from an empty one
type persistedDeck struct {
	Title  *string        `json:"title"`
	Slides []models.Slide `json:"slides"`
}

// Load replaces title and slides with the sink's copy, resetting the
// current slide to 0 and clearing the selection. Absent or malformed data
// leaves the state untouched. The error is only set when the sink fails.
func (s *DeckStore) Load() (LoadResult, error) {
	result := LoadAbsent
	err := s.update(false, func() (bool, error) {
		raw, err := s.sink.Read(s.key)
		if err != nil {
			return false, fmt.Errorf("failed to read deck: %w", err)
		}
		if len(raw) == 0 {
			return false, nil
		}

		var doc persistedDeck
		if err := json.Unmarshal(raw, &doc); err != nil {
			logger.Logger.Warn().Err(err).Str("key", s.key).Msg("Ignoring malformed persisted deck")
			result = LoadMalformed
			return false, nil
		}
		if len(doc.Slides) == 0 {
			logger.Logger.Warn().Str("key", s.key).Msg("Ignoring persisted deck without slides")
			result = LoadMalformed
			return false, nil
		}

		title := models.DefaultTitle
		if doc.Title != nil {
			title = *doc.Title
		}
		used := make(map[string]bool)
		slideIDs := make(map[string]bool)
		slides := make([]models.Slide, len(doc.Slides))
		for i, slide := range doc.Slides {
			if slide.ID == "" || slideIDs[slide.ID] {
				slide.ID = s.newID()
			}
			slideIDs[slide.ID] = true
			slide.Objects = s.adoptObjects(slide.Objects, used)
			slides[i] = slide
		}

		s.deck = models.Deck{
			Title:     title,
			Slides:    slides,
			Current:   0,
			Selection: models.Selection{},
		}
		result = LoadRestored
		logger.Logger.Info().Int("slides", len(slides)).Str("key", s.key).Msg("Deck restored")
		return true, nil
	})
	return result, err
}

// Reset replaces the deck with a single blank slide titled "Untitled Deck"
func (s *DeckStore) Reset() error {
	return s.update(true, func() (bool, error) {
		s.deck = s.freshDeck()
		return true, nil
	})
}

// Import replaces the deck with doc: the first slide overwrites the blank
// slide a reset leaves behind and the rest are appended, so current ends on
// the last imported slide. The result is persisted once.
func (s *DeckStore) Import(doc models.Document) error {
	return s.update(true, func() (bool, error) {
		s.deck = s.freshDeck()
		s.deck.Title = doc.Title
		for i, slide := range doc.Slides {
			if i == 0 {
				s.replaceSlide(0, s.seedSlide(s.deck.Slides[0], slide, s.usedObjectIDs(0)))
				continue
			}
			s.addSlide(&slide)
		}
		logger.Logger.Info().Int("slides", len(s.deck.Slides)).Msg("Deck imported")
		return true, nil
	})
}
