package exercises

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/2beens/skischeduler/internal/apperr"
	"github.com/2beens/skischeduler/internal/store"
	"github.com/2beens/skischeduler/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

var ErrExerciseNotFound = apperr.NotFound("exercise")

type Repo struct {
	store *store.Store
	// ability to inject id generator (for unit testing)
	NewID func() string
}

func NewRepo(s *store.Store) *Repo {
	return &Repo{
		store: s,
		NewID: uuid.NewString,
	}
}

func (r *Repo) List(ctx context.Context) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return store.Load[[]Exercise](ctx, r.store, store.Exercises)
}

func (r *Repo) Get(ctx context.Context, id string) (_ Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.get")
	span.SetAttributes(attribute.String("exercise.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exercises, err := store.Load[[]Exercise](ctx, r.store, store.Exercises)
	if err != nil {
		return Exercise{}, err
	}

	i := slices.IndexFunc(exercises, func(e Exercise) bool { return e.ID == id })
	if i < 0 {
		return Exercise{}, ErrExerciseNotFound
	}
	return exercises[i], nil
}

// FindByName returns all exercises with the given name, case-insensitive.
// Names are not unique.
func (r *Repo) FindByName(ctx context.Context, name string) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.findByName")
	span.SetAttributes(attribute.String("exercise.name", name))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	exercises, err := store.Load[[]Exercise](ctx, r.store, store.Exercises)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	found := []Exercise{}
	for _, e := range exercises {
		if strings.EqualFold(strings.TrimSpace(e.Name), name) {
			found = append(found, e)
		}
	}
	return found, nil
}

func (r *Repo) Create(ctx context.Context, name, description string) (_ Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name = strings.TrimSpace(name)
	if name == "" {
		return Exercise{}, apperr.Validation("exercise name is required")
	}

	exercise := Exercise{
		ID:          r.NewID(),
		Name:        name,
		Description: NormalizeDescription(description),
	}
	span.SetAttributes(attribute.String("exercise.id", exercise.ID))

	if err := store.Mutate(ctx, r.store, store.Exercises, func(exercises *[]Exercise) error {
		*exercises = append(*exercises, exercise)
		return nil
	}); err != nil {
		return Exercise{}, err
	}

	log.Debugf("exercise created: [%s] %s", exercise.ID, exercise.Name)
	return exercise, nil
}

// Update replaces name and description of the exercise, keeping its id
func (r *Repo) Update(ctx context.Context, id, name, description string) (_ Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.update")
	span.SetAttributes(attribute.String("exercise.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name = strings.TrimSpace(name)
	if name == "" {
		return Exercise{}, apperr.Validation("exercise name is required")
	}

	var updated Exercise
	if err := store.Mutate(ctx, r.store, store.Exercises, func(exercises *[]Exercise) error {
		i := slices.IndexFunc(*exercises, func(e Exercise) bool { return e.ID == id })
		if i < 0 {
			return ErrExerciseNotFound
		}
		(*exercises)[i].Name = name
		(*exercises)[i].Description = NormalizeDescription(description)
		updated = (*exercises)[i]
		return nil
	}); err != nil {
		return Exercise{}, err
	}

	return updated, nil
}

// Delete removes the exercise. Sessions and schedules referencing it by name keep the name.
func (r *Repo) Delete(ctx context.Context, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.delete")
	span.SetAttributes(attribute.String("exercise.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return store.Mutate(ctx, r.store, store.Exercises, func(exercises *[]Exercise) error {
		i := slices.IndexFunc(*exercises, func(e Exercise) bool { return e.ID == id })
		if i < 0 {
			return ErrExerciseNotFound
		}
		*exercises = slices.Delete(*exercises, i, i+1)
		return nil
	})
}

// AssignMissingIDs gives an id to every legacy exercise stored without one.
// Returns the number of exercises updated.
func (r *Repo) AssignMissingIDs(ctx context.Context) (assigned int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.exercises.assignMissingIDs")
	defer func() {
		span.SetAttributes(attribute.Int("assigned", assigned))
		tracing.EndSpanWithErrCheck(span, err)
	}()

	errNothingToDo := apperr.Validation("no exercises without id")
	err = store.Mutate(ctx, r.store, store.Exercises, func(exercises *[]Exercise) error {
		for i := range *exercises {
			if strings.TrimSpace((*exercises)[i].ID) == "" {
				(*exercises)[i].ID = r.NewID()
				assigned++
			}
		}
		if assigned == 0 {
			// skip the write
			return errNothingToDo
		}
		return nil
	})
	if errors.Is(err, errNothingToDo) {
		return 0, nil
	}
	return assigned, err
}
