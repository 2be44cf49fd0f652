package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SaloniGupta6/Steel-Guardian/internal/clock"
	"github.com/SaloniGupta6/Steel-Guardian/internal/domain"
	"github.com/SaloniGupta6/Steel-Guardian/internal/metrics"
	"github.com/SaloniGupta6/Steel-Guardian/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultIDAttempts = 5
	// saveAttempts bounds reload-and-reapply cycles after a lost compare-and-set.
	saveAttempts = 3
)

// IDGenerator produces entity identifiers.
type IDGenerator interface {
	Generate(prefix string) (string, error)
}

// EventPublisher receives lifecycle events after they are persisted.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Classifier is the external AI text classifier.
type Classifier interface {
	AnalyzeIncident(ctx context.Context, incident *domain.Incident) (*domain.IncidentAnalysis, error)
	CategorizeSuggestion(ctx context.Context, suggestion *domain.Suggestion) (*domain.SuggestionAnalysis, error)
}

// Deps are the collaborators shared by every lifecycle service.
type Deps struct {
	Clock      clock.Clock
	IDs        IDGenerator
	Events     EventPublisher // optional
	Classifier Classifier     // optional; analyze/categorize return ErrUnavailable without it
	IDAttempts int
	Logger     *zap.Logger
}

// lifecycle carries the plumbing every entity service needs.
type lifecycle struct {
	kind       string
	clock      clock.Clock
	ids        IDGenerator
	events     EventPublisher
	idAttempts int
	logger     *zap.Logger
}

func newLifecycle(kind string, d Deps) lifecycle {
	l := lifecycle{
		kind:       kind,
		clock:      d.Clock,
		ids:        d.IDs,
		events:     d.Events,
		idAttempts: d.IDAttempts,
		logger:     d.Logger,
	}
	if l.clock == nil {
		l.clock = clock.Real{}
	}
	if l.idAttempts <= 0 {
		l.idAttempts = defaultIDAttempts
	}
	if l.logger == nil {
		l.logger = zap.NewNop()
	}
	return l
}

// now is truncated to microseconds so stored and returned values agree with postgres precision.
func (l *lifecycle) now() time.Time {
	return l.clock.Now().UTC().Truncate(time.Microsecond)
}

func (l *lifecycle) newID(prefix string) (string, error) {
	id, err := l.ids.Generate(prefix)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s id: %w", prefix, err)
	}
	return id, nil
}

// createWithRetry generates an id and inserts until the store accepts it.
// Exhausting the attempts yields domain.ErrConflict.
func (l *lifecycle) createWithRetry(ctx context.Context, prefix string, insert func(ctx context.Context, id string) error) (string, error) {
	for attempt := 1; attempt <= l.idAttempts; attempt++ {
		id, err := l.newID(prefix)
		if err != nil {
			return "", err
		}
		err = insert(ctx, id)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrDuplicateID) {
			return "", err
		}
		metrics.RecordIDCollision(prefix)
		l.logger.Warn("Generated id already exists, regenerating",
			zap.String("kind", l.kind),
			zap.String("id", id),
			zap.Int("attempt", attempt),
		)
	}
	return "", fmt.Errorf("%w: no unique %s id after %d attempts", domain.ErrConflict, prefix, l.idAttempts)
}

// publish is best effort: a broker outage never fails a committed change.
func (l *lifecycle) publish(ctx context.Context, eventType, entityID string, actor domain.Actor, data any) {
	metrics.RecordOperation(l.kind, eventType)
	if l.events == nil {
		return
	}
	event := domain.Event{
		Type:       l.kind + "." + eventType,
		EntityKind: l.kind,
		EntityID:   entityID,
		ActorID:    actor.UserID,
		OccurredAt: l.now(),
		Data:       data,
	}
	if err := l.events.Publish(ctx, event); err != nil {
		l.logger.Warn("Failed to publish lifecycle event",
			zap.String("type", event.Type),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
	}
}

// storeError logs unexpected store failures. Domain errors pass through silently.
func (l *lifecycle) storeError(op, id string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	l.logger.Error("Store operation failed",
		zap.String("kind", l.kind),
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err),
	)
	return err
}

// updateWithRetry loads a document, applies a mutation and saves it with a
// version check. A lost race reloads and reapplies; after saveAttempts the
// caller gets domain.ErrConflict. apply errors abort without saving.
func updateWithRetry[T any](
	ctx context.Context,
	l *lifecycle,
	load func(ctx context.Context) (T, error),
	apply func(doc T) error,
	save func(ctx context.Context, doc T) error,
) (T, error) {
	var zero T
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		doc, err := load(ctx)
		if err != nil {
			return zero, err
		}
		if err := apply(doc); err != nil {
			return zero, err
		}
		err = save(ctx, doc)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, repository.ErrStaleVersion) {
			return zero, err
		}
		metrics.RecordVersionConflict(l.kind)
		l.logger.Debug("Concurrent modification, retrying", zap.String("kind", l.kind), zap.Int("attempt", attempt))
	}
	return zero, fmt.Errorf("%w: %s was modified concurrently", domain.ErrConflict, l.kind)
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
