package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"SlateBuilder/internal/domain"
	"SlateBuilder/internal/ports"
)

// Persistor writes a finished slate durably. The whole write is one store
// transaction; a transient failure is retried exactly once, immediately,
// from scratch with a fresh slate id. A second failure is surfaced to the
// caller unmodified.
type Persistor struct {
	store  ports.SlateStore
	newID  func() string
	logger *slog.Logger
}

// NewPersistor wires the transactional store. newID is overridable for
// tests; nil means UUID generation.
func NewPersistor(store ports.SlateStore, newID func() string, logger *slog.Logger) *Persistor {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Persistor{store: store, newID: newID, logger: logger}
}

// Persist records the selection as a slate with contiguous 1-based item
// positions matching selection order, plus one impression event per item.
func (p *Persistor) Persist(ctx context.Context, userID string, selection []domain.Scored, meta domain.SlateMeta) (domain.SlateResult, error) {
	attempt := func() (domain.SlateResult, error) {
		slateID := p.newID()

		items := make([]domain.SlateItem, 0, len(selection))
		events := make([]domain.ImpressionEvent, 0, len(selection))
		results := make([]domain.SlateItemResult, 0, len(selection))
		for i, sel := range selection {
			items = append(items, domain.SlateItem{
				SlateID:   slateID,
				Position:  i + 1,
				ContentID: sel.ID,
				Score:     sel.Score,
				Reasons:   sel.Reasons,
			})
			events = append(events, domain.ImpressionEvent{
				ID:        p.newID(),
				UserID:    userID,
				ContentID: sel.ID,
				SlateID:   slateID,
				Reasons:   sel.Reasons,
			})
			results = append(results, domain.SlateItemResult{
				ContentID: sel.ID,
				Score:     sel.Score,
				Reasons:   sel.Reasons,
			})
		}

		slate := domain.Slate{ID: slateID, UserID: userID, Meta: meta}
		if err := p.store.CreateSlate(ctx, slate, items, events); err != nil {
			return domain.SlateResult{}, err
		}
		return domain.SlateResult{SlateID: slateID, Items: results}, nil
	}

	result, err := attempt()
	if err == nil {
		return result, nil
	}
	if !ports.IsTransient(err) {
		return domain.SlateResult{}, err
	}

	p.warn("slate write failed, retrying once", "user", userID, "error", err)
	return attempt()
}

// PersistEmpty records an analytics-only slate for a user whose candidate
// pool was empty. The same single-retry rule applies to the slate row.
func (p *Persistor) PersistEmpty(ctx context.Context, userID string, meta domain.SlateMeta) (domain.SlateResult, error) {
	meta.Empty = true
	result, err := p.Persist(ctx, userID, nil, meta)
	if err != nil {
		return domain.SlateResult{}, err
	}
	result.Items = []domain.SlateItemResult{}
	return result, nil
}

func (p *Persistor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
