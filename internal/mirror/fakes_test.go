package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/osse101/calsync/internal/domain"
	"github.com/osse101/calsync/internal/event"
	"github.com/osse101/calsync/internal/repository"
)

type fakeGateway struct {
	mu        sync.Mutex
	events    map[string]*domain.RemoteEvent
	seq       int
	creates   []domain.EventInput
	updates   int
	deletes   int
	gets      int
	createErr error
	updateErr error
	deleteErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{events: make(map[string]*domain.RemoteEvent)}
}

func (g *fakeGateway) CreateEvent(ctx context.Context, userID, calendarID string, in domain.EventInput) (*domain.RemoteEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates = append(g.creates, in)
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	evt := &domain.RemoteEvent{
		ID:         fmt.Sprintf("evt-%d", g.seq),
		CalendarID: calendarID,
		Summary:    in.Summary,
		Start:      in.Start,
		End:        in.End,
		Status:     domain.EventStatusConfirmed,
		Recurrence: in.Recurrence,
	}
	g.events[evt.ID] = evt
	return evt, nil
}

func (g *fakeGateway) UpdateEvent(ctx context.Context, userID, calendarID, eventID string, in domain.EventInput) (*domain.RemoteEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates++
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	evt, ok := g.events[eventID]
	if !ok {
		return nil, domain.ErrRemoteNotFound
	}
	evt.Summary, evt.Start, evt.End = in.Summary, in.Start, in.End
	return evt, nil
}

func (g *fakeGateway) DeleteEvent(ctx context.Context, userID, calendarID, eventID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.deletes++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	if _, ok := g.events[eventID]; !ok {
		return domain.ErrRemoteNotFound
	}
	delete(g.events, eventID)
	return nil
}

func (g *fakeGateway) GetEvent(ctx context.Context, userID, calendarID, eventID string) (*domain.RemoteEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gets++
	evt, ok := g.events[eventID]
	if !ok {
		return nil, domain.ErrRemoteNotFound
	}
	cp := *evt
	return &cp, nil
}

func (g *fakeGateway) put(evt domain.RemoteEvent) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events[evt.ID] = &evt
}

func (g *fakeGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.events)
}

type fakeIntegrations struct {
	integration *domain.Integration
	err         error
}

func (f *fakeIntegrations) GetActive(ctx context.Context, userID string) (*domain.Integration, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.integration, nil
}

type fakeLinks struct {
	mu        sync.Mutex
	links     map[string]domain.EventLink
	deletes   int
	upsertErr error
}

func newFakeLinks() *fakeLinks {
	return &fakeLinks{links: make(map[string]domain.EventLink)}
}

func (f *fakeLinks) GetByTaskID(ctx context.Context, taskID string) (*domain.EventLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[taskID]
	if !ok {
		return nil, domain.ErrEventLinkNotFound
	}
	return &l, nil
}

func (f *fakeLinks) GetByEventID(ctx context.Context, userID, eventID string) (*domain.EventLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.UserID == userID && l.EventID == eventID {
			return &l, nil
		}
	}
	return nil, domain.ErrEventLinkNotFound
}

func (f *fakeLinks) Upsert(ctx context.Context, link *domain.EventLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.links[link.TaskID] = *link
	return nil
}

func (f *fakeLinks) UpdateSyncHash(ctx context.Context, taskID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[taskID]
	if !ok {
		return domain.ErrEventLinkNotFound
	}
	l.SyncHash = hash
	f.links[taskID] = l
	return nil
}

func (f *fakeLinks) DeleteByTaskID(ctx context.Context, taskID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[taskID]; !ok {
		return false, nil
	}
	delete(f.links, taskID)
	f.deletes++
	return true, nil
}

func (f *fakeLinks) ListByCalendar(ctx context.Context, userID, calendarID string) ([]domain.EventLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.EventLink
	for _, l := range f.links {
		if l.UserID == userID && l.CalendarID == calendarID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLinks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.links)
}

type fakeChannels struct {
	channels map[string]domain.WebhookChannel
}

func (f *fakeChannels) Create(ctx context.Context, ch *domain.WebhookChannel) error {
	f.channels[ch.ChannelID] = *ch
	return nil
}

func (f *fakeChannels) GetByChannelID(ctx context.Context, channelID string) (*domain.WebhookChannel, error) {
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, domain.ErrChannelNotFound
	}
	return &ch, nil
}

func (f *fakeChannels) ListByIntegration(ctx context.Context, integrationID string) ([]domain.WebhookChannel, error) {
	return nil, nil
}

func (f *fakeChannels) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]domain.WebhookChannel, error) {
	return nil, nil
}

func (f *fakeChannels) DeleteByChannelID(ctx context.Context, channelID string) error {
	delete(f.channels, channelID)
	return nil
}

func (f *fakeChannels) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeTasks struct {
	mu      sync.Mutex
	changes []repository.TaskChange
	missing bool
}

func (f *fakeTasks) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (f *fakeTasks) ApplyRemoteChange(ctx context.Context, change repository.TaskChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return domain.ErrTaskNotFound
	}
	f.changes = append(f.changes, change)
	return nil
}

func (f *fakeTasks) applied() []repository.TaskChange {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.TaskChange(nil), f.changes...)
}

type tokenVerifier struct{}

func (tokenVerifier) Verify(userID, channelID, token string) bool {
	return token == userID
}

type recordingBus struct {
	*event.MemoryBus
	mu    sync.Mutex
	types []event.Type
}

func newRecordingBus() *recordingBus {
	b := &recordingBus{MemoryBus: event.NewMemoryBus()}
	for _, t := range event.CalendarTypes {
		b.Subscribe(t, func(ctx context.Context, e event.Event) error {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.types = append(b.types, e.Type)
			return nil
		})
	}
	return b
}

func (b *recordingBus) published() []event.Type {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]event.Type(nil), b.types...)
}

type harness struct {
	engine   *Engine
	gateway  *fakeGateway
	links    *fakeLinks
	channels *fakeChannels
	tasks    *fakeTasks
	ints     *fakeIntegrations
	bus      *recordingBus
}

const testUser = "user-1"

func newHarness(loc *time.Location) *harness {
	h := &harness{
		gateway:  newFakeGateway(),
		links:    newFakeLinks(),
		channels: &fakeChannels{channels: make(map[string]domain.WebhookChannel)},
		tasks:    &fakeTasks{},
		ints: &fakeIntegrations{integration: &domain.Integration{
			ID: "int-1", UserID: testUser, Provider: domain.ProviderGoogleCalendar, IsActive: true,
		}},
		bus: newRecordingBus(),
	}
	h.engine = NewEngine(h.gateway, h.ints, h.links, h.channels, h.tasks, tokenVerifier{}, h.bus, loc)
	return h
}
