package events_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/domain/registrations"
	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/storage/memory"
)

type fakeFiles struct {
	mu       sync.Mutex
	seq      int
	saved    []string
	deleted  []string
	failSave map[filestore.Kind]error
	failDel  map[string]error
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{failSave: map[filestore.Kind]error{}, failDel: map[string]error{}}
}

func (f *fakeFiles) Save(_ context.Context, kind filestore.Kind, upload filestore.Upload) (filestore.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failSave[kind]; err != nil {
		return filestore.File{}, err
	}
	data, err := io.ReadAll(upload.Content)
	if err != nil {
		return filestore.File{}, err
	}
	f.seq++
	name := fmt.Sprintf("f%02d-%s", f.seq, upload.Filename)
	path := string(kind) + "/" + name
	f.saved = append(f.saved, path)
	return filestore.File{Name: name, Path: path, Size: int64(len(data))}, nil
}

func (f *fakeFiles) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return f.failDel[path]
}

func (f *fakeFiles) deletedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []email.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg email.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *recordingNotifier) messages() []email.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]email.Message(nil), n.msgs...)
}

type recordingMailer struct {
	mu       sync.Mutex
	attempts []email.Message
	failFor  map[string]bool
}

func (m *recordingMailer) Send(_ context.Context, msg email.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, msg)
	if m.failFor[msg.To] {
		return errors.New("smtp: connection refused")
	}
	return nil
}

func (m *recordingMailer) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.attempts))
	for _, msg := range m.attempts {
		out = append(out, msg.To)
	}
	return out
}

type fakeGenerator struct {
	failFor map[string]bool
}

func (g fakeGenerator) Generate(recipient, eventName, eventDate string) ([]byte, error) {
	if g.failFor[recipient] {
		return nil, errors.New("font missing")
	}
	return []byte("%PDF-1.4 " + recipient + " " + eventName + " " + eventDate), nil
}

type fakeDirectory struct {
	admin     *accounts.Account
	convenors map[string]*accounts.Account
}

func (d fakeDirectory) FindAdmin(context.Context) (*accounts.Account, error) {
	if d.admin == nil {
		return nil, accounts.ErrNotFound
	}
	return d.admin, nil
}

func (d fakeDirectory) FindConvenor(_ context.Context, committeeID string) (*accounts.Account, error) {
	if a, ok := d.convenors[committeeID]; ok {
		return a, nil
	}
	return nil, accounts.ErrNotFound
}

type recordingCompressor struct {
	mu    sync.Mutex
	pairs [][2]string
}

func (c *recordingCompressor) CompressPhoto(_ context.Context, source, target string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pairs = append(c.pairs, [2]string{source, target})
	return nil
}

type fixture struct {
	svc        *events.Service
	repo       *memory.EventRepository
	regs       *memory.RegistrationRepository
	files      *fakeFiles
	notifier   *recordingNotifier
	mailer     *recordingMailer
	generator  fakeGenerator
	compressor *recordingCompressor
}

func newFixture(t *testing.T, opts ...func(*events.Deps)) *fixture {
	t.Helper()
	f := &fixture{
		repo:       memory.NewEventRepository(),
		regs:       memory.NewRegistrationRepository(),
		files:      newFakeFiles(),
		notifier:   &recordingNotifier{},
		mailer:     &recordingMailer{failFor: map[string]bool{}},
		generator:  fakeGenerator{failFor: map[string]bool{}},
		compressor: &recordingCompressor{},
	}
	deps := events.Deps{
		Files:        f.files,
		Notifier:     f.notifier,
		Mailer:       f.mailer,
		Certificates: f.generator,
		Directory: fakeDirectory{
			admin: &accounts.Account{ID: "admin", Email: "admin@college.edu", Role: auth.RoleAdmin},
			convenors: map[string]*accounts.Account{
				"c1": {ID: "conv", Email: "convenor@college.edu", Role: auth.RoleConvenor},
			},
		},
		Registrations: f.regs,
		Photos:        f.compressor,
		Now:           func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = events.NewService(f.repo, deps, zerolog.Nop())
	return f
}

func upload(name string) *filestore.Upload {
	return &filestore.Upload{Filename: name, Content: strings.NewReader("content of " + name)}
}

func createInput(name string) events.CreateInput {
	return events.CreateInput{
		Name:        name,
		Venue:       "Main Auditorium",
		StartDate:   "2025-03-12",
		EndDate:     "2025-03-13",
		Description: "An overnight hackathon.",
		Committee:   events.RefInput{ID: "c1", Name: "Coding Club"},
		CreatedBy:   events.RefInput{ID: "u1", Name: "Ravi"},
		Banner:      upload("banner.png"),
		Order:       upload("order.pdf"),
	}
}

func (f *fixture) createEvent(t *testing.T, name string) *events.Event {
	t.Helper()
	event, err := f.svc.Create(context.Background(), createInput(name))
	require.NoError(t, err)
	return event
}

func (f *fixture) register(t *testing.T, eventID, name, addr, regNo string) {
	t.Helper()
	_, err := f.regs.Create(context.Background(), registrations.Registration{
		ID:    regNo + "-" + eventID,
		Type:  registrations.TypeStudent,
		Name:  name,
		Email: addr,
		RegNo: regNo,
		Event: registrations.EventRef{ID: eventID},
	})
	require.NoError(t, err)
}
