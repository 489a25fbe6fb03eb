package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

type fakeRepository struct {
	mu            sync.Mutex
	users         map[string]*domain.User
	identities    map[string]*domain.Identity
	emailLookups  []string
	putUserErr    error
	ensureCreated int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		users:      make(map[string]*domain.User),
		identities: make(map[string]*domain.Identity),
	}
}

func (f *fakeRepository) GetUserByUID(ctx context.Context, uid string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeRepository) GetUserByName(ctx context.Context, name string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Name == name {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepository) EnsureUser(ctx context.Context, user *domain.User) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.UID]; ok {
		return false, nil
	}
	cp := *user
	f.users[user.UID] = &cp
	f.ensureCreated++
	return true, nil
}

func (f *fakeRepository) PutUser(ctx context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putUserErr != nil {
		return f.putUserErr
	}
	cp := *user
	f.users[user.UID] = &cp
	return nil
}

func (f *fakeRepository) CreateIdentity(ctx context.Context, identity *domain.Identity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.identities {
		if i.Email == identity.Email {
			return errors.New("duplicate email")
		}
	}
	cp := *identity
	f.identities[identity.UID] = &cp
	return nil
}

func (f *fakeRepository) GetIdentityByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailLookups = append(f.emailLookups, email)
	for _, i := range f.identities {
		if i.Email == email {
			cp := *i
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepository) GetIdentityByUID(ctx context.Context, uid string) (*domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.identities[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *fakeRepository) UpdateIdentityDisplayName(ctx context.Context, uid string, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.identities[uid]
	if !ok {
		return domain.ErrNotFound
	}
	i.DisplayName = displayName
	return nil
}

type fakeMailQueue struct {
	mu       sync.Mutex
	messages []domain.MailMessage
	err      error
}

func (f *fakeMailQueue) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}
