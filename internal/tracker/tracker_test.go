package tracker

import (
	"context"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

func (f *fixture) addJordan(t *testing.T, creator *domain.User, assigned ...string) string {
	t.Helper()
	id, err := f.svc.Add(context.Background(), creator, &domain.Candidate{
		Name:          "Jordan",
		Email:         "jordan@example.com",
		AssignedUsers: assigned,
	})
	require.NoError(t, err)
	return id
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.Add(ctx, alice, &domain.Candidate{
		Name:          "<script>x()</script> Jordan ",
		Email:         "jordan@example.com",
		Role:          "Backend<script>alert(1)</script>",
		CreatedBy:     "someone-else",
		AssignedUsers: []string{bob.UID, alice.UID, bob.UID},
	})
	require.NoError(t, err)

	c, err := f.svc.Get(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, "Jordan", c.Name)
	assert.Equal(t, "Backend", c.Role)
	assert.Equal(t, alice.UID, c.CreatedBy)
	assert.Equal(t, domain.StatusPending, c.Status)
	assert.Equal(t, []string{alice.UID, bob.UID}, c.AssignedUsers)

	events, err := f.svc.ListHistory(ctx, alice, id)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.ActionStatusUpdated, events[0].Action)
	assert.Equal(t, "Candidate profile for Jordan was created", events[0].Details)
}

func TestAdd_ValidationNeverTouchesStore(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name      string
		candidate *domain.Candidate
	}{
		{"missing name", &domain.Candidate{Email: "x@example.com"}},
		{"missing email", &domain.Candidate{Name: "X"}},
		{"name only script", &domain.Candidate{Name: "<script>1</script>", Email: "x@example.com"}},
		{"bad status", &domain.Candidate{Name: "X", Email: "x@example.com", Status: "archived"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Add(context.Background(), alice, tt.candidate)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Equal(t, 0, f.store.writeCount())
}

func TestList_OnlyAssignedCandidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	onlyAlice := f.addJordan(t, alice)
	shared := f.addJordan(t, alice, bob.UID)
	bobs := f.addJordan(t, bob)

	for _, u := range []*domain.User{alice, bob, carol} {
		list, err := f.svc.List(ctx, u.UID)
		require.NoError(t, err)

		for _, id := range []string{onlyAlice, shared, bobs} {
			c, err := f.store.GetCandidate(ctx, id)
			require.NoError(t, err)
			listed := slices.ContainsFunc(list, func(x *domain.Candidate) bool { return x.ID == id })
			assert.Equal(t, c.IsAssigned(u.UID), listed, "user %s candidate %s", u.Name, id)
		}
	}
}

func TestGet_DeniedForUnassigned(t *testing.T) {
	f := newFixture(t)
	id := f.addJordan(t, alice)

	_, err := f.svc.Get(context.Background(), bob, id)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Get(context.Background(), alice, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice, bob.UID)

	_, err := f.svc.PostNote(ctx, alice, id, "hello @Bob")
	require.NoError(t, err)

	// 被分配的用户不是创建者，不能删除
	require.ErrorIs(t, f.svc.Remove(ctx, bob, id), domain.ErrForbidden)

	require.NoError(t, f.svc.Remove(ctx, alice, id))

	for _, u := range []*domain.User{alice, bob} {
		list, err := f.svc.List(ctx, u.UID)
		require.NoError(t, err)
		assert.False(t, slices.ContainsFunc(list, func(c *domain.Candidate) bool { return c.ID == id }))
	}

	notes, err := f.store.ListNotes(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, notes)

	// 通知保留，但点击后无法解析
	ns := f.store.notificationsFor(bob.UID)
	require.Len(t, ns, 1)
	_, err = f.svc.ResolveNotification(ctx, bob, ns[0].ID)
	assert.ErrorIs(t, err, domain.ErrUnresolvable)
}

func TestSetStatus_HistoryObservedBySubscriber(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)

	var mu sync.Mutex
	var latest []*domain.HistoryEvent
	sub, err := f.svc.SubscribeHistory(ctx, alice, id, func(events []*domain.HistoryEvent) {
		mu.Lock()
		latest = events
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Cancel()

	require.NoError(t, f.svc.SetStatus(ctx, alice, id, domain.StatusActive))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, domain.ActionStatusUpdated, latest[0].Action)
	assert.Equal(t, "Status changed from pending to active", latest[0].Details)
	assert.Equal(t, alice.Name, latest[0].AuthorName)
}

func TestSetStatus_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)

	assert.ErrorIs(t, f.svc.SetStatus(ctx, bob, id, domain.StatusActive), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.SetStatus(ctx, alice, id, "archived"), domain.ErrValidation)

	c, err := f.store.GetCandidate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, c.Status)
}

func TestSetStatus_AuditFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)

	f.store.historyErr = errStoreDown
	require.NoError(t, f.svc.SetStatus(ctx, alice, id, domain.StatusHired))

	c, err := f.store.GetCandidate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHired, c.Status)
}

func TestGrantAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)

	assigned, err := f.svc.GrantAccess(ctx, alice, id, []string{bob.UID, carol.UID, "ghost", alice.UID})
	require.NoError(t, err)
	assert.Equal(t, []string{alice.UID, bob.UID, carol.UID}, assigned)

	events, err := f.svc.ListHistory(ctx, alice, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionAccessGranted, events[0].Action)
	assert.Equal(t, "Gave access to Bob, Carol", events[0].Details)

	// 没有新增用户时不写审计记录
	_, err = f.svc.GrantAccess(ctx, bob, id, []string{carol.UID})
	require.NoError(t, err)
	again, err := f.svc.ListHistory(ctx, alice, id)
	require.NoError(t, err)
	assert.Len(t, again, len(events))

	_, err = f.svc.GrantAccess(ctx, al, id, []string{al.UID})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestNotes_DeniedForUnassigned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)
	_, err := f.svc.PostNote(ctx, alice, id, "strong candidate")
	require.NoError(t, err)

	called := false
	sub, err := f.svc.SubscribeNotes(ctx, bob, id, func([]*domain.Note) { called = true })
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Nil(t, sub)
	assert.False(t, called)

	notes, err := f.svc.ListNotes(ctx, bob, id)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Nil(t, notes)

	_, err = f.svc.NotesPage(ctx, bob, id, 10, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.PostNote(ctx, bob, id, "sneaky")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPostNote_MentionCreatesNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, bob, alice.UID)

	noteID, err := f.svc.PostNote(ctx, bob, id, "please review @Alice, thanks @Bob")
	require.NoError(t, err)

	ns := f.store.notificationsFor(alice.UID)
	require.Len(t, ns, 1)
	assert.False(t, ns[0].IsRead)
	assert.Equal(t, noteID, ns[0].NoteID)
	assert.Equal(t, "Jordan", ns[0].CandidateName)

	// 作者提及自己不会收到通知，名字是其他名字前缀的用户也不会
	assert.Empty(t, f.store.notificationsFor(bob.UID))
	assert.Empty(t, f.store.notificationsFor(al.UID))

	require.Len(t, f.mail.messages, 1)
	assert.Equal(t, domain.MailTypeMention, f.mail.messages[0].Type)
	assert.Equal(t, alice.Email, f.mail.messages[0].To)

	note, err := f.store.GetNote(ctx, id, noteID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.UID, bob.UID}, note.Mentions)
}

func TestPostNote_LongPreviewIsTruncated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, bob)

	_, err := f.svc.PostNote(ctx, bob, id, "@Alice "+strings.Repeat("x", 200))
	require.NoError(t, err)

	ns := f.store.notificationsFor(alice.UID)
	require.Len(t, ns, 1)
	assert.Len(t, []rune(ns[0].MessagePreview), 100)
	assert.True(t, strings.HasSuffix(ns[0].MessagePreview, "..."))
}

func TestPostNote_EmptyAfterSanitize(t *testing.T) {
	f := newFixture(t)
	id := f.addJordan(t, alice)

	_, err := f.svc.PostNote(context.Background(), alice, id, "  <script>alert(1)</script> ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestEditAndRemoveNote_OnlyAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice, bob.UID)

	noteID, err := f.svc.PostNote(ctx, alice, id, "original")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.EditNote(ctx, bob, id, noteID, "hijacked"), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.RemoveNote(ctx, bob, id, noteID), domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.EditNote(ctx, carol, id, noteID, "hijacked"), domain.ErrForbidden)

	note, err := f.store.GetNote(ctx, id, noteID)
	require.NoError(t, err)
	assert.Equal(t, "original", note.Text)

	require.NoError(t, f.svc.EditNote(ctx, alice, id, noteID, "edited<script>x</script>"))
	note, err = f.store.GetNote(ctx, id, noteID)
	require.NoError(t, err)
	assert.Equal(t, "edited", note.Text)

	require.NoError(t, f.svc.RemoveNote(ctx, alice, id, noteID))
	_, err = f.store.GetNote(ctx, id, noteID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	events, err := f.svc.ListHistory(ctx, alice, id)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(events), 2)
	assert.Equal(t, domain.ActionNoteDeleted, events[0].Action)
	assert.Equal(t, "A note was deleted", events[0].Details)
	assert.Equal(t, domain.ActionNoteEdited, events[1].Action)
	assert.Equal(t, "A note was edited", events[1].Details)
}

func TestSubscribeNotes_Snapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)

	var mu sync.Mutex
	var snapshots [][]*domain.Note
	sub, err := f.svc.SubscribeNotes(ctx, alice, id, func(notes []*domain.Note) {
		mu.Lock()
		snapshots = append(snapshots, notes)
		mu.Unlock()
	})
	require.NoError(t, err)

	_, err = f.svc.PostNote(ctx, alice, id, "first")
	require.NoError(t, err)
	_, err = f.svc.PostNote(ctx, alice, id, "second")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(snapshots) > 0 && len(snapshots[len(snapshots)-1]) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	last := snapshots[len(snapshots)-1]
	assert.Empty(t, snapshots[0])
	assert.Equal(t, "first", last[0].Text)
	assert.Equal(t, "second", last[1].Text)
	mu.Unlock()

	sub.Cancel()
	sub.Cancel()
	<-sub.Done()
}

func TestNotesPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, alice)

	for _, text := range []string{"n1", "n2", "n3"} {
		_, err := f.svc.PostNote(ctx, alice, id, text)
		require.NoError(t, err)
	}

	page, err := f.svc.NotesPage(ctx, alice, id, 2, "")
	require.NoError(t, err)
	require.Len(t, page.Notes, 2)
	assert.Equal(t, "n3", page.Notes[0].Text)
	assert.Equal(t, "n2", page.Notes[1].Text)
	require.NotEmpty(t, page.NextCursor)

	page, err = f.svc.NotesPage(ctx, alice, id, 2, page.NextCursor)
	require.NoError(t, err)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "n1", page.Notes[0].Text)
	assert.Empty(t, page.NextCursor)

	_, err = f.svc.NotesPage(ctx, alice, id, 0, "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestMarkRead_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, bob)
	_, err := f.svc.PostNote(ctx, bob, id, "@Alice ping")
	require.NoError(t, err)

	ns := f.store.notificationsFor(alice.UID)
	require.Len(t, ns, 1)

	require.NoError(t, f.svc.MarkRead(ctx, alice, ns[0].ID))
	require.NoError(t, f.svc.MarkRead(ctx, alice, ns[0].ID))

	ns = f.store.notificationsFor(alice.UID)
	assert.True(t, ns[0].IsRead)

	// 不能标记别人的通知
	assert.ErrorIs(t, f.svc.MarkRead(ctx, bob, ns[0].ID), domain.ErrNotFound)
}

func TestResolveNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, bob, alice.UID)
	noteID, err := f.svc.PostNote(ctx, bob, id, "@Alice look")
	require.NoError(t, err)

	ns := f.store.notificationsFor(alice.UID)
	require.Len(t, ns, 1)

	res, err := f.svc.ResolveNotification(ctx, alice, ns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, id, res.Candidate.ID)
	assert.Equal(t, noteID, res.HighlightNoteID)
	assert.True(t, f.store.notificationsFor(alice.UID)[0].IsRead)
}

func TestResolveNotification_NotVisible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// alice 被提及，但不在访问列表中
	id := f.addJordan(t, bob)
	_, err := f.svc.PostNote(ctx, bob, id, "@Alice fyi")
	require.NoError(t, err)

	ns := f.store.notificationsFor(alice.UID)
	require.Len(t, ns, 1)

	_, err = f.svc.ResolveNotification(ctx, alice, ns[0].ID)
	assert.ErrorIs(t, err, domain.ErrUnresolvable)
	assert.True(t, f.store.notificationsFor(alice.UID)[0].IsRead)
}

func TestSubscribeNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.addJordan(t, bob)

	var mu sync.Mutex
	var latest []*domain.Notification
	sub, err := f.svc.SubscribeNotifications(ctx, alice, func(ns []*domain.Notification) {
		mu.Lock()
		latest = ns
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Cancel()

	_, err = f.svc.PostNote(ctx, bob, id, "@Alice one")
	require.NoError(t, err)
	_, err = f.svc.PostNote(ctx, bob, id, "@Alice two")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(latest) == 2
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "@Alice two", latest[0].MessagePreview)
}

func TestSuggestMentions(t *testing.T) {
	f := newFixture(t)

	s, err := f.svc.SuggestMentions(context.Background(), "ping @al", 8)
	require.NoError(t, err)
	assert.True(t, s.Active)
	assert.Equal(t, "al", s.Query)
	names := make([]string, 0)
	for _, u := range s.Users {
		names = append(names, u.Name)
	}
	assert.Equal(t, []string{"Alice", "Al"}, names)

	s, err = f.svc.SuggestMentions(context.Background(), "email@al", 8)
	require.NoError(t, err)
	assert.False(t, s.Active)
	assert.Empty(t, s.Users)
}

func TestUpdateAvatar(t *testing.T) {
	f := newFixture(t)

	u, err := f.svc.UpdateAvatar(context.Background(), bob, "https://cdn.example.com/b/avatars/u-bob/1")
	require.NoError(t, err)
	require.NotNil(t, u.AvatarURL)
	assert.Equal(t, "https://cdn.example.com/b/avatars/u-bob/1", *u.AvatarURL)

	// 共享的测试用户不应被修改
	assert.Nil(t, bob.AvatarURL)
}
