package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/lalith-99/echohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(msgs []models.Message) []int {
	out := make([]int, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)

	_, err := f.svc.SendMessage(ctx, ada.Token, ch, "")
	assertBadRequest(t, err)
	_, err = f.svc.SendMessage(ctx, ada.Token, ch, strings.Repeat("a", 1001))
	assertBadRequest(t, err)
	_, err = f.svc.SendMessage(ctx, ada.Token, 99, "hi")
	assertBadRequest(t, err)
	_, err = f.svc.SendMessage(ctx, bob.Token, ch, "hi")
	assertForbidden(t, err)

	_, err = f.svc.SendMessage(ctx, ada.Token, ch, strings.Repeat("a", 1000))
	require.NoError(t, err)
}

func TestMessageIDsAreGlobal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	dm := f.dm(t, ada, bob.AuthUserID)

	first := f.send(t, ada, ch, "one")
	second, err := f.svc.SendDM(ctx, ada.Token, dm, "two")
	require.NoError(t, err)
	third := f.send(t, ada, ch, "three")

	assert.Equal(t, []int{1, 2, 3}, []int{first, second, third})
}

func TestPagination(t *testing.T) {
	f := newFixture(t)
	ada := f.ada(t)
	ch := f.channel(t, ada, "general", true)

	var sent []int
	for i := range 52 {
		sent = append(sent, f.send(t, ada, ch, fmt.Sprintf("msg %d", i)))
	}

	p, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	require.Len(t, p.Messages, 50)
	assert.Equal(t, 0, p.Start)
	assert.Equal(t, 50, p.End)
	assert.Equal(t, "msg 51", p.Messages[0].Text)
	assert.Equal(t, "msg 2", p.Messages[49].Text)

	p, err = f.svc.ChannelMessages(ada.Token, ch, 50)
	require.NoError(t, err)
	assert.Equal(t, []int{sent[1], sent[0]}, ids(p.Messages))
	assert.Equal(t, -1, p.End)

	p, err = f.svc.ChannelMessages(ada.Token, ch, 52)
	require.NoError(t, err)
	assert.Empty(t, p.Messages)
	assert.Equal(t, -1, p.End)

	_, err = f.svc.ChannelMessages(ada.Token, ch, 53)
	assertBadRequest(t, err)
	_, err = f.svc.ChannelMessages(ada.Token, ch, -1)
	assertBadRequest(t, err)
}

func TestEmptyChannelPage(t *testing.T) {
	f := newFixture(t)
	ada := f.ada(t)
	ch := f.channel(t, ada, "general", true)

	p, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	assert.Empty(t, p.Messages)
	assert.NotNil(t, p.Messages)
	assert.Equal(t, -1, p.End)
}

func TestEditToEmptyRemoves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.ada(t)
	ch := f.channel(t, ada, "general", true)
	keep := f.send(t, ada, ch, "keep")
	gone := f.send(t, ada, ch, "gone")

	require.NoError(t, f.svc.EditMessage(ctx, ada.Token, gone, ""))

	p, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{keep}, ids(p.Messages))
	assert.Equal(t, 1, f.svc.state.Workspace().MessagesExist.Latest())

	assertBadRequest(t, f.svc.EditMessage(ctx, ada.Token, gone, "back?"))
}

func TestEditPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob, cat := f.ada(t), f.bob(t), f.cat(t)
	ch := f.channel(t, bob, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, cat.Token, ch))

	bobs := f.send(t, bob, ch, "from bob")
	cats := f.send(t, cat, ch, "from cat")

	assertBadRequest(t, f.svc.EditMessage(ctx, bob.Token, bobs, strings.Repeat("x", 1001)))
	assertBadRequest(t, f.svc.EditMessage(ctx, ada.Token, bobs, "outsider"))
	assertForbidden(t, f.svc.EditMessage(ctx, cat.Token, bobs, "not mine"))

	require.NoError(t, f.svc.EditMessage(ctx, cat.Token, cats, "edited by author"))
	require.NoError(t, f.svc.EditMessage(ctx, bob.Token, cats, "edited by owner"))

	require.NoError(t, f.svc.JoinChannel(ctx, ada.Token, ch))
	require.NoError(t, f.svc.EditMessage(ctx, ada.Token, bobs, "edited by global owner"))

	p, err := f.svc.ChannelMessages(bob.Token, ch, 0)
	require.NoError(t, err)
	assert.Equal(t, "edited by owner", p.Messages[0].Text)
	assert.Equal(t, "edited by global owner", p.Messages[1].Text)
}

func TestRemoveMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	dm := f.dm(t, bob, ada.AuthUserID)

	bobs, err := f.svc.SendDM(ctx, bob.Token, dm, "from the owner")
	require.NoError(t, err)
	adas, err := f.svc.SendDM(ctx, ada.Token, dm, "from ada")
	require.NoError(t, err)

	// Global owners have no moderation rights in DMs.
	assertForbidden(t, f.svc.RemoveMessage(ctx, ada.Token, bobs))
	require.NoError(t, f.svc.RemoveMessage(ctx, bob.Token, adas))
	assertBadRequest(t, f.svc.RemoveMessage(ctx, bob.Token, adas))

	p, err := f.svc.DMMessages(bob.Token, dm, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{bobs}, ids(p.Messages))
	assert.Equal(t, 1, f.svc.state.Workspace().MessagesExist.Latest())
}

func TestTagNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob, _ := f.ada(t), f.bob(t), f.cat(t)
	ch := f.channel(t, ada, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))

	f.send(t, ada, ch, "hey @bobbuilder @bobbuilder @catstevens @BobBuilder @nobody")

	got, err := f.svc.Notifications(bob.Token)
	require.NoError(t, err)
	assert.Equal(t, []models.Notification{{
		ChannelID: ch,
		DMID:      models.NoContainer,
		Message:   "adalovelace tagged you in general: hey @bobbuilder @bob",
	}}, got)

	// Cat is not in the channel.
	assert.Empty(t, f.user(t, 3).Notifications)
}

func TestEditRescansTags(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	dm := f.dm(t, bob, ada.AuthUserID)

	id, err := f.svc.SendDM(ctx, bob.Token, dm, "hello")
	require.NoError(t, err)
	require.NoError(t, f.svc.EditMessage(ctx, bob.Token, id, "hello @adalovelace"))

	got, err := f.svc.Notifications(ada.Token)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.Notification{
		ChannelID: models.NoContainer,
		DMID:      dm,
		Message:   "bobbuilder tagged you in adalovelace, bobbuilder: hello @adalovelace",
	}, got[0])
}

func TestReactScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.ada(t)
	ch := f.channel(t, ada, "general", true)
	msg := f.send(t, ada, ch, "hi")
	bob := f.bob(t)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))

	require.NoError(t, f.svc.ReactMessage(ctx, bob.Token, msg, 1))

	asAda, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	require.Len(t, asAda.Messages, 1)
	assert.Equal(t, []models.React{{ReactID: 1, UIDs: []int{bob.AuthUserID}, IsThisUserReacted: false}}, asAda.Messages[0].Reacts)

	asBob, err := f.svc.ChannelMessages(bob.Token, ch, 0)
	require.NoError(t, err)
	assert.Equal(t, []models.React{{ReactID: 1, UIDs: []int{bob.AuthUserID}, IsThisUserReacted: true}}, asBob.Messages[0].Reacts)

	notes, err := f.svc.Notifications(ada.Token)
	require.NoError(t, err)
	assert.Equal(t, []models.Notification{{
		ChannelID: ch,
		DMID:      models.NoContainer,
		Message:   "bobbuilder reacted to your message in general",
	}}, notes)
}

func TestReactToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob, cat := f.ada(t), f.bob(t), f.cat(t)
	ch := f.channel(t, ada, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))
	require.NoError(t, f.svc.JoinChannel(ctx, cat.Token, ch))
	msg := f.send(t, ada, ch, "hi")

	assertBadRequest(t, f.svc.ReactMessage(ctx, bob.Token, msg, 2))
	require.NoError(t, f.svc.ReactMessage(ctx, bob.Token, msg, 1))
	assertBadRequest(t, f.svc.ReactMessage(ctx, bob.Token, msg, 1))

	assertBadRequest(t, f.svc.UnreactMessage(ctx, cat.Token, msg, 1))
	require.NoError(t, f.svc.UnreactMessage(ctx, bob.Token, msg, 1))
	assertBadRequest(t, f.svc.UnreactMessage(ctx, bob.Token, msg, 1))

	p, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	assert.Empty(t, p.Messages[0].Reacts)

	// The reaction notification is not retracted.
	notes, err := f.svc.Notifications(ada.Token)
	require.NoError(t, err)
	assert.Len(t, notes, 1)
}

func TestReactNeedsMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	msg := f.send(t, ada, ch, "hi")

	assertBadRequest(t, f.svc.ReactMessage(ctx, bob.Token, msg, 1))
	assertBadRequest(t, f.svc.ReactMessage(ctx, bob.Token, 99, 1))
	assertForbidden(t, f.svc.ReactMessage(ctx, "bogus", msg, 1))
}

func TestReactSkipsAuthorWhoLeft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))
	msg := f.send(t, bob, ch, "bye")
	require.NoError(t, f.svc.LeaveChannel(ctx, bob.Token, ch))

	require.NoError(t, f.svc.ReactMessage(ctx, ada.Token, msg, 1))
	assert.Empty(t, f.user(t, bob.AuthUserID).Notifications)
}

func TestPinning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))
	msg := f.send(t, bob, ch, "pin me")

	// Being the author is not enough to pin.
	assertForbidden(t, f.svc.PinMessage(ctx, bob.Token, msg))
	require.NoError(t, f.svc.PinMessage(ctx, ada.Token, msg))
	assertBadRequest(t, f.svc.PinMessage(ctx, ada.Token, msg))

	p, err := f.svc.ChannelMessages(bob.Token, ch, 0)
	require.NoError(t, err)
	assert.True(t, p.Messages[0].IsPinned)

	require.NoError(t, f.svc.UnpinMessage(ctx, ada.Token, msg))
	assertBadRequest(t, f.svc.UnpinMessage(ctx, ada.Token, msg))

	dm := f.dm(t, bob, ada.AuthUserID)
	dmMsg, err := f.svc.SendDM(ctx, ada.Token, dm, "in dm")
	require.NoError(t, err)
	assertForbidden(t, f.svc.PinMessage(ctx, ada.Token, dmMsg))
	require.NoError(t, f.svc.PinMessage(ctx, bob.Token, dmMsg))
}

func TestShareMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	other := f.channel(t, bob, "other", true)
	dm := f.dm(t, ada, bob.AuthUserID)
	msg := f.send(t, ada, ch, "original")

	_, err := f.svc.ShareMessage(ctx, ada.Token, msg, "", models.NoContainer, models.NoContainer)
	assertBadRequest(t, err)
	_, err = f.svc.ShareMessage(ctx, ada.Token, msg, "", ch, dm)
	assertBadRequest(t, err)
	_, err = f.svc.ShareMessage(ctx, ada.Token, msg, strings.Repeat("x", 1001), models.NoContainer, dm)
	assertBadRequest(t, err)
	_, err = f.svc.ShareMessage(ctx, ada.Token, 99, "", models.NoContainer, dm)
	assertBadRequest(t, err)
	_, err = f.svc.ShareMessage(ctx, ada.Token, msg, "", models.NoContainer, 99)
	assertBadRequest(t, err)

	// Bob cannot see the source, ada is not in the destination.
	_, err = f.svc.ShareMessage(ctx, bob.Token, msg, "", models.NoContainer, dm)
	assertForbidden(t, err)
	_, err = f.svc.ShareMessage(ctx, ada.Token, msg, "", other, models.NoContainer)
	assertForbidden(t, err)

	shared, err := f.svc.ShareMessage(ctx, ada.Token, msg, " and more", models.NoContainer, dm)
	require.NoError(t, err)
	assert.Greater(t, shared, msg)

	p, err := f.svc.DMMessages(bob.Token, dm, 0)
	require.NoError(t, err)
	require.Len(t, p.Messages, 1)
	assert.Equal(t, "original and more", p.Messages[0].Text)
	assert.Equal(t, ada.AuthUserID, p.Messages[0].UID)

	// The shared text as a whole must fit in one message.
	long := f.send(t, ada, ch, strings.Repeat("a", 1000))
	_, err = f.svc.ShareMessage(ctx, ada.Token, long, "b", models.NoContainer, dm)
	assertBadRequest(t, err)
	shared, err = f.svc.ShareMessage(ctx, ada.Token, long, "", models.NoContainer, dm)
	require.NoError(t, err)

	p, err = f.svc.DMMessages(bob.Token, dm, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{shared, shared - 2}, ids(p.Messages))
	assert.Len(t, p.Messages[0].Text, 1000)
}

func TestSendLater(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.ada(t)
	ch := f.channel(t, ada, "general", true)
	now := f.clock.Now().Unix()

	_, err := f.svc.SendLater(ctx, ada.Token, ch, "too late", now-1)
	assertBadRequest(t, err)
	_, err = f.svc.SendLater(ctx, ada.Token, ch, "", now+10)
	assertBadRequest(t, err)

	id, err := f.svc.SendLater(ctx, ada.Token, ch, "from the past", now+10)
	require.NoError(t, err)

	// The id is reserved but the message does not exist yet.
	next := f.send(t, ada, ch, "meanwhile")
	assert.Equal(t, id+1, next)
	assertBadRequest(t, f.svc.ReactMessage(ctx, ada.Token, id, 1))

	f.clock.Advance(9 * time.Second)
	p, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{next}, ids(p.Messages))

	f.clock.Advance(time.Second)
	p, err = f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{id, next}, ids(p.Messages))
	assert.Equal(t, now+10, p.Messages[0].TimeSent)

	require.NoError(t, f.svc.ReactMessage(ctx, ada.Token, id, 1))
	assert.Equal(t, 2, f.user(t, ada.AuthUserID).Stats.MessagesSent.Latest())
}

func TestSendLaterDMCancelledByRemoval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	dm := f.dm(t, ada, bob.AuthUserID)
	now := f.clock.Now().Unix()

	_, err := f.svc.SendLaterDM(ctx, bob.Token, dm, "never", now+30)
	require.NoError(t, err)
	assert.Equal(t, 1, f.svc.scheduler.Pending(models.ContainerRef{Kind: models.KindDM, ID: dm}.Key()))

	require.NoError(t, f.svc.RemoveDM(ctx, ada.Token, dm))
	assert.Zero(t, f.svc.scheduler.Pending(""))

	f.clock.Advance(time.Minute)
	assert.Zero(t, f.svc.state.TotalMessages())
	assert.Zero(t, f.svc.state.Workspace().MessagesExist.Latest())
}

func TestSendLaterDroppedWhenAuthorLeft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))

	_, err := f.svc.SendLater(ctx, bob.Token, ch, "ghost", f.clock.Now().Unix()+5)
	require.NoError(t, err)
	require.NoError(t, f.svc.LeaveChannel(ctx, bob.Token, ch))

	f.clock.Advance(5 * time.Second)
	p, err := f.svc.ChannelMessages(ada.Token, ch, 0)
	require.NoError(t, err)
	assert.Empty(t, p.Messages)
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob, cat := f.ada(t), f.bob(t), f.cat(t)
	ch := f.channel(t, ada, "general", true)
	secret := f.channel(t, cat, "secret", false)
	dm := f.dm(t, bob, ada.AuthUserID)

	dmHit, err := f.svc.SendDM(ctx, bob.Token, dm, "Hello from the DM")
	require.NoError(t, err)
	first := f.send(t, ada, ch, "HELLO world")
	f.send(t, ada, ch, "goodbye")
	second := f.send(t, ada, ch, "say hello")
	f.send(t, cat, secret, "hello from a private channel")

	got, err := f.svc.Search(ada.Token, "hello")
	require.NoError(t, err)
	assert.Equal(t, []int{first, second, dmHit}, ids(got))

	got, err = f.svc.Search(cat.Token, "HeLLo")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = f.svc.Search(ada.Token, "")
	assertBadRequest(t, err)
	_, err = f.svc.Search(ada.Token, strings.Repeat("q", 1001))
	assertBadRequest(t, err)
}
