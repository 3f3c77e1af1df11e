package service

import (
	"context"
	"strings"
	"testing"

	"github.com/lalith-99/echohub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memberIDs(profiles []models.Profile) []int {
	out := make([]int, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, p.UID)
	}
	return out
}

func TestCreateChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.ada(t)

	_, err := f.svc.CreateChannel(ctx, ada.Token, "", true)
	assertBadRequest(t, err)
	_, err = f.svc.CreateChannel(ctx, ada.Token, strings.Repeat("x", 21), true)
	assertBadRequest(t, err)
	_, err = f.svc.CreateChannel(ctx, "bogus", "general", true)
	assertForbidden(t, err)

	first := f.channel(t, ada, "general", true)
	second := f.channel(t, ada, "random", false)
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)

	d, err := f.svc.ChannelDetails(ada.Token, first)
	require.NoError(t, err)
	assert.Equal(t, "general", d.Name)
	assert.True(t, d.IsPublic)
	assert.Equal(t, []int{ada.AuthUserID}, memberIDs(d.OwnerMembers))
	assert.Equal(t, []int{ada.AuthUserID}, memberIDs(d.AllMembers))
	assert.Equal(t, "adalovelace", d.AllMembers[0].HandleStr)
}

func TestJoinChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)

	public := f.channel(t, bob, "public", true)
	private := f.channel(t, bob, "private", false)

	// Existence is checked before the token.
	assertBadRequest(t, f.svc.JoinChannel(ctx, "bogus", 99))
	assertForbidden(t, f.svc.JoinChannel(ctx, "bogus", public))

	cat := f.cat(t)
	assertForbidden(t, f.svc.JoinChannel(ctx, cat.Token, private))
	require.NoError(t, f.svc.JoinChannel(ctx, cat.Token, public))
	assertBadRequest(t, f.svc.JoinChannel(ctx, cat.Token, public))

	// The global owner may join private channels.
	require.NoError(t, f.svc.JoinChannel(ctx, ada.Token, private))

	d, err := f.svc.ChannelDetails(ada.Token, private)
	require.NoError(t, err)
	assert.Equal(t, []int{bob.AuthUserID, ada.AuthUserID}, memberIDs(d.AllMembers))
	assert.Equal(t, []int{bob.AuthUserID}, memberIDs(d.OwnerMembers))
}

func TestInviteNotifiesTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob, cat := f.ada(t), f.bob(t), f.cat(t)
	ch := f.channel(t, ada, "general", false)

	assertBadRequest(t, f.svc.InviteToChannel(ctx, ada.Token, ch, 42))
	assertForbidden(t, f.svc.InviteToChannel(ctx, cat.Token, ch, bob.AuthUserID))

	require.NoError(t, f.svc.InviteToChannel(ctx, ada.Token, ch, bob.AuthUserID))
	assertBadRequest(t, f.svc.InviteToChannel(ctx, ada.Token, ch, bob.AuthUserID))

	want := models.Notification{ChannelID: ch, DMID: models.NoContainer, Message: "adalovelace added you to general"}
	got, err := f.svc.Notifications(bob.Token)
	require.NoError(t, err)
	assert.Equal(t, []models.Notification{want}, got)
	assert.Equal(t, []models.Notification{want}, f.notifier.For(bob.AuthUserID))

	assert.Equal(t, 1, f.user(t, bob.AuthUserID).Stats.ChannelsJoined.Latest())
}

func TestLeaveChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob := f.ada(t), f.bob(t)
	ch := f.channel(t, ada, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, bob.Token, ch))
	require.NoError(t, f.svc.AddOwner(ctx, ada.Token, ch, bob.AuthUserID))

	require.NoError(t, f.svc.LeaveChannel(ctx, bob.Token, ch))
	assertForbidden(t, f.svc.LeaveChannel(ctx, bob.Token, ch))

	_, err := f.svc.ChannelDetails(bob.Token, ch)
	assertForbidden(t, err)

	d, err := f.svc.ChannelDetails(ada.Token, ch)
	require.NoError(t, err)
	assert.Equal(t, []int{ada.AuthUserID}, memberIDs(d.OwnerMembers))
	assert.Equal(t, []int{ada.AuthUserID}, memberIDs(d.AllMembers))

	joined := f.user(t, bob.AuthUserID).Stats.ChannelsJoined
	assert.Equal(t, []int{0, 1, 0}, []int{joined[0].Value, joined[1].Value, joined[2].Value})
}

func TestOwnerManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, bob, cat := f.ada(t), f.bob(t), f.cat(t)
	ch := f.channel(t, bob, "general", true)
	require.NoError(t, f.svc.JoinChannel(ctx, cat.Token, ch))

	// A plain member cannot promote anyone.
	assertForbidden(t, f.svc.AddOwner(ctx, cat.Token, ch, cat.AuthUserID))
	// The global owner manages owners without joining the channel.
	require.NoError(t, f.svc.AddOwner(ctx, ada.Token, ch, cat.AuthUserID))
	assertBadRequest(t, f.svc.AddOwner(ctx, bob.Token, ch, cat.AuthUserID))

	// Targets must exist and be members.
	assertBadRequest(t, f.svc.AddOwner(ctx, bob.Token, ch, ada.AuthUserID))
	assertBadRequest(t, f.svc.AddOwner(ctx, bob.Token, ch, 99))

	require.NoError(t, f.svc.RemoveOwner(ctx, ada.Token, ch, cat.AuthUserID))

	d, err := f.svc.ChannelDetails(bob.Token, ch)
	require.NoError(t, err)
	assert.Equal(t, []int{bob.AuthUserID}, memberIDs(d.OwnerMembers))
	assert.Contains(t, memberIDs(d.AllMembers), cat.AuthUserID)

	assertBadRequest(t, f.svc.RemoveOwner(ctx, bob.Token, ch, cat.AuthUserID))

	err = f.svc.RemoveOwner(ctx, bob.Token, ch, bob.AuthUserID)
	assertBadRequest(t, err)
	assert.EqualError(t, err, "a channel must have at least 1 owner")
}

func TestListChannels(t *testing.T) {
	f := newFixture(t)
	ada, bob := f.ada(t), f.bob(t)
	f.channel(t, ada, "general", true)
	f.channel(t, bob, "secret", false)

	mine, err := f.svc.ListChannels(bob.Token)
	require.NoError(t, err)
	assert.Equal(t, []ChannelSummary{{ChannelID: 2, Name: "secret"}}, mine)

	all, err := f.svc.ListAllChannels(bob.Token)
	require.NoError(t, err)
	assert.Equal(t, []ChannelSummary{{ChannelID: 1, Name: "general"}, {ChannelID: 2, Name: "secret"}}, all)

	_, err = f.svc.ListAllChannels("bogus")
	assertForbidden(t, err)
}
