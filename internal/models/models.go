package models

import (
	"fmt"
	"slices"
)

// Permission levels. The first user to register becomes the global owner;
// everyone after is a plain member.
const (
	PermissionGlobalOwner = 1
	PermissionMember      = 2
)

// NoContainer marks the unused side of a Notification (a channel
// notification has DMID == NoContainer and vice versa).
const NoContainer = -1

// StatPoint is one snapshot in a statistics series. Series are append-only:
// a new point is recorded for every change, earlier points are never edited.
type StatPoint struct {
	Value     int   `json:"value"`
	TimeStamp int64 `json:"timeStamp"`
}

type Series []StatPoint

// Latest returns the most recent value, or 0 for an empty series.
func (s Series) Latest() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}

func (s *Series) Record(value int, ts int64) {
	*s = append(*s, StatPoint{Value: value, TimeStamp: ts})
}

// Add records Latest()+delta.
func (s *Series) Add(delta int, ts int64) {
	s.Record(s.Latest()+delta, ts)
}

type UserStats struct {
	ChannelsJoined  Series  `json:"channelsJoined"`
	DMsJoined       Series  `json:"dmsJoined"`
	MessagesSent    Series  `json:"messagesSent"`
	InvolvementRate float64 `json:"involvementRate"`
}

type WorkspaceStats struct {
	ChannelsExist   Series  `json:"channelsExist"`
	DMsExist        Series  `json:"dmsExist"`
	MessagesExist   Series  `json:"messagesExist"`
	UtilizationRate float64 `json:"utilizationRate"`
}

type Notification struct {
	ChannelID int    `json:"channelId"`
	DMID      int    `json:"dmId"`
	Message   string `json:"notificationMessage"`
}

// User is a registered account. Tokens and ResetCode hold digests, never
// the raw values handed to the client.
type User struct {
	ID            int            `json:"uId"`
	Email         string         `json:"email"`
	NameFirst     string         `json:"nameFirst"`
	NameLast      string         `json:"nameLast"`
	Handle        string         `json:"handleStr"`
	PasswordHash  string         `json:"passwordHash"`
	Permission    int            `json:"permissionId"`
	Tokens        []string       `json:"tokens"`
	ResetCode     string         `json:"resetCode,omitempty"`
	ProfileImgURL string         `json:"profileImgUrl"`
	Notifications []Notification `json:"notifications"`
	Stats         UserStats      `json:"userStats"`
}

func (u *User) IsGlobalOwner() bool {
	return u.Permission == PermissionGlobalOwner
}

// Profile is the public view of a user.
type Profile struct {
	UID           int    `json:"uId"`
	Email         string `json:"email"`
	NameFirst     string `json:"nameFirst"`
	NameLast      string `json:"nameLast"`
	HandleStr     string `json:"handleStr"`
	ProfileImgURL string `json:"profileImgUrl,omitempty"`
}

func (u *User) Profile() Profile {
	return Profile{
		UID:           u.ID,
		Email:         u.Email,
		NameFirst:     u.NameFirst,
		NameLast:      u.NameLast,
		HandleStr:     u.Handle,
		ProfileImgURL: u.ProfileImgURL,
	}
}

// React groups the users who reacted to a message with one reaction type.
// IsThisUserReacted is filled per request and is meaningless in storage.
type React struct {
	ReactID           int   `json:"reactId"`
	UIDs              []int `json:"uIds"`
	IsThisUserReacted bool  `json:"isThisUserReacted"`
}

type Message struct {
	ID       int     `json:"messageId"`
	UID      int     `json:"uId"`
	Text     string  `json:"message"`
	TimeSent int64   `json:"timeSent"`
	IsPinned bool    `json:"isPinned"`
	Reacts   []React `json:"reacts"`
}

// ViewFor returns a copy of m with IsThisUserReacted computed for uid.
func (m *Message) ViewFor(uid int) Message {
	out := *m
	out.Reacts = make([]React, 0, len(m.Reacts))
	for _, r := range m.Reacts {
		out.Reacts = append(out.Reacts, React{
			ReactID:           r.ReactID,
			UIDs:              slices.Clone(r.UIDs),
			IsThisUserReacted: slices.Contains(r.UIDs, uid),
		})
	}
	return out
}

// Standup is the buffered-broadcast state of a channel.
type Standup struct {
	Active    bool   `json:"standupActive"`
	Finish    int64  `json:"standupFinish"`
	Buffer    string `json:"standupStr"`
	StarterID int    `json:"standupStarter"`
}

type Channel struct {
	ID       int        `json:"channelId"`
	Name     string     `json:"nameChannel"`
	IsPublic bool       `json:"isPublic"`
	Owners   []int      `json:"ownerMembers"`
	Members  []int      `json:"allMembers"`
	Messages []*Message `json:"messages"`
	Standup  Standup    `json:"standup"`
}

// DM is a direct-message group. Members holds everyone except the owner.
// OwnerID is 0 once the last participant has left.
type DM struct {
	ID       int        `json:"dmId"`
	Name     string     `json:"dmName"`
	OwnerID  int        `json:"owner"`
	Members  []int      `json:"uIds"`
	Messages []*Message `json:"messages"`
}

type ContainerKind int

const (
	KindChannel ContainerKind = iota + 1
	KindDM
)

func (k ContainerKind) String() string {
	if k == KindChannel {
		return "channel"
	}
	return "dm"
}

// ContainerRef identifies the channel or DM a message lives in.
type ContainerRef struct {
	Kind ContainerKind `json:"kind"`
	ID   int           `json:"id"`
}

// Key is the scheduler/cancellation key of the container.
func (r ContainerRef) Key() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// Container is what Channel and DM have in common for messaging.
type Container interface {
	Ref() ContainerRef
	DisplayName() string
	HasMember(uid int) bool
	HasOwner(uid int) bool
	MessageList() *[]*Message
}

func (c *Channel) Ref() ContainerRef { return ContainerRef{Kind: KindChannel, ID: c.ID} }
func (c *Channel) DisplayName() string { return c.Name }
func (c *Channel) HasMember(uid int) bool { return slices.Contains(c.Members, uid) }
func (c *Channel) HasOwner(uid int) bool { return slices.Contains(c.Owners, uid) }
func (c *Channel) MessageList() *[]*Message { return &c.Messages }
func (d *DM) Ref() ContainerRef { return ContainerRef{Kind: KindDM, ID: d.ID} }
func (d *DM) DisplayName() string { return d.Name }
func (d *DM) HasOwner(uid int) bool { return uid != 0 && d.OwnerID == uid }
func (d *DM) MessageList() *[]*Message { return &d.Messages }
func (d *DM) HasMember(uid int) bool {
	return d.HasOwner(uid) || slices.Contains(d.Members, uid)
}

// Participants returns the owner (if any) followed by the other members.
func (d *DM) Participants() []int {
	out := make([]int, 0, len(d.Members)+1)
	if d.OwnerID != 0 {
		out = append(out, d.OwnerID)
	}
	return append(out, d.Members...)
}

// Remove returns ids without uid, preserving order.
func Remove(ids []int, uid int) []int {
	return slices.DeleteFunc(slices.Clone(ids), func(id int) bool { return id == uid })
}
