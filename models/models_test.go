package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMessageStatusRank(t *testing.T) {
	t.Parallel()

	require.Less(t, MessageStatusSent.Rank(), MessageStatusDelivered.Rank())
	require.Less(t, MessageStatusDelivered.Rank(), MessageStatusRead.Rank())
	require.False(t, MessageStatus("seen").Valid())
}

func TestSendMessageInputValidate(t *testing.T) {
	t.Parallel()

	empty := SendMessageInput{Body: "   "}
	require.Error(t, empty.Validate())

	attachmentOnly := SendMessageInput{Attachment: &Attachment{URL: "/api/uploads/a.png"}}
	require.NoError(t, attachmentOnly.Validate())

	text := SendMessageInput{Body: "  selam  "}
	require.NoError(t, text.Validate())
	require.Equal(t, "selam", text.Body)
}

func TestCreateGroupRequestDedupesMembers(t *testing.T) {
	t.Parallel()

	req := CreateGroupRequest{Name: " ekip ", Members: []string{"a", "a", " "}}
	require.Error(t, req.Validate())

	req = CreateGroupRequest{Name: " ekip ", Members: []string{"a", "b", "a"}}
	require.NoError(t, req.Validate())
	require.Equal(t, "ekip", req.Name)
	require.Equal(t, []string{"a", "b"}, req.Members)
}

func TestUpdateGroupRequestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, (&UpdateGroupRequest{}).Validate())

	blank := "  "
	require.Error(t, (&UpdateGroupRequest{Name: &blank}).Validate())

	name := " yeni "
	req := UpdateGroupRequest{Name: &name}
	require.NoError(t, req.Validate())
	require.Equal(t, "yeni", *req.Name)
}

func TestRegisterRequestValidate(t *testing.T) {
	t.Parallel()

	req := RegisterRequest{
		Fullname:        "Ada Lovelace",
		Username:        "ada",
		Password:        "secret1",
		ConfirmPassword: "secret2",
		Gender:          GenderFemale,
	}
	require.Error(t, req.Validate())

	req.ConfirmPassword = "secret1"
	require.NoError(t, req.Validate())

	req.Gender = "other"
	require.Error(t, req.Validate())
}

func TestUpdateProfileRequestEmailClear(t *testing.T) {
	t.Parallel()

	empty := " "
	req := UpdateProfileRequest{Email: &empty}
	require.NoError(t, req.Validate())
	require.Equal(t, "", *req.Email)
	require.False(t, req.IsEmpty())
}

func TestCreateCallLogRequestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, (&CreateCallLogRequest{CallType: CallTypeVoice}).Validate())

	zero := 0
	require.NoError(t, (&CreateCallLogRequest{CallType: CallTypeVideo, Duration: &zero}).Validate())

	require.Error(t, (&CreateCallLogRequest{CallType: "fax", Duration: &zero}).Validate())
}

func TestPagination(t *testing.T) {
	t.Parallel()

	p := ParsePageRequest("x", "500", 20)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 100, p.Limit)

	p = ParsePageRequest("3", "", 10)
	require.Equal(t, 20, p.Offset())

	meta := NewPagination(PageRequest{Page: 1, Limit: 10}, 21)
	require.Equal(t, 3, meta.TotalPages)
}

func TestSortedPair(t *testing.T) {
	t.Parallel()

	a, b := SortedPair("z", "a")
	require.Equal(t, "a", a)
	require.Equal(t, "z", b)
}
