package types

type RequestLogin struct {
	Output string
}

type RequestLoginCode struct {
	Phone string `json:"phone"`
}

type RequestPrivacy struct {
	Setting string
	Value   string
}

type RequestStatus struct {
	Status string
}

type RequestSendMessage struct {
	Message string
	Text    string
}

type RequestSendLink struct {
	Link    string
	Caption string
	URL     string
}

type RequestSendLocation struct {
	Latitude  float64
	Longitude float64
}

type RequestSendContact struct {
	Name  string
	Phone string
}

type RequestSendPoll struct {
	Question    string
	Options     []string
	MultiAnswer bool
}

type RequestSendPollVote struct {
	ChatJID string   `json:"chat_jid"`
	Options []string `json:"options"`
}

type RequestMarkRead struct {
	SenderJID string `json:"sender_jid"`
}

type RequestReact struct {
	Emoji string
}

type RequestEdit struct {
	Message string
	Text    string
}

type RequestDelete struct {
	SenderJID string `json:"sender_jid"`
}

type RequestForward struct {
	ToChatJID string `json:"to_chat_jid"`
}

type RequestReply struct {
	Message string
	Text    string
}

type RequestCreateGroup struct {
	Name         string
	Participants []string
	Description  string
	Photo        string
}

type RequestUpdateGroupSettings struct {
	Announce      *bool
	Locked        *bool
	MemberAddMode string
	JoinApproval  *bool
}

type RequestJoinGroupInvite struct {
	InviteCode string
	Inviter    string
	Expiration int64
}

type RequestSetGroupTopic struct {
	PreviousID string
	NewID      string
	Topic      string
}

type RequestGroupParticipants struct {
	Participants []string `json:"participants"`
}

type RequestPresence struct {
	State string
	Media string
}

type RequestRejectCall struct {
	CallFrom string `json:"call_from"`
	CallID   string `json:"call_id"`
}

type RequestBuildHistorySync struct {
	Count int `json:"count"`
}

type RequestResolveBusinessLink struct {
	Code string `json:"code"`
}

type ResponseLogin struct {
	QRCode  string
	Timeout int
}

type ResponseLoginCode struct {
	PairCode string
	Timeout  int
}

type ResponseCheckPhone struct {
	IsRegistered bool
	JID          string
}

type ResponseUserInfo struct {
	VerifiedName string
	Status       string
	PictureID    string
	Devices      []string
}

type ResponseUserPicture struct {
	URL       string
	ID        string
	Type      string
	DirectURL string
}
