package models

// The Stored* types are the JSON documents kept by the persistence adapter.
// Field names are part of the on-disk format and must not change.

// StoredUser is the persisted form of a User.
type StoredUser struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	LastActive int64  `json:"lastActive"`
	StatusMsg  string `json:"statusMsg"`
}

// StoredChat is the persisted form of a Chat. User holds the author's UserID.
type StoredChat struct {
	Type     ChatKind `json:"type"`
	User     string   `json:"user"`
	Content  string   `json:"content"`
	SentTime int64    `json:"sentTime"`
}

// StoredReadMark is one entry of StoredRoom.LastReadTime.
type StoredReadMark struct {
	UserID string `json:"userId"`
	Time   int64  `json:"time"`
}

// StoredRoom is the persisted form of a Room.
type StoredRoom struct {
	RoomID         int64            `json:"roomId"`
	RoomName       string           `json:"roomName"`
	Participants   []StoredUser     `json:"participants"`
	Chats          []StoredChat     `json:"chats"`
	LastReadTime   []StoredReadMark `json:"lastReadTime"`
	ConnectedUsers []string         `json:"connectedUsers"`
}
