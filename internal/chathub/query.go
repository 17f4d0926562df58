package chathub

import "strings"

// ParseRoomQuery splits a room creation query of the form
// "Room name @user1 @user2". After the first word, words starting with '@'
// name participants and the rest extend the room name.
func ParseRoomQuery(query string) (roomName string, participantIDs []string) {
	var name []string
	for i, word := range strings.Fields(query) {
		if id, ok := strings.CutPrefix(word, "@"); ok && i > 0 {
			participantIDs = append(participantIDs, id)
			continue
		}
		name = append(name, word)
	}
	return strings.Join(name, " "), participantIDs
}
