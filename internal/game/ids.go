package game

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

// Excludes ambiguous characters: O, I, L and lookalike digits.
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ"

const roomCodeLength = 4

// NewRoomCode returns a 4-letter room code.
func NewRoomCode() string {
	code := make([]byte, roomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			panic(err) // crypto/rand failure is unrecoverable
		}
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code)
}

// ShortID returns "<namespace>-<xxxxxxxx>" using the first group of a
// random UUID.
func ShortID(namespace string) string {
	mini, _, _ := strings.Cut(uuid.NewString(), "-")
	return namespace + "-" + mini
}

// NewPlayerID returns a player id namespaced to a room, e.g.
// "player-KWPF-9b1deb4d".
func NewPlayerID(roomCode string) string {
	return ShortID("player-" + roomCode)
}

// NewPresenterID returns a presenter id namespaced to a room.
func NewPresenterID(roomCode string) string {
	return ShortID("presenter-" + roomCode)
}

func IsPlayerID(id string) bool {
	return strings.HasPrefix(id, "player-")
}

func IsPresenterID(id string) bool {
	return strings.HasPrefix(id, "presenter-")
}

// RoomCodeFromID extracts the room code from a participant id, or ""
// if the id is not namespaced.
func RoomCodeFromID(id string) string {
	parts := strings.Split(id, "-")
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
