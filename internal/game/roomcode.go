package game

import (
	"crypto/rand"
	"math/big"
)

// Room codes avoid characters that read ambiguously on a shared screen
// (0/O, 1/I/L).
const roomCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const RoomCodeLength = 6

func NewRoomCode() string {
	code := make([]byte, RoomCodeLength)
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	for i := range code {
		n, _ := rand.Int(rand.Reader, max)
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code)
}

func ValidRoomCode(code string) bool {
	if len(code) != RoomCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < 'A' || c > 'Z') && (c < '2' || c > '9') {
			return false
		}
	}
	return true
}
