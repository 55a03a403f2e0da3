package main

import (
	"math/rand"
)

// RandomLobbyCode draws a code of LobbyCodeLen characters uniformly from
// the lobby code alphabet. Uniqueness is the caller's problem.
func RandomLobbyCode() string {
	buf := make([]byte, LobbyCodeLen)
	for i := range buf {
		buf[i] = LobbyCodeChars[rand.Intn(len(LobbyCodeChars))]
	}
	return string(buf)
}
