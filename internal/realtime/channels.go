package realtime

import (
	"strings"

	"github.com/google/uuid"
)

// Channel names are a stable wire contract shared with every client.
const (
	userChannelPrefix  = "user-"
	boardChannelPrefix = "board-"
	teamChannelPrefix  = "team-"

	// GlobalChannel is the privileged admin-only broadcast address.
	GlobalChannel = "global"
)

// UserChannel returns the personal broadcast channel for a user.
func UserChannel(userID uuid.UUID) string {
	return userChannelPrefix + userID.String()
}

// BoardChannel returns the broadcast channel for a board.
func BoardChannel(boardID uuid.UUID) string {
	return boardChannelPrefix + boardID.String()
}

// TeamChannel returns the broadcast channel for a team.
func TeamChannel(teamID uuid.UUID) string {
	return teamChannelPrefix + teamID.String()
}

// ParseUserChannel extracts the user id from a personal channel name.
func ParseUserChannel(channel string) (uuid.UUID, bool) {
	return parseChannel(channel, userChannelPrefix)
}

// ParseBoardChannel extracts the board id from a board channel name.
func ParseBoardChannel(channel string) (uuid.UUID, bool) {
	return parseChannel(channel, boardChannelPrefix)
}

// ParseTeamChannel extracts the team id from a team channel name.
func ParseTeamChannel(channel string) (uuid.UUID, bool) {
	return parseChannel(channel, teamChannelPrefix)
}

func parseChannel(channel, prefix string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(channel, prefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
