package model

// MessageTypeChat is the message_type of every player chat record.
const MessageTypeChat = "chat"

// Command is one classified raw record of a player.
type Command struct {
	Timestamp    uint32          `json:"timestamp"`
	CommandType  CommandCategory `json:"command_type"`
	Details      string          `json:"details"`
	PBGID        *string         `json:"pbgid,omitempty"`
	Index        *string         `json:"index,omitempty"`
	UnitName     *string         `json:"unit_name,omitempty"`
	BuildingName *string         `json:"building_name,omitempty"`
}

// PlayerInfo is the command-free projection of a player used in team listings.
type PlayerInfo struct {
	PlayerID   uint32  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	TeamID     uint32  `json:"team_id"`
	Faction    *string `json:"faction,omitempty"`
	IsHuman    bool    `json:"is_human"`
	SteamID    *string `json:"steam_id,omitempty"`
	ProfileID  *string `json:"profile_id,omitempty"`
}

// Player is the full per-player record of a report.
type Player struct {
	PlayerID      uint32        `json:"player_id"`
	PlayerName    string        `json:"player_name"`
	TeamID        uint32        `json:"team_id"`
	Faction       *string       `json:"faction,omitempty"`
	IsHuman       bool          `json:"is_human"`
	SteamID       *string       `json:"steam_id,omitempty"`
	ProfileID     *string       `json:"profile_id,omitempty"`
	BattlegroupID *string       `json:"battlegroup_id,omitempty"`
	Commands      []Command     `json:"commands"`
	BuildCommands []Command     `json:"build_commands"`
	ChatMessages  []GameMessage `json:"chat_messages"`
}

// Info projects p onto PlayerInfo.
func (p Player) Info() PlayerInfo {
	return PlayerInfo{
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		TeamID:     p.TeamID,
		Faction:    p.Faction,
		IsHuman:    p.IsHuman,
		SteamID:    p.SteamID,
		ProfileID:  p.ProfileID,
	}
}

type Team struct {
	TeamID  uint32       `json:"team_id"`
	Players []PlayerInfo `json:"players"`
}

type GameMessage struct {
	Timestamp   uint32  `json:"timestamp"`
	PlayerID    *uint32 `json:"player_id,omitempty"`
	Content     string  `json:"content"`
	MessageType string  `json:"message_type"`
}

// ReplayReport is the root of the external schema. Its shape is identical for
// success and failure reports.
type ReplayReport struct {
	Success      bool    `json:"success"`
	ErrorMessage *string `json:"error_message,omitempty"`

	MapName         string  `json:"map_name"`
	MapFilename     string  `json:"map_filename"`
	DurationSeconds uint32  `json:"duration_seconds"`
	DurationTicks   uint32  `json:"duration_ticks"`
	GameVersion     *uint16 `json:"game_version,omitempty"`
	Timestamp       *string `json:"timestamp,omitempty"`
	GameType        *string `json:"game_type,omitempty"`
	MatchHistoryID  *string `json:"matchhistory_id,omitempty"`

	Teams       []Team   `json:"teams"`
	WinningTeam *uint32  `json:"winning_team,omitempty"`
	Players     []Player `json:"players"`

	Messages []GameMessage `json:"messages"`
}

// FailureReport builds the minimal failure envelope: every field other than
// the success flag and error message holds its empty value.
func FailureReport(reason string) ReplayReport {
	if reason == "" {
		reason = "unknown error"
	}
	return ReplayReport{
		Success:      false,
		ErrorMessage: &reason,
		Teams:        []Team{},
		Players:      []Player{},
		Messages:     []GameMessage{},
	}
}

// Player returns the player with the given id.
func (r *ReplayReport) Player(playerID uint32) (*Player, bool) {
	for i := range r.Players {
		if r.Players[i].PlayerID == playerID {
			return &r.Players[i], true
		}
	}
	return nil, false
}
