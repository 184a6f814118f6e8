package testutil

// SampleDump is a two-player decoded-replay dump. Player 0's second command
// and player 1's second message carry no tick field.
const SampleDump = `{
  "version": 10612,
  "timestamp": "2024-03-01 18:22:05",
  "game_type": "Skirmish",
  "matchhistory_id": "987654",
  "length": 9600,
  "map": {"filename": "data:scenarios/multiplayer/twin_beach_2p_mkii/twin_beach_2p_mkii", "localized_name_id": "11240"},
  "players": [
    {
      "name": "alice",
      "human": true,
      "faction": "Americans",
      "team": "First",
      "steam_id": "76561198000000001",
      "profile_id": "101",
      "commands": [
        {"text": "BuildSquad { pbgid: 198355, tick: 40, player_index: 0 }", "iteration": 0},
        {"text": "UseAbility { pbgid: Pbgid(2033664) }", "iteration": 1},
        {"text": "Unknown { action_type: SCMD_BuildStructure, index: 3, tick: 160 }", "iteration": 2}
      ],
      "messages": [
        "Message { tick: 80, content: \"gl hf\" }"
      ]
    },
    {
      "name": "bob",
      "human": true,
      "faction": "Wehrmacht",
      "team": "Team(2)",
      "profile_id": "202",
      "commands": [
        "SelectBattlegroup { pbgid: Pbgid(196934), tick: 8 }",
        "ConstructEntity { pbgid: 198236, tick: 120 }"
      ],
      "messages": [
        "Message { tick: 80, content: \"you too\" }",
        "Message { sender: 1 }"
      ]
    }
  ]
}`
