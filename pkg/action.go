package pkg

type Action string

const (
	ActionNewGame       Action = "New Game"
	ActionFlip          Action = "Flip"
	ActionHint          Action = "Hint"
	ActionAnalyze       Action = "Analyze"
	ActionEngineMove    Action = "Engine Move"
	ActionSelfPlay      Action = "Self-play"
	ActionStopSelfPlay  Action = "Stop"
	ActionUndo          Action = "Undo"
	ActionDrawOffer     Action = "Draw"
	ActionDrawPrompt    Action = "Draw?"
	ActionDrawAccept    Action = "Accept"
	ActionDrawReject    Action = "Reject"
	ActionResignPrompt  Action = "Resign"
	ActionResignYes     Action = "Yes"
	ActionResignNo      Action = "No"
	ActionNewGamePrompt Action = "New Game?"
	ActionSave          Action = "Save PGN"
	ActionPreferences   Action = "Preferences"
	ActionOK            Action = "OK"
	ActionExit          Action = "Exit"
)
