package game

// Player is a participant playing on their own device. Immutable after
// creation; owned by the game's roster.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Presenter is a shared display for the room. The creating presenter
// holds the start privilege.
type Presenter struct {
	ID        string `json:"id"`
	IsCreator bool   `json:"isCreator"`
}
