package entity

type PlayerStats struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}

type Player struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Handle string       `json:"handle"`
	Stats  *PlayerStats `json:"stats,omitempty"`
	Left   bool         `json:"left,omitempty"`
}
