package model

import "fmt"

// Airline identifies the player's airline and its home hub.
type Airline struct {
	Name string `json:"name"`
	Code string `json:"code"`
	Hub  string `json:"hub"`
}

// Briefing is the one-line airline description included in prompts.
func (a Airline) Briefing() string {
	if a.Hub == "" {
		return "Airline with unknown hub"
	}
	return fmt.Sprintf("Airline: %s (%s) with hub in %s", a.Name, a.Code, a.Hub)
}
