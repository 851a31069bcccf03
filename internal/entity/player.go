package entity

type Player struct {
	Seat Seat   `json:"seat"`
	Name string `json:"name"`
}
