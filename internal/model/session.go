package model

type State int

const (
	DefaultState State = iota
	ExpectingOrder
	ExpectingImportFile
)

type Session struct {
	State      State `json:"state"`
	OrdersPage int   `json:"orders_page"`
}
