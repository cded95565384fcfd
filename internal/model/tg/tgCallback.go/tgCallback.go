package tgCallback

// Callback button uniques, the payload goes after them.
const (
	OrdersPage       string = "orders_page"  // payload: page number
	DeleteOrder      string = "delete_order" // payload: transaction id
	ConfirmDeleteAll string = "confirm_delete_all"
	CancelDeleteAll  string = "cancel_delete_all"
)
