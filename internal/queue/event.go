package queue

// RoomSwappedEvent is published when a redemption completes.  It carries
// enough information for downstream consumers (notification sender,
// analytics) to act without querying the primary database.  Side "one" is
// always the code-issuing room.
type RoomSwappedEvent struct {
	RoomOne      string `json:"room_one"`
	RoomTwo      string `json:"room_two"`
	Hotel        string `json:"hotel"`
	RoomType     string `json:"room_type"`
	GuestOne     string `json:"guest_one"`
	GuestOneMail string `json:"guest_one_email"`
	GuestTwo     string `json:"guest_two"`
	GuestTwoMail string `json:"guest_two_email"`
	Code         string `json:"code"`
	SwappedAt    string `json:"swapped_at"`
}
