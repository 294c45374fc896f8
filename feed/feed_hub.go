package feed

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/mess-management/models"
)

// Event types
const (
	EventAttendanceMarked = "attendance_marked"
	EventSessionCreated   = "session_created"
	EventSessionClosed    = "session_closed"
	EventPaymentSubmitted = "payment_submitted"
	EventPaymentVerified  = "payment_verified"
	EventPaymentRejected  = "payment_rejected"
	EventBillGenerated    = "bill_generated"
)

type Message struct {
	Event  string      `json:"event"`
	MessID uint        `json:"mess_id"`
	Data   interface{} `json:"data"`
}

// Hub menampung koneksi dashboard staff per mess; event hanya dikirim
// ke client dari mess yang sama.
type Hub struct {
	clients map[*websocket.Conn]uint // conn -> mess id
	mutex   sync.Mutex
}

var hub = Hub{
	clients: make(map[*websocket.Conn]uint),
}

// RegisterClient -> menambahkan connection untuk satu mess
func RegisterClient(conn *websocket.Conn, messID uint) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = messID
}

// UnregisterClient -> melepaskan connection
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastAttendanceMarked -> scan atau manual marking masuk
func BroadcastAttendanceMarked(messID uint, attendance models.Attendance) {
	broadcast(Message{
		Event:  EventAttendanceMarked,
		MessID: messID,
		Data:   attendance,
	})
}

// BroadcastSessionCreated -> session QR baru dibuka
func BroadcastSessionCreated(session models.AttendanceSession) {
	broadcast(Message{
		Event:  EventSessionCreated,
		MessID: session.MessID,
		Data:   session,
	})
}

// BroadcastSessionClosed -> session ditutup (manual atau expired)
func BroadcastSessionClosed(session models.AttendanceSession) {
	broadcast(Message{
		Event:  EventSessionClosed,
		MessID: session.MessID,
		Data:   session,
	})
}

// BroadcastPaymentSubmitted -> student submit pembayaran baru
func BroadcastPaymentSubmitted(payment models.Payment) {
	broadcast(Message{
		Event:  EventPaymentSubmitted,
		MessID: payment.MessID,
		Data:   payment,
	})
}

// BroadcastPaymentVerified -> admin verifikasi pembayaran
func BroadcastPaymentVerified(payment models.Payment) {
	broadcast(Message{
		Event:  EventPaymentVerified,
		MessID: payment.MessID,
		Data:   payment,
	})
}

// BroadcastPaymentRejected -> admin menolak pembayaran
func BroadcastPaymentRejected(payment models.Payment) {
	broadcast(Message{
		Event:  EventPaymentRejected,
		MessID: payment.MessID,
		Data:   payment,
	})
}

// BroadcastBillGenerated -> bill bulanan dibuat
func BroadcastBillGenerated(bill models.Bill) {
	broadcast(Message{
		Event:  EventBillGenerated,
		MessID: bill.MessID,
		Data:   bill,
	})
}

// broadcast -> fungsi internal untuk mengirim pesan
func broadcast(msg Message) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	for conn, messID := range hub.clients {
		if messID != msg.MessID {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			continue
		}
	}
}
