package events

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/renthive/rental-app/models"
	"github.com/renthive/rental-app/utils"
)

// Event types
const (
	EventBookingUpdate  = "booking_update"
	EventPaymentUpdate  = "payment_update"
	EventPaymentPending = "payment_pending"
	EventPaymentSuccess = "payment_success"
	EventPropertyReview = "property_review"
	EventChatMessage    = "chat_message"
	EventChatReceipt    = "chat_receipt"
	EventNotification   = "notification"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub holds every connected client (tenant, landlord, admin dashboards)
// keyed by connection, each tagged with the authenticated user.
type Hub struct {
	clients map[*websocket.Conn]client
	mutex   sync.Mutex
}

type client struct {
	userID uint
	role   string
}

var hub = Hub{
	clients: make(map[*websocket.Conn]client),
}

// RegisterClient adds a connection tagged with the authenticated user.
func RegisterClient(conn *websocket.Conn, userID uint, role string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.clients[conn] = client{userID: userID, role: role}
}

// UnregisterClient drops and closes a connection.
func UnregisterClient(conn *websocket.Conn) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	delete(hub.clients, conn)
	conn.Close()
}

// BroadcastBookingUpdate notifies the two booking parties and admins.
func BroadcastBookingUpdate(booking models.Booking) {
	landlordID := booking.Property.LandlordID
	sendTo(Message{Event: EventBookingUpdate, Data: booking}, func(c client) bool {
		return c.role == models.RoleAdmin || c.userID == booking.TenantID || c.userID == landlordID
	})
}

// BroadcastPaymentUpdate notifies the payer about a settled or failed payment.
func BroadcastPaymentUpdate(payment models.Payment) {
	sendTo(Message{Event: EventPaymentUpdate, Data: payment}, func(c client) bool {
		return c.role == models.RoleAdmin || c.userID == payment.PayerID
	})
}

// BroadcastPaymentPending pushes a freshly created charge back to the payer.
func BroadcastPaymentPending(payment models.Payment) {
	sendTo(Message{Event: EventPaymentPending, Data: payment}, func(c client) bool {
		return c.userID == payment.PayerID
	})
}

// BroadcastPropertyReview notifies the landlord of an approval decision.
func BroadcastPropertyReview(property models.Property) {
	sendTo(Message{Event: EventPropertyReview, Data: property}, func(c client) bool {
		return c.role == models.RoleAdmin || c.userID == property.LandlordID
	})
}

// BroadcastChatMessage delivers a committed message to both participants.
func BroadcastChatMessage(chat models.Chat, msg models.Message) {
	sendTo(Message{Event: EventChatMessage, Data: msg}, func(c client) bool {
		return chat.HasParticipant(c.userID)
	})
}

// BroadcastChatReceipt pushes a delivery/read receipt to the sender side.
func BroadcastChatReceipt(chat models.Chat, msg models.Message) {
	sendTo(Message{Event: EventChatReceipt, Data: msg}, func(c client) bool {
		return chat.HasParticipant(c.userID)
	})
}

// BroadcastNotification pushes a persisted notification to its recipient.
func BroadcastNotification(notif models.Notification) {
	sendTo(Message{Event: EventNotification, Data: notif}, func(c client) bool {
		return c.userID == notif.UserID
	})
}

func sendTo(msg Message, match func(client) bool) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		if utils.ErrorLogger != nil {
			utils.ErrorLogger.Printf("error marshaling event: %v", err)
		}
		return
	}

	for conn, cl := range hub.clients {
		if !match(cl) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			if utils.ErrorLogger != nil {
				utils.ErrorLogger.Printf("error sending event to user %d: %v", cl.userID, err)
			}
		}
	}
}
