package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"

	"github.com/renthive/rental-app/events"
	"github.com/renthive/rental-app/models"
)

// BookingAction is a lifecycle mutation requested by one of the parties.
type BookingAction string

const (
	ActionApprove   BookingAction = "approve"
	ActionReject    BookingAction = "reject"
	ActionSign      BookingAction = "sign"
	ActionDeposit   BookingAction = "deposit"
	ActionHandover  BookingAction = "handover"
	ActionTerminate BookingAction = "terminate"
	ActionSettle    BookingAction = "settle"
	// actionExpire is system-initiated (deposit deadline passed), never
	// exposed through AllowedActions.
	actionExpire BookingAction = "expire"
)

// depositWindow is how long the tenant has to fund escrow after signing.
const depositWindow = 48 * time.Hour

var (
	ErrInvalidTransition = errors.New("action not allowed in current booking state")
	ErrNotParticipant    = errors.New("user is not a party of this booking")
	ErrNoPermission      = errors.New("role not allowed to perform this action")
)

var bookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "renthive_booking_transitions_total",
	Help: "Booking lifecycle transitions by action and resulting status.",
}, []string{"action", "to_status"})

// nextState is the single source of truth for the lifecycle graph. It returns
// the resulting status and whether the landlord counter-escrow flag flips.
// Statuses never move backwards and terminals admit no action.
func nextState(b *models.Booking, role string, action BookingAction) (models.BookingStatus, bool, error) {
	switch b.Status {
	case models.BookingPendingLandlord:
		if role != models.RoleLandlord {
			return "", false, ErrNoPermission
		}
		switch action {
		case ActionApprove:
			return models.BookingPendingSignature, false, nil
		case ActionReject:
			return models.BookingRejected, false, nil
		}

	case models.BookingPendingSignature:
		if action == ActionSign {
			if role != models.RoleTenant {
				return "", false, ErrNoPermission
			}
			return models.BookingAwaitingDeposit, false, nil
		}

	case models.BookingAwaitingDeposit:
		switch action {
		case ActionDeposit:
			if role != models.RoleTenant {
				return "", false, ErrNoPermission
			}
			return models.BookingEscrowFundedT, false, nil
		case actionExpire:
			return models.BookingCancelled, false, nil
		}

	case models.BookingEscrowFundedT:
		if role != models.RoleLandlord {
			return "", false, ErrNoPermission
		}
		switch action {
		case ActionDeposit:
			if b.LandlordEscrowFunded {
				return "", false, ErrInvalidTransition
			}
			return models.BookingEscrowFundedT, true, nil
		case ActionHandover:
			return models.BookingReadyForHandover, false, nil
		}

	case models.BookingReadyForHandover:
		switch action {
		case ActionDeposit:
			if role != models.RoleLandlord {
				return "", false, ErrNoPermission
			}
			if b.LandlordEscrowFunded {
				return "", false, ErrInvalidTransition
			}
			return models.BookingReadyForHandover, true, nil
		case ActionHandover:
			if role != models.RoleTenant {
				return "", false, ErrNoPermission
			}
			if b.LandlordEscrowFunded {
				return models.BookingDualEscrowFunded, false, nil
			}
			return models.BookingActive, false, nil
		}

	case models.BookingActive, models.BookingDualEscrowFunded:
		switch action {
		case ActionTerminate:
			return models.BookingTerminated, false, nil
		case ActionSettle:
			if role != models.RoleLandlord {
				return "", false, ErrNoPermission
			}
			return models.BookingSettled, false, nil
		}

	case models.BookingSettled, models.BookingTerminated,
		models.BookingCancelled, models.BookingRejected:
		// terminal
	}

	return "", false, ErrInvalidTransition
}

// AllowedActions returns the exact action set valid for the booking in its
// current state as seen by the given role. Derived from nextState so the UI
// can never offer an action the server would refuse.
func AllowedActions(b *models.Booking, role string) []BookingAction {
	candidates := []BookingAction{
		ActionApprove, ActionReject, ActionSign,
		ActionDeposit, ActionHandover, ActionTerminate, ActionSettle,
	}

	actions := make([]BookingAction, 0, 2)
	for _, a := range candidates {
		if _, _, err := nextState(b, role, a); err == nil {
			actions = append(actions, a)
		}
	}
	return actions
}

// BookingLifecycle applies lifecycle actions transactionally and fans out
// the resulting events (websocket, audit exchange, notifications).
type BookingLifecycle struct {
	db    *gorm.DB
	audit AuditPublisher
}

func NewBookingLifecycle(db *gorm.DB, audit AuditPublisher) *BookingLifecycle {
	if audit == nil {
		audit = noopPublisher{}
	}
	return &BookingLifecycle{db: db, audit: audit}
}

// Approve moves PENDING_LANDLORD -> PENDING_SIGNATURE and creates the
// contract, signed by the landlord with the chosen method.
func (l *BookingLifecycle) Approve(bookingID, landlordID uint, signingMethod string) (*models.Booking, error) {
	return l.apply(bookingID, landlordID, models.RoleLandlord, ActionApprove, signingMethod, func(tx *gorm.DB, b *models.Booking) error {
		contract := models.Contract{
			BookingID:      b.ID,
			ContractCode:   "CT-" + uuid.NewString(),
			SigningMethod:  signingMethod,
			LandlordSigned: true,
		}
		if err := tx.Create(&contract).Error; err != nil {
			return err
		}
		return notify(tx, b.TenantID, "Booking approved",
			"Your rental request was approved. Please review and sign the contract.")
	})
}

// Reject is terminal for the request.
func (l *BookingLifecycle) Reject(bookingID, landlordID uint) (*models.Booking, error) {
	return l.apply(bookingID, landlordID, models.RoleLandlord, ActionReject, "", func(tx *gorm.DB, b *models.Booking) error {
		return notify(tx, b.TenantID, "Booking rejected",
			"Your rental request was rejected by the landlord.")
	})
}

// Sign records the tenant signature and opens the deposit window.
func (l *BookingLifecycle) Sign(bookingID, tenantID uint, signedPdfURL string) (*models.Booking, error) {
	return l.apply(bookingID, tenantID, models.RoleTenant, ActionSign, "", func(tx *gorm.DB, b *models.Booking) error {
		now := time.Now()
		deadline := now.Add(depositWindow)
		b.DepositDeadline = &deadline
		// the booking row is already saved; the deadline needs its own write
		// or the sweeper never sees it
		if err := tx.Model(&models.Booking{}).Where("id = ?", b.ID).
			Update("deposit_deadline", deadline).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"tenant_signed": true,
			"signed_at":     now,
		}
		if signedPdfURL != "" {
			updates["signed_pdf_url"] = signedPdfURL
		}
		if err := tx.Model(&models.Contract{}).Where("booking_id = ?", b.ID).Updates(updates).Error; err != nil {
			return err
		}
		return notify(tx, b.Property.LandlordID, "Contract signed",
			"The tenant signed the contract. Waiting for the deposit.")
	})
}

// ApplyDeposit advances the lifecycle after a payment settles: the tenant's
// escrow funds AWAITING_DEPOSIT -> ESCROW_FUNDED_T, the landlord's
// counter-escrow flips the dual-escrow flag.
func (l *BookingLifecycle) ApplyDeposit(bookingID, payerID uint, role string) (*models.Booking, error) {
	return l.ApplyDepositTx(l.db, bookingID, payerID, role)
}

// ApplyDepositTx is ApplyDeposit running on the caller's transaction, so a
// payment row and its escrow transition commit or roll back together.
func (l *BookingLifecycle) ApplyDepositTx(db *gorm.DB, bookingID, payerID uint, role string) (*models.Booking, error) {
	return l.applyIn(db, bookingID, payerID, role, ActionDeposit, "", func(tx *gorm.DB, b *models.Booking) error {
		peer := b.Property.LandlordID
		if role == models.RoleLandlord {
			peer = b.TenantID
		}
		return notify(tx, peer, "Escrow funded", "An escrow deposit for your booking was funded.")
	})
}

// Handover is the landlord's ready-for-handover mark or the tenant's
// move-in confirmation, depending on the current state.
func (l *BookingLifecycle) Handover(bookingID, actorID uint, role string) (*models.Booking, error) {
	return l.apply(bookingID, actorID, role, ActionHandover, "", nil)
}

// Settle closes an occupancy booking at the end of the contract.
func (l *BookingLifecycle) Settle(bookingID, landlordID uint) (*models.Booking, error) {
	return l.apply(bookingID, landlordID, models.RoleLandlord, ActionSettle, "", nil)
}

// Terminate ends an occupancy booking after an accepted termination request.
func (l *BookingLifecycle) Terminate(bookingID, actorID uint, role, reason string) (*models.Booking, error) {
	return l.apply(bookingID, actorID, role, ActionTerminate, reason, nil)
}

// Expire cancels a booking whose deposit deadline passed. Called by the
// payment timeout checker; the only producer of CANCELLED.
func (l *BookingLifecycle) Expire(bookingID uint) (*models.Booking, error) {
	return l.apply(bookingID, 0, "", actionExpire, "deposit deadline passed", func(tx *gorm.DB, b *models.Booking) error {
		if err := notify(tx, b.TenantID, "Booking cancelled",
			"Your booking was cancelled because the deposit was not paid in time."); err != nil {
			return err
		}
		return notify(tx, b.Property.LandlordID, "Booking cancelled",
			"A booking was cancelled because the deposit was not paid in time.")
	})
}

func (l *BookingLifecycle) apply(bookingID, actorID uint, role string, action BookingAction, detail string, sideEffect func(*gorm.DB, *models.Booking) error) (*models.Booking, error) {
	return l.applyIn(l.db, bookingID, actorID, role, action, detail, sideEffect)
}

// applyIn runs one transition in a transaction on the given handle: recheck
// the state under the tx, mutate, append the audit event, run the
// action-specific side effect. State is untouched when anything fails. A
// handle that is already a transaction nests via savepoint.
func (l *BookingLifecycle) applyIn(db *gorm.DB, bookingID, actorID uint, role string, action BookingAction, detail string, sideEffect func(*gorm.DB, *models.Booking) error) (*models.Booking, error) {
	var booking models.Booking

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Property").Preload("Room.RoomType").First(&booking, bookingID).Error; err != nil {
			return err
		}

		if action != actionExpire {
			if err := checkParty(&booking, actorID, role); err != nil {
				return err
			}
		}

		next, fundLandlordEscrow, err := nextState(&booking, role, action)
		if err != nil {
			return err
		}

		from := booking.Status
		booking.Status = next
		if fundLandlordEscrow {
			booking.LandlordEscrowFunded = true
		}
		booking.UpdatedAt = time.Now()

		if err := tx.Save(&booking).Error; err != nil {
			return err
		}

		event := models.BookingEvent{
			BookingID:  booking.ID,
			ActorID:    actorID,
			Action:     string(action),
			FromStatus: from,
			ToStatus:   next,
			Detail:     detail,
		}
		if err := tx.Create(&event).Error; err != nil {
			return err
		}

		if sideEffect != nil {
			return sideEffect(tx, &booking)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bookingTransitions.WithLabelValues(string(action), string(booking.Status)).Inc()
	events.BroadcastBookingUpdate(booking)
	_ = l.audit.Publish(context.Background(), "booking."+string(action), map[string]interface{}{
		"booking_id": booking.ID,
		"actor_id":   actorID,
		"action":     action,
		"status":     booking.Status,
		"at":         time.Now().UTC(),
	})

	return &booking, nil
}

// checkParty verifies the actor really is the booking's tenant or the
// listing's landlord for the claimed role.
func checkParty(b *models.Booking, actorID uint, role string) error {
	switch role {
	case models.RoleTenant:
		if b.TenantID != actorID {
			return ErrNotParticipant
		}
	case models.RoleLandlord:
		if b.Property.LandlordID != actorID {
			return ErrNotParticipant
		}
	default:
		return ErrNoPermission
	}
	return nil
}

func notify(tx *gorm.DB, userID uint, title, message string) error {
	n := models.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if err := tx.Create(&n).Error; err != nil {
		return err
	}
	events.BroadcastNotification(n)
	return nil
}
