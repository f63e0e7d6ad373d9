//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"roomcast/domain"
)

// Reporter is the observability collaborator notified when a message
// cannot be delivered (for instance a direct message whose target is not
// subscribed). The message is still part of the room history at that
// point; reporting is a side channel, never a failure of the send.
type Reporter interface {
	ReportUndelivered(msg domain.Message, reason error)
}

// IRegistry is the process-wide directory of active rooms. There is one
// instance per service, constructed at startup and passed by handle to
// every component that needs it.
type IRegistry interface {
	CreateOrGet(id domain.RoomID) *domain.Room
	Get(id domain.RoomID) *domain.Room
	Remove(id domain.RoomID)
}
