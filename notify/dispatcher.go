// Package notify delivers appointment confirmation and cancellation emails.
// Delivery is best-effort: the appointment state change has already been
// committed by the time a message is enqueued, and a send failure is logged
// but never surfaced to the caller.
package notify

// ConfirmationEmail carries the fields rendered into a confirmation message.
type ConfirmationEmail struct {
	To          string
	PatientName string
	DoctorName  string
	Date        string
	Time        string
}

// CancellationEmail carries the fields rendered into a cancellation message.
type CancellationEmail struct {
	To          string
	PatientName string
	DoctorName  string
	Date        string
	Time        string
	Reason      string
	Notes       string
}

// Dispatcher is the outbound mail contract consumed by the appointment
// lifecycle endpoints.
type Dispatcher interface {
	SendConfirmation(msg ConfirmationEmail) error
	SendCancellation(msg CancellationEmail) error
}
