package notify

import (
	"fmt"
	"strings"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"
)

const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

type sender interface {
	SendMessage(message *pushover.Message, recipient *pushover.Recipient) (*pushover.Response, error)
}

// Notifier pushes watch alerts to a single Pushover user.
type Notifier struct {
	app       sender
	recipient *pushover.Recipient
	logger    *logrus.Logger
}

func NewNotifier(token, userKey string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

func (n *Notifier) Send(title, message string) error {
	return n.SendWithPriority(title, message, PriorityNormal)
}

func (n *Notifier) SendWithPriority(title, message string, priority int) error {
	msg := pushover.NewMessageWithTitle(message, title)
	msg.Priority = priority

	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("sending pushover notification %q: %w", title, err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      title,
		"priority":   priority,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Debug("notification sent")

	return nil
}

// SendAvailability announces newly free departures for one journey window.
func (n *Notifier) SendAvailability(from, to, date string, hours []string) error {
	return n.SendWithPriority("TGVmax Seats Available", availabilityBody(from, to, date, hours), PriorityHigh)
}

func (n *Notifier) SendWatchStarted(journeys int) error {
	noun := "journeys"
	if journeys == 1 {
		noun = "journey"
	}
	return n.Send("TGVmax Watch", fmt.Sprintf("Watching %d %s for free seats.", journeys, noun))
}

func availabilityBody(from, to, date string, hours []string) string {
	return fmt.Sprintf("Free seats from %s to %s on %s.\nDepartures: %s",
		from, to, date, strings.Join(hours, ", "))
}
