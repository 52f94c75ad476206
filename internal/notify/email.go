// Package notify holds the notification sinks invoked by the API layer after
// a successful engine call. The lifecycle engine never calls out to
// notification code itself, which keeps it testable.
package notify

import (
	"log"

	"blockfix/backend/internal/localization"
	"blockfix/backend/internal/models"
)

// EmailSimulator writes the email that a real delivery provider would send to
// the application log. No provider is wired: delivery is simulated.
type EmailSimulator struct {
	Localizer *localization.Localizer
}

// NewEmailSimulator creates the simulated email sink.
func NewEmailSimulator(loc *localization.Localizer) *EmailSimulator {
	return &EmailSimulator{Localizer: loc}
}

// RegistrationEmail notifies a freshly registered account.
func (e *EmailSimulator) RegistrationEmail(account *models.Account) {
	subject := e.Localizer.GetString("en", "email.registration.subject")
	body := e.Localizer.GetString("en", "email.registration.body")
	log.Printf("EMAIL (simulated) to=%s subject=%q role=%s\n%s", account.Email, subject, account.Role, body)
}

// ResolutionEmail notifies the complaint author that the vendor marked the
// complaint resolved, in the language the complaint was filed in.
func (e *EmailSimulator) ResolutionEmail(student *models.Account, complaint *models.Complaint) {
	subject := e.Localizer.GetString(complaint.Language, "email.resolution.subject")
	body := e.Localizer.GetString(complaint.Language, "email.resolution.body")
	log.Printf("EMAIL (simulated) to=%s subject=%q complaint=%s title=%q\n%s",
		student.Email, subject, complaint.ID, complaint.Title, body)
}
