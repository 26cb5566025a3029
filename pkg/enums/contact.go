package enums

import "fmt"

// ContactStatus tracks the handling state of a contact message.
type ContactStatus string

const (
	ContactStatusNew        ContactStatus = "new"
	ContactStatusInProgress ContactStatus = "in-progress"
	ContactStatusResolved   ContactStatus = "resolved"
	ContactStatusClosed     ContactStatus = "closed"
)

func (s ContactStatus) String() string {
	return string(s)
}

func (s ContactStatus) IsValid() bool {
	switch s {
	case ContactStatusNew, ContactStatusInProgress, ContactStatusResolved, ContactStatusClosed:
		return true
	}
	return false
}

func ParseContactStatus(value string) (ContactStatus, error) {
	s := ContactStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid contact status %q", value)
	}
	return s, nil
}

// ContactSubject categorizes an inbound contact message.
type ContactSubject string

const (
	ContactSubjectGeneral     ContactSubject = "general"
	ContactSubjectDonation    ContactSubject = "donation"
	ContactSubjectVolunteer   ContactSubject = "volunteer"
	ContactSubjectProgram     ContactSubject = "program"
	ContactSubjectPartnership ContactSubject = "partnership"
)

func (s ContactSubject) String() string {
	return string(s)
}

func (s ContactSubject) IsValid() bool {
	switch s {
	case ContactSubjectGeneral, ContactSubjectDonation, ContactSubjectVolunteer,
		ContactSubjectProgram, ContactSubjectPartnership:
		return true
	}
	return false
}

func ParseContactSubject(value string) (ContactSubject, error) {
	s := ContactSubject(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid contact subject %q", value)
	}
	return s, nil
}
