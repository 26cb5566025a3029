package enums

import "fmt"

// DonationStatus tracks a donation through its payment lifecycle.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
)

func (s DonationStatus) String() string {
	return string(s)
}

func (s DonationStatus) IsValid() bool {
	switch s {
	case DonationStatusPending, DonationStatusCompleted, DonationStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusCompleted || s == DonationStatusFailed
}

func ParseDonationStatus(value string) (DonationStatus, error) {
	s := DonationStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid donation status %q", value)
	}
	return s, nil
}
