package receipts

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// VerificationHash derives the tamper-evidence digest printed on a receipt.
// The input concatenates the identifying fields in a fixed order with the
// creation time normalized to UTC RFC3339, so regeneration yields the same
// hash for the same donation.
func VerificationHash(receiptNumber, donorName string, amount int64, donorEmail string, createdAt time.Time) string {
	payload := receiptNumber + donorName + strconv.FormatInt(amount, 10) + donorEmail + createdAt.UTC().Format(time.RFC3339)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// DisplayHash shortens a verification hash for print. The full hash stays in
// the database and the QR verification link.
func DisplayHash(hash string) string {
	if len(hash) <= 16 {
		return hash
	}
	return hash[:16] + "..."
}
