// Package identity computes the deterministic event identity used as the
// primary key of the telco_billings_usage fact table.
//
// The database-side twin lives in schema.GenerateEventUUID and is what the
// merge statement actually calls; Postgres' text rendering of the business
// fields is canonical. This package operates on already-rendered text so the
// two definitions produce identical keys for identical renderings, and it is
// what tests and offline tooling use to reason about deduplication.
package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// delimiter joins the five business fields before hashing. Must match the
// SQL function in schema.GenerateEventUUID.
const delimiter = "_"

// EventKey returns the 32-character lowercase hex identity for one usage
// event. Each argument is the textual rendering of a business field; pass ""
// for an absent value. The function is pure: no state, no randomness.
func EventKey(customerID, eventTime, eventType, ratePlanID, charge string) string {
	joined := strings.Join([]string{customerID, eventTime, eventType, ratePlanID, charge}, delimiter)
	sum := md5.Sum([]byte(joined))
	return hex.EncodeToString(sum[:])
}
