// Package simulate provides the adapter's stand-ins for real side effects:
// placing calls, sending SMS, writing CRM records and listing calendar
// availability. Nothing leaves the process; each action yields a receipt
// carrying a ULID-based simulation id and an audit log entry.
package simulate
