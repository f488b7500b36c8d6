// Package operator implements the gateway's operator-facing HTTP API
// (C6): human/dashboard authentication and read/limited-write access to
// device records, separate from the device protocol gatewayd serves.
package operator
