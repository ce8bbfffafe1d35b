package models

import "time"

// DeviceToken is one device/browser push registration for a user. A user may
// hold any number of them; every send targets all of them.
type DeviceToken struct {
	Token      string    `json:"token"`
	OwnerID    string    `json:"owner_id"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
