package models

import id "logdata/pkg/domain"

// TenantRegistered is emitted when a company completes self-registration.
type TenantRegistered struct {
	TenantID   id.TenantID
	TenantName string
	Email      string
	Recipients int
}

// RegistrationRequested is emitted when a registration token is mailed.
type RegistrationRequested struct {
	Email string
}
