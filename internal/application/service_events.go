package application

const (
	// eventTypeAccountRegistered is emitted when an account is created,
	// through either the verified-registration or the federated path.
	eventTypeAccountRegistered = "account.registered"
	// eventTypeRoleChanged is emitted when an admin changes an account role.
	eventTypeRoleChanged = "account.role_changed"
	// eventTypeActiveToggled is emitted when an admin flips the active flag.
	eventTypeActiveToggled = "account.active_toggled"
	// eventTypeVerifiedToggled is emitted when an admin flips the verified flag.
	eventTypeVerifiedToggled = "account.verified_toggled"
	// eventTypePasswordReset is emitted after a recovery-code password reset.
	eventTypePasswordReset = "password.reset"
)
