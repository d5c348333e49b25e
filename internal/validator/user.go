package validator

const MinPasswordLength = 6

func ValidatePassword(password, confirm string) error {
	if password != confirm {
		return New("confirmPassword", "Passwords do not match")
	}
	if len(password) < MinPasswordLength {
		return New("password", "Password must be at least 6 characters")
	}
	return nil
}
