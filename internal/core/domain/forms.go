package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

var (
	nameRe     = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	mobileRe   = regexp.MustCompile(`^[+]?[\d\s()-]+$`)
	otpRe      = regexp.MustCompile(`^\d{6}$`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`\d`)
	minAgeYear = 13
)

// LoginForm is submitted to /auth/login
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	var errs ValidationErrors
	errs = checkEmail(errs, "email", f.Email)
	if len(f.Password) < 6 {
		errs = append(errs, FieldError{"password", "Password must be at least 6 characters"})
	}
	return errs.OrNil()
}

// RegisterForm is submitted to /auth/register
type RegisterForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	MobileNumber    string `json:"mobileNumber"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	DOB             string `json:"dob"`
	Gender          string `json:"gender"`
	AgreeToTOC      bool   `json:"agreeToTOC"`
}

// Validate checks the form against the registration rules as of now
func (f RegisterForm) Validate(now time.Time) error {
	var errs ValidationErrors

	switch {
	case len(f.Name) < 2:
		errs = append(errs, FieldError{"name", "Name must be at least 2 characters"})
	case !nameRe.MatchString(f.Name):
		errs = append(errs, FieldError{"name", "Name should only contain letters and spaces"})
	}

	errs = checkEmail(errs, "email", f.Email)

	switch {
	case len(f.MobileNumber) < 10:
		errs = append(errs, FieldError{"mobileNumber", "Mobile number must be at least 10 digits"})
	case !mobileRe.MatchString(f.MobileNumber):
		errs = append(errs, FieldError{"mobileNumber", "Invalid phone number format"})
	}

	errs = checkPassword(errs, "password", f.Password)
	if f.Password != f.ConfirmPassword {
		errs = append(errs, FieldError{"confirmPassword", "Passwords don't match"})
	}

	if strings.TrimSpace(f.DOB) == "" {
		errs = append(errs, FieldError{"dob", "Date of birth is required"})
	} else if dob, err := time.Parse("2006-01-02", f.DOB); err != nil {
		errs = append(errs, FieldError{"dob", "Date of birth must be YYYY-MM-DD"})
	} else if AgeOn(dob, now) < minAgeYear {
		errs = append(errs, FieldError{"dob", "You must be at least 13 years old"})
	}

	if strings.TrimSpace(f.Gender) == "" {
		errs = append(errs, FieldError{"gender", "Please select your gender"})
	}
	if !f.AgreeToTOC {
		errs = append(errs, FieldError{"agreeToTOC", "You must agree to the Terms and Conditions"})
	}

	return errs.OrNil()
}

// AgeOn returns the age in whole years of someone born on dob, on day now
func AgeOn(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

// VerifyForm is submitted to /auth/verify
type VerifyForm struct {
	OTP string `json:"otp"`
}

func (f VerifyForm) Validate() error {
	var errs ValidationErrors
	errs = checkOTP(errs, "otp", f.OTP)
	return errs.OrNil()
}

// ResendOTPForm is submitted to /auth/resend-otp
type ResendOTPForm struct {
	Email string `json:"email"`
}

func (f ResendOTPForm) Validate() error {
	return checkEmail(nil, "email", f.Email).OrNil()
}

// ResetPasswordForm is submitted to /auth/reset-password
type ResetPasswordForm struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"-"`
}

func (f ResetPasswordForm) Validate() error {
	var errs ValidationErrors
	errs = checkEmail(errs, "email", f.Email)
	errs = checkOTP(errs, "otp", f.OTP)
	errs = checkPassword(errs, "newPassword", f.NewPassword)
	if f.NewPassword != f.ConfirmPassword {
		errs = append(errs, FieldError{"confirmPassword", "Passwords don't match"})
	}
	return errs.OrNil()
}

// UpdateUserForm is submitted to /auth/update. Empty fields are left unchanged.
type UpdateUserForm struct {
	Name         string `json:"name,omitempty"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Gender       string `json:"gender,omitempty"`
}

func (f UpdateUserForm) Validate() error {
	var errs ValidationErrors
	if f.Name != "" && (len(f.Name) < 2 || !nameRe.MatchString(f.Name)) {
		errs = append(errs, FieldError{"name", "Name should only contain letters and spaces"})
	}
	if f.MobileNumber != "" && (len(f.MobileNumber) < 10 || !mobileRe.MatchString(f.MobileNumber)) {
		errs = append(errs, FieldError{"mobileNumber", "Invalid phone number format"})
	}
	if f.Name == "" && f.MobileNumber == "" && f.Gender == "" {
		errs = append(errs, FieldError{"form", "Nothing to update"})
	}
	return errs.OrNil()
}

// CartLine adds or updates a product in the cart
type CartLine struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

func (l CartLine) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(l.ProductID) == "" {
		errs = append(errs, FieldError{"product", "Product is required"})
	}
	if l.Quantity < 1 {
		errs = append(errs, FieldError{"quantity", "Quantity must be at least 1"})
	}
	return errs.OrNil()
}

// ReviewForm is submitted as multipart form data to /review
type ReviewForm struct {
	ProductID string
	Rating    int
	Text      string
	Images    []FileAttachment
}

func (f ReviewForm) Validate() error {
	var errs ValidationErrors
	if strings.TrimSpace(f.ProductID) == "" {
		errs = append(errs, FieldError{"product", "Product is required"})
	}
	if f.Rating < 1 || f.Rating > 5 {
		errs = append(errs, FieldError{"rating", "Please select a rating"})
	}
	if len(strings.TrimSpace(f.Text)) < 10 {
		errs = append(errs, FieldError{"review", "Review must be at least 10 characters long"})
	}
	return errs.OrNil()
}

func checkEmail(errs ValidationErrors, field, email string) ValidationErrors {
	if strings.TrimSpace(email) == "" {
		return append(errs, FieldError{field, "Email is required"})
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return append(errs, FieldError{field, "Invalid email format"})
	}
	return errs
}

func checkPassword(errs ValidationErrors, field, password string) ValidationErrors {
	if len(password) < 8 {
		return append(errs, FieldError{field, "Password must be at least 8 characters"})
	}
	if !upperRe.MatchString(password) || !lowerRe.MatchString(password) || !digitRe.MatchString(password) {
		return append(errs, FieldError{field, "Password must contain at least one uppercase letter, one lowercase letter, and one number"})
	}
	return errs
}

func checkOTP(errs ValidationErrors, field, otp string) ValidationErrors {
	if !otpRe.MatchString(otp) {
		return append(errs, FieldError{field, "OTP must be exactly 6 digits"})
	}
	return errs
}
