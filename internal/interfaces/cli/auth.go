package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kilometers.ai/shop/internal/core/domain"
)

var (
	errLoginFailed    = errors.New("login failed")
	errRegisterFailed = errors.New("registration failed")
	errNotLoggedIn    = errors.New("not logged in")
)

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in, register and manage your account",
	}

	cmd.AddCommand(newAuthLoginCommand(a))
	cmd.AddCommand(newAuthRegisterCommand(a))
	cmd.AddCommand(newAuthVerifyCommand(a))
	cmd.AddCommand(newAuthResendOTPCommand(a))
	cmd.AddCommand(newAuthResetPasswordCommand(a))
	cmd.AddCommand(newAuthLogoutCommand(a))
	cmd.AddCommand(newAuthStatusCommand(a))
	cmd.AddCommand(newAuthWhoamiCommand(a))
	cmd.AddCommand(newAuthUpdateCommand(a))

	return cmd
}

func newAuthLoginCommand(a *app) *cobra.Command {
	var form domain.LoginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password",
		Example: `  shop auth login --email ada@example.com
  echo "$PASSWORD" | shop auth login --email ada@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Password == "" {
				form.Password = readSecret(cmd, "Password")
			}

			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			before := svc.State.State().User.AccessToken
			seen, err := watchApplied(svc.State, func() error {
				return svc.Storefront.Login(cmd.Context(), form)
			})
			if err != nil {
				return err
			}

			st := svc.State.State()
			if !newSession(seen, before, st.User.AccessToken) {
				return errLoginFailed
			}
			name := form.Email
			if st.User.User != nil && st.User.User.Name != "" {
				name = st.User.User.Name
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Logged in as "+name))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "Account password (read from stdin when omitted)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthRegisterCommand(a *app) *cobra.Command {
	var form domain.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Example: `  shop auth register --name "Ada Lovelace" --email ada@example.com \
    --mobile "+44 20 7946 0958" --dob 1990-12-10 --gender female --agree`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.Password == "" {
				form.Password = readSecret(cmd, "Password")
			}
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}

			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			before := svc.State.State().User.AccessToken
			seen, err := watchApplied(svc.State, func() error {
				return svc.Storefront.Register(cmd.Context(), form)
			})
			if err != nil {
				return err
			}
			if !newSession(seen, before, svc.State.State().User.AccessToken) {
				return errRegisterFailed
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, successStyle.Render("Account created for "+form.Email))
			fmt.Fprintln(out, mutedStyle.Render("Check your email for the code, then run 'shop auth verify --otp <code>'."))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.Name, "name", "", "Full name")
	flags.StringVar(&form.Email, "email", "", "Email")
	flags.StringVar(&form.MobileNumber, "mobile", "", "Mobile number")
	flags.StringVar(&form.Password, "password", "", "Password (read from stdin when omitted)")
	flags.StringVar(&form.ConfirmPassword, "confirm-password", "", "Password confirmation (defaults to --password)")
	flags.StringVar(&form.DOB, "dob", "", "Date of birth, YYYY-MM-DD")
	flags.StringVar(&form.Gender, "gender", "", "Gender")
	flags.BoolVar(&form.AgreeToTOC, "agree", false, "Agree to the terms and conditions")

	return cmd
}

func newAuthVerifyCommand(a *app) *cobra.Command {
	var form domain.VerifyForm

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify your email with the one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Storefront.Verify(cmd.Context(), form); err != nil {
				return err
			}

			user := svc.State.State().User.User
			if user == nil || !user.Verified {
				return errors.New("verification failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("Email verified"))
			return nil
		},
	}

	cmd.Flags().StringVar(&form.OTP, "otp", "", "6-digit code")
	cmd.MarkFlagRequired("otp")

	return cmd
}

func newAuthResendOTPCommand(a *app) *cobra.Command {
	var form domain.ResendOTPForm

	cmd := &cobra.Command{
		Use:   "resend-otp",
		Short: "Send a new one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Storefront.ResendOTP(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If the account exists, a new code is on its way to "+form.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Email, "email", "", "Account email")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newAuthResetPasswordCommand(a *app) *cobra.Command {
	var form domain.ResetPasswordForm

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password using a one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.NewPassword == "" {
				form.NewPassword = readSecret(cmd, "New password")
			}
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.NewPassword
			}

			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Storefront.ResetPassword(cmd.Context(), form); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Password reset requested. Log in with your new password.")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.Email, "email", "", "Account email")
	flags.StringVar(&form.OTP, "otp", "", "6-digit code")
	flags.StringVar(&form.NewPassword, "new-password", "", "New password (read from stdin when omitted)")
	flags.StringVar(&form.ConfirmPassword, "confirm-password", "", "Confirmation (defaults to --new-password)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("otp")

	return cmd
}

func newAuthLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			svc.Storefront.Logout(cmd.Context())

			// the local session ends even when the backend call failed
			if st := svc.State.State(); !st.User.AccessToken.IsZero() {
				svc.State.Dispatch(domain.Logout())
			}
			if svc.Jar != nil {
				if err := svc.Jar.Clear(); err != nil {
					svc.Logger.Warn("failed to clear session cookies", "error", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newAuthStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session without calling the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			st := svc.State.State()
			fmt.Fprintln(cmd.OutOrStdout(), renderCredential(svc.Config.Profile, st.User.AccessToken, time.Now()))
			return nil
		},
	}
}

func newAuthWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			if svc.State.State().User.AccessToken.IsZero() {
				return errNotLoggedIn
			}

			svc.Storefront.GetUser(cmd.Context())
			user := svc.State.State().User.User
			if user == nil {
				return errNotLoggedIn
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderUser(user))
			return nil
		},
	}
}

func newAuthUpdateCommand(a *app) *cobra.Command {
	var form domain.UpdateUserForm

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services(cmd)
			if err != nil {
				return err
			}
			if err := svc.Storefront.UpdateUser(cmd.Context(), form); err != nil {
				return err
			}
			user := svc.State.State().User.User
			if user == nil {
				return errors.New("profile update failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderUser(user))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&form.Name, "name", "", "New name")
	flags.StringVar(&form.MobileNumber, "mobile", "", "New mobile number")
	flags.StringVar(&form.Gender, "gender", "", "New gender")

	return cmd
}

// newSession reports whether an auth call issued a session: the token and
// the user both arrived and the token is not the one held before. A refresh
// during the call sets a token but never the user.
func newSession(seen applied, before, after domain.Credential) bool {
	return seen[domain.ActionSetAccessToken] && seen[domain.ActionSetUser] &&
		!after.IsZero() && after != before
}

// readSecret reads one line from stdin. Prompts go to stderr so piped
// output stays clean.
func readSecret(cmd *cobra.Command, label string) string {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return strings.TrimRight(line, "\r\n")
}
