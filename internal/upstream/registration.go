package upstream

import (
	"context"
	"net/http"

	"github.com/samber/oops"
)

// Registration API endpoints.
const (
	EndpointEmailExist     = "/Validation/email-exist"
	EndpointSendCode       = "/Registration/sendcode"
	EndpointAddUser        = "/Registration/adduser"
	EndpointSignIn         = "/Registration/signin"
	EndpointChangePassword = "/Registration/changepassword"
)

// AddUserRequest is the adduser body.
type AddUserRequest struct {
	Email    string `json:"email"`
	OTPCode  string `json:"otpcode"`
	Password string `json:"password"`
	Login    string `json:"login"`
}

// SignInRequest is the signin body. Note the camel-cased otpCode.
type SignInRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	OTPCode  string `json:"otpCode"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the changepassword body.
type ChangePasswordRequest struct {
	Email       string `json:"email"`
	OTPCode     string `json:"otpcode"`
	NewPassword string `json:"newPassword"`
	Login       string `json:"login"`
}

// TokenModel is the token envelope inside a signed-in user.
type TokenModel struct {
	Access string `json:"access"`
}

// User is the signin success payload.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	APIKey     string     `json:"apiKey"`
	TokenModel TokenModel `json:"tokenRespondeModel"`
}

// EmailExists posts the email to the existence check and returns the raw
// status: 200 means the account exists, 400 means it does not. Any other
// status is returned without error so callers can apply their own polarity.
func (c *Client) EmailExists(ctx context.Context, email string) (int, error) {
	_, status, err := c.call(ctx, c.register, http.MethodPost, EndpointEmailExist, "", email)
	if err != nil {
		if _, ok := AsStatus(err); ok && !IsUnavailable(err) {
			return status, nil
		}
		return status, err
	}
	return status, nil
}

// SendCode asks the registration API to email a one-time code.
func (c *Client) SendCode(ctx context.Context, email string) error {
	_, _, err := c.call(ctx, c.register, http.MethodPost, EndpointSendCode, "", email)
	return err
}

// AddUser registers an account. Rejections carry a numeric code in the body.
func (c *Client) AddUser(ctx context.Context, req AddUserRequest) error {
	_, _, err := c.call(ctx, c.register, http.MethodPost, EndpointAddUser, "", req)
	return err
}

// SignIn exchanges credentials for a user with an access token and API key.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (User, error) {
	raw, _, err := c.call(ctx, c.register, http.MethodPost, EndpointSignIn, "", req)
	if err != nil {
		return User{}, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return User{}, oops.In("upstream").With("endpoint", EndpointSignIn).Errorf("empty user")
	}
	var user User
	if err := decode(EndpointSignIn, raw, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// ChangePassword resets a password with a one-time code.
func (c *Client) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	_, _, err := c.call(ctx, c.register, http.MethodPost, EndpointChangePassword, "", req)
	return err
}
