package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ho-DucThanh/Client-LMS-sub000/internal/client"
)

type AuthService struct {
	c *client.Client
}

// Login exchanges credentials for an access token and the user record.
// Token fields vary between access_token, accessToken and token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, User, error) {
	m, err := postObject(ctx, s.c, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", User{}, err
	}

	token := pickString(m, "access_token", "accessToken", "token")
	if token == "" {
		if tokens := pickObject(m, "tokens"); tokens != nil {
			token = pickString(tokens, "access_token", "accessToken")
		}
	}
	if token == "" {
		return "", User{}, errors.New("login response carried no access token")
	}

	userObj := pickObject(m, "user", "profile")
	if userObj == nil {
		return "", User{}, fmt.Errorf("login response carried no user")
	}
	return token, NormalizeUser(userObj), nil
}

// Me returns the user the current token belongs to.
func (s *AuthService) Me(ctx context.Context) (User, error) {
	m, err := getObject(ctx, s.c, "/auth/profile")
	if err != nil {
		return User{}, err
	}
	if u := pickObject(m, "user"); u != nil {
		return NormalizeUser(u), nil
	}
	return NormalizeUser(m), nil
}
