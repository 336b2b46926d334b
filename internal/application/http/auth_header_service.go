package apphttp

import (
	"context"
)

// AuthHeaderService emits the static headers of one backend: a bearer token
// when one is configured and any fixed extras such as Accept.
type AuthHeaderService struct {
	token  string
	scheme string
	extra  map[string]string
}

func NewAuthHeaderService(token, scheme string, extra map[string]string) *AuthHeaderService {
	if scheme == "" {
		scheme = "Bearer"
	}
	return &AuthHeaderService{token: token, scheme: scheme, extra: extra}
}

func (s *AuthHeaderService) Headers(ctx context.Context) (map[string]string, error) {
	h := map[string]string{}
	for k, v := range s.extra {
		h[k] = v
	}
	if s.token != "" {
		h["Authorization"] = s.scheme + " " + s.token
	}
	return h, nil
}
