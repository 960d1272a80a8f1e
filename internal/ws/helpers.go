package ws

import (
	"net/url"

	"github.com/google/uuid"
)

func newConnID() string {
	return uuid.NewString()
}

// withToken appends the handshake token claim to the socket URL.
func withToken(rawURL, token string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
