// Package session carries bearer tokens between browser and server in an
// HTTP-only cookie.
//
// The cookie is HttpOnly so page scripts cannot read the token, and
// SameSite=Lax so it travels on top-level navigation but not on most
// cross-site subrequests. Whether it is also marked Secure depends on the
// deployment and is configured through Options.
package session

import (
	"net/http"
	"time"
)

// CookieName is the name of the cookie holding the signed token.
const CookieName = "auth-token"

// Options controls the scope of the session cookie.
type Options struct {
	Secure bool
	Domain string
	Path   string
}

// Cookies attaches, extracts and clears the session cookie.
type Cookies struct {
	opts Options
	now  func() time.Time
}

func NewCookies(opts Options) *Cookies {
	if opts.Path == "" {
		opts.Path = "/"
	}
	return &Cookies{opts: opts, now: time.Now}
}

// Attach stores token in the response with the same lifetime as the token.
func (s *Cookies) Attach(w http.ResponseWriter, token string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(s.now()).Seconds())
	if maxAge <= 0 {
		// An already-expired token must not produce a session cookie.
		s.Clear(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		Expires:  expiresAt.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Extract returns the token carried by r. A missing cookie is not an error:
// it means the caller is anonymous.
func (s *Cookies) Extract(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// Clear instructs the client to drop the session cookie immediately.
func (s *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     s.opts.Path,
		Domain:   s.opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
